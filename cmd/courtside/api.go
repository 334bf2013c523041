package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/engine/graph"
	"github.com/WessleyAI/courtside/engine/mcp"
	"github.com/WessleyAI/courtside/engine/rag"
	"github.com/WessleyAI/courtside/pkg/metrics"
	"github.com/WessleyAI/courtside/pkg/mid"
	"github.com/WessleyAI/courtside/pkg/repo"
)

var apiAddr string

func apiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Serve knowledge base search over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runAPI,
	}
	cmd.Flags().StringVar(&apiAddr, "addr", "", "Listen address (overrides api.addr)")
	return cmd
}

func runAPI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	r, err := a.retriever()
	if err != nil {
		return err
	}
	g, err := a.graphStore(ctx)
	if err != nil {
		return err
	}
	h := &handlers{search: r, topK: a.cfg.Analyst.TopK, metrics: a.metrics, log: a.log}
	if g != nil {
		h.graph = g
	}

	addr := a.cfg.API.Addr
	if apiAddr != "" {
		addr = apiAddr
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(h, a.metrics, a.cfg.API.CORSOrigin, a.log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("api server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func newRouter(h *handlers, m *metrics.Metrics, corsOrigin string, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/search", h.handleSearch)
	mux.HandleFunc("GET /api/related", h.handleRelated)
	mux.HandleFunc("GET /api/records", h.handleRecords)
	mux.HandleFunc("GET /api/records/{id}", h.handleRecord)
	mux.Handle("GET /metrics", m.Handler())

	return mid.Chain(mux,
		mid.Recover(log),
		mid.OTel("courtside-api"),
		mid.Logger(log),
		mid.Metrics(m),
		mid.CORS(corsOrigin),
	)
}

// graphReader is the read side of the entity graph.
type graphReader interface {
	mcp.GraphQuerier
	GetRecord(ctx context.Context, id string) (graph.Record, error)
	RecordsBySport(ctx context.Context, sport string, limit int) ([]graph.Record, error)
}

type handlers struct {
	search  mcp.KnowledgeSearcher
	graph   graphReader
	topK    int
	metrics *metrics.Metrics
	log     *zap.Logger
}

// SearchResponse is the JSON response for GET /api/search.
type SearchResponse struct {
	Query   string       `json:"query"`
	Sport   string       `json:"sport,omitempty"`
	Results []rag.Result `json:"results"`
}

// RelatedResponse is the JSON response for GET /api/related.
type RelatedResponse struct {
	Name      string               `json:"name"`
	Headlines []mcp.HeadlineOutput `json:"headlines"`
}

// RecordsResponse is the JSON response for GET /api/records.
type RecordsResponse struct {
	Sport   string         `json:"sport"`
	Records []graph.Record `json:"records"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	topK := h.topK
	if v := q.Get("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "top_k must be a positive integer")
			return
		}
		topK = n
	}
	sport := q.Get("sport")
	if h.metrics != nil {
		h.metrics.Searched("api")
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   query,
		Sport:   sport,
		Results: h.search.Search(r.Context(), query, sport, topK),
	})
}

func (h *handlers) handleRelated(w http.ResponseWriter, r *http.Request) {
	if h.graph == nil {
		writeError(w, http.StatusNotImplemented, "graph store is not configured")
		return
	}
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	records, err := h.graph.RelatedHeadlines(r.Context(), name, limit)
	if err != nil {
		h.log.Error("related headlines failed", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	resp := RelatedResponse{Name: name, Headlines: make([]mcp.HeadlineOutput, len(records))}
	for i, rec := range records {
		resp.Headlines[i] = mcp.HeadlineFor(rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) handleRecords(w http.ResponseWriter, r *http.Request) {
	if h.graph == nil {
		writeError(w, http.StatusNotImplemented, "graph store is not configured")
		return
	}
	sport, err := domain.ParseSport(r.URL.Query().Get("sport"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "sport must be nba or nfl")
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	records, err := h.graph.RecordsBySport(r.Context(), string(sport), limit)
	if err != nil {
		h.log.Error("list records failed", zap.String("sport", string(sport)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if records == nil {
		records = []graph.Record{}
	}
	writeJSON(w, http.StatusOK, RecordsResponse{Sport: string(sport), Records: records})
}

func (h *handlers) handleRecord(w http.ResponseWriter, r *http.Request) {
	if h.graph == nil {
		writeError(w, http.StatusNotImplemented, "graph store is not configured")
		return
	}
	id := r.PathValue("id")
	rec, err := h.graph.GetRecord(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		h.log.Error("get record failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// limitParam reads an optional positive "limit" query parameter. Zero means
// the store default. It writes a 400 and returns false on bad input.
func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
