// Package rag answers questions from the knowledge cards: a retriever over
// the vector store and an analyst agent that calls it as a tool.
package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/engine/semantic"
	"github.com/WessleyAI/courtside/pkg/metrics"
)

// NoResults is the tool output when a search finds nothing.
const NoResults = "No results found in the database."

// QueryEmbedder embeds a search query.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs a filtered vector search.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, topK int, f semantic.Filter) ([]semantic.Hit, error)
}

// Result is one retrieved card, most relevant first.
type Result struct {
	Score      float32                  `json:"score"`
	Text       string                   `json:"text"`
	Headline   string                   `json:"headline,omitempty"`
	Date       string                   `json:"date,omitempty"`
	Performers []domain.PerformanceStat `json:"performers"`
	Context    domain.GameContext       `json:"context"`
}

// Retriever embeds a query and searches the card store.
type Retriever struct {
	embedder QueryEmbedder
	store    Searcher
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewRetriever creates a Retriever. m and log may be nil.
func NewRetriever(embedder QueryEmbedder, store Searcher, m *metrics.Metrics, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{embedder: embedder, store: store, metrics: m, log: log.Named("retriever")}
}

// Search returns up to topK cards for query, optionally limited to one
// sport. Failures are logged and produce an empty result.
func (r *Retriever) Search(ctx context.Context, query, sport string, topK int) []Result {
	if topK <= 0 {
		topK = 3
	}
	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.log.Error("embed query", zap.Error(err))
		return []Result{}
	}
	hits, err := r.store.Search(ctx, emb, topK, semantic.Filter{Sport: strings.ToLower(strings.TrimSpace(sport))})
	if err != nil {
		r.log.Error("search", zap.String("sport", sport), zap.Error(err))
		return []Result{}
	}
	out := make([]Result, len(hits))
	for i, h := range hits {
		out[i] = Result{
			Score:      h.Score,
			Text:       h.Text,
			Headline:   h.Headline,
			Date:       h.Date,
			Performers: h.Performers,
			Context:    h.Context,
		}
	}
	return out
}

// FormatResults renders results as the analyst tool output.
func FormatResults(results []Result) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "\n[Result %d] %s", i+1, r.Text)
		if !r.Context.IsZero() {
			if ctxJSON, err := json.Marshal(r.Context); err == nil {
				fmt.Fprintf(&b, "\nContext: %s", ctxJSON)
			}
		}
	}
	if b.Len() == 0 {
		return NoResults
	}
	return b.String()
}
