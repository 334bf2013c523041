// Package mcp exposes the knowledge base as MCP tools.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/WessleyAI/courtside/engine/graph"
	"github.com/WessleyAI/courtside/engine/rag"
	"github.com/WessleyAI/courtside/pkg/metrics"
)

// KnowledgeSearcher retrieves cards for a query.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query, sport string, topK int) []rag.Result
}

// GraphQuerier looks up the records an entity featured in.
type GraphQuerier interface {
	RelatedHeadlines(ctx context.Context, name string, limit int) ([]graph.Record, error)
}

type Server struct {
	search  KnowledgeSearcher
	graph   GraphQuerier
	topK    int
	metrics *metrics.Metrics
	log     *zap.Logger
	mcp     *sdk.Server
}

// NewServer creates the tool server. g may be nil, in which case only the
// search tool is registered.
func NewServer(search KnowledgeSearcher, g GraphQuerier, topK int, version string, m *metrics.Metrics, log *zap.Logger) *Server {
	if topK <= 0 {
		topK = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		search:  search,
		graph:   g,
		topK:    topK,
		metrics: m,
		log:     log.Named("mcp"),
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "courtside",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
