package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/WessleyAI/courtside/engine/graph"
	"github.com/WessleyAI/courtside/engine/rag"
)

type SearchKnowledgeBaseInput struct {
	Query string `json:"query" jsonschema:"the user's question, e.g. Who won the Patriots game?"`
	Sport string `json:"sport,omitempty" jsonschema:"optional sport filter: nba or nfl"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of results"`
}

type SearchKnowledgeBaseOutput struct {
	Results []rag.Result `json:"results"`
	Summary string       `json:"summary"`
}

type RelatedHeadlinesInput struct {
	Name  string `json:"name" jsonschema:"team or athlete display name"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of records"`
}

type HeadlineOutput struct {
	ID          string `json:"id"`
	Sport       string `json:"sport"`
	ContentType string `json:"content_type"`
	Status      string `json:"status,omitempty"`
	Headline    string `json:"headline,omitempty"`
	EventDate   string `json:"event_date,omitempty"`
}

type RelatedHeadlinesOutput struct {
	Records []HeadlineOutput `json:"records"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        rag.ToolSearch,
		Description: rag.ToolDescription,
	}, s.handleSearchKnowledgeBase)

	if s.graph != nil {
		sdk.AddTool(s.mcp, &sdk.Tool{
			Name:        "related_headlines",
			Description: "List the games and articles a team or athlete appeared in, newest first",
		}, s.handleRelatedHeadlines)
	}
}

func (s *Server) handleSearchKnowledgeBase(ctx context.Context, req *sdk.CallToolRequest, input SearchKnowledgeBaseInput) (*sdk.CallToolResult, SearchKnowledgeBaseOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchKnowledgeBaseOutput{}, fmt.Errorf("query is required")
	}
	topK := input.TopK
	if topK <= 0 {
		topK = s.topK
	}
	if s.metrics != nil {
		s.metrics.Searched("mcp")
	}
	results := s.search.Search(ctx, input.Query, input.Sport, topK)
	s.log.Debug("search", zap.String("query", input.Query), zap.Int("results", len(results)))
	return nil, SearchKnowledgeBaseOutput{Results: results, Summary: rag.FormatResults(results)}, nil
}

func (s *Server) handleRelatedHeadlines(ctx context.Context, req *sdk.CallToolRequest, input RelatedHeadlinesInput) (*sdk.CallToolResult, RelatedHeadlinesOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, RelatedHeadlinesOutput{}, fmt.Errorf("name is required")
	}
	recs, err := s.graph.RelatedHeadlines(ctx, input.Name, input.Limit)
	if err != nil {
		return nil, RelatedHeadlinesOutput{}, err
	}
	out := make([]HeadlineOutput, 0, len(recs))
	for _, r := range recs {
		out = append(out, HeadlineFor(r))
	}
	return nil, RelatedHeadlinesOutput{Records: out}, nil
}

// HeadlineFor converts a graph record into its tool output form.
func HeadlineFor(r graph.Record) HeadlineOutput {
	return HeadlineOutput{
		ID:          r.ID,
		Sport:       r.Sport,
		ContentType: r.ContentType,
		Status:      r.Status,
		Headline:    r.Headline,
		EventDate:   r.EventDate,
	}
}
