package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/WessleyAI/courtside/pkg/metrics"
)

// ToolSearch is the name of the analyst's only tool.
const ToolSearch = "search_knowledge_base"

// ToolDescription describes ToolSearch to the model.
const ToolDescription = "Search the sports database for scores, stats, and news. " +
	"Always use this tool to answer questions about games, teams, or players."

// SystemPrompt is the analyst persona.
const SystemPrompt = `You are an expert Sports Analyst backed by a real-time database.
Your goal is to provide accurate, data-driven summaries of games and news.
CRITICAL INSTRUCTIONS:
1. ALWAYS use the 'search_knowledge_base' tool first. Do not guess scores.
2. If a game is 'Scheduled' or 'Preview', explicitly state that it hasn't happened yet.
3. Use the 'Context' field (Odds, Weather) to add color to your commentary.`

// ErrMaxTurns is returned when the model keeps calling tools past the turn
// budget.
var ErrMaxTurns = errors.New("analyst: exceeded maximum tool turns")

var searchToolParams = json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "The user's question (e.g. \"Who won the Patriots game?\")."},
    "sport": {"type": "string", "enum": ["nba", "nfl"], "description": "Optional sport filter."}
  },
  "required": ["query"]
}`)

// SearchArgs are the arguments of ToolSearch.
type SearchArgs struct {
	Query string `json:"query" jsonschema:"the user's question"`
	Sport string `json:"sport,omitempty" jsonschema:"optional sport filter: nba or nfl"`
}

// ChatClient is the part of the OpenAI client the analyst uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// AnalystConfig configures an Analyst.
type AnalystConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	TopK     int
	MaxTurns int
}

// Analyst answers questions with a tool-calling chat model.
type Analyst struct {
	chat      ChatClient
	retriever *Retriever
	cfg       AnalystConfig
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewAnalyst creates an Analyst on the OpenAI API.
func NewAnalyst(cfg AnalystConfig, retriever *Retriever, m *metrics.Metrics, log *zap.Logger) *Analyst {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	return NewAnalystWithClient(openai.NewClientWithConfig(clientCfg), cfg, retriever, m, log)
}

// NewAnalystWithClient creates an Analyst over an existing chat client.
func NewAnalystWithClient(chat ChatClient, cfg AnalystConfig, retriever *Retriever, m *metrics.Metrics, log *zap.Logger) *Analyst {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4o
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyst{chat: chat, retriever: retriever, cfg: cfg, metrics: m, log: log.Named("analyst")}
}

// Ask answers one question. Each call starts a fresh conversation.
func (a *Analyst) Ask(ctx context.Context, question string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: question},
	}
	tools := []openai.Tool{{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        ToolSearch,
			Description: ToolDescription,
			Parameters:  searchToolParams,
		},
	}}

	for turn := 0; turn < a.cfg.MaxTurns; turn++ {
		start := time.Now()
		resp, err := a.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       a.cfg.Model,
			Messages:    messages,
			Tools:       tools,
			Temperature: 0,
		})
		if err != nil {
			return "", fmt.Errorf("analyst: chat: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("analyst: no choices in response")
		}
		msg := resp.Choices[0].Message
		a.log.Debug("turn",
			zap.Int("turn", turn),
			zap.Int("tool_calls", len(msg.ToolCalls)),
			zap.Duration("elapsed", time.Since(start)))

		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		messages = append(messages, msg)
		for _, tc := range msg.ToolCalls {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    a.execute(ctx, tc),
				ToolCallID: tc.ID,
			})
		}
	}
	return "", fmt.Errorf("%w (%d)", ErrMaxTurns, a.cfg.MaxTurns)
}

func (a *Analyst) execute(ctx context.Context, tc openai.ToolCall) string {
	if tc.Function.Name != ToolSearch {
		return fmt.Sprintf("Error executing tool: unknown tool %q", tc.Function.Name)
	}
	var args SearchArgs
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
		return fmt.Sprintf("Error executing tool: %s", err.Error())
	}
	if a.metrics != nil {
		a.metrics.Searched("analyst")
	}
	a.log.Info("tool call", zap.String("query", args.Query), zap.String("sport", args.Sport))
	return FormatResults(a.retriever.Search(ctx, args.Query, args.Sport, a.cfg.TopK))
}
