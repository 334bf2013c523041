// Package embed turns card text into fixed-length vectors.
package embed

import (
	"context"
	"fmt"
	"strings"

	"github.com/WessleyAI/courtside/engine/domain"
)

// Provider names accepted in configuration.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Embedder produces one vector per input text. Every vector has exactly
// Dimensions() entries.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Config selects and configures an embedding backend.
type Config struct {
	Provider   string
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
}

// New builds the Embedder named by cfg.Provider.
func New(cfg Config) (Embedder, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("embed: dimensions must be positive, got %d", cfg.Dimensions)
	}
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAI(cfg), nil
	case ProviderOllama:
		return NewOllama(cfg), nil
	default:
		return nil, fmt.Errorf("embed: unknown provider %q", cfg.Provider)
	}
}

// Prepare flattens text onto one line before embedding.
func Prepare(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}

func checkDims(got []float32, want int) ([]float32, error) {
	if len(got) != want {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", domain.ErrEmbedding, len(got), want)
	}
	return got, nil
}
