// Package ingest drives knowledge cards from feed sources into the vector
// store: read, decode, build, dedupe, embed, upsert.
package ingest

import (
	"context"
	"encoding/json"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/engine/espn"
)

// DefaultSubject is the NATS subject stored cards are announced on.
const DefaultSubject = "sports.cards.upserted"

// Batch is the raw record collection read from one source.
type Batch struct {
	Origin  espn.Origin
	Records []json.RawMessage
}

// Source yields raw record batches. A source that cannot be read is
// reported in the returned errors and contributes no batch.
type Source interface {
	Collect(ctx context.Context) ([]Batch, []*domain.SourceError)
}

// Embedder turns card text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CardStore upserts a batch of cards with their embeddings in one call.
type CardStore interface {
	UpsertCards(ctx context.Context, cards []domain.KnowledgeCard, embeddings [][]float32) error
}

// Notifier announces a stored card.
type Notifier interface {
	Notify(ctx context.Context, ev domain.CardEvent) error
}

// GraphWriter records the entities on a card.
type GraphWriter interface {
	SaveCard(ctx context.Context, c domain.KnowledgeCard) error
}

// Report summarises one run. Processed counts raw records read; the gap
// between Processed and Upserted+Unchanged is made up of malformed
// records, batch duplicates and embedding failures.
type Report struct {
	Processed      int      `json:"processed"`
	Cards          int      `json:"cards"`
	Upserted       int      `json:"upserted"`
	Unchanged      int      `json:"unchanged"`
	Malformed      int      `json:"malformed"`
	EmbedFailures  int      `json:"embed_failures"`
	SkippedSources []string `json:"skipped_sources,omitempty"`
}
