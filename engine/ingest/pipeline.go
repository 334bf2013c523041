package ingest

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/WessleyAI/courtside/engine/card"
	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/engine/espn"
	"github.com/WessleyAI/courtside/pkg/fn"
	"github.com/WessleyAI/courtside/pkg/metrics"
)

// Decode returns the stage that decodes raw records from one origin.
func Decode(origin espn.Origin) fn.Stage[json.RawMessage, espn.Record] {
	return func(_ context.Context, raw json.RawMessage) fn.Result[espn.Record] {
		return fn.FromPair(espn.DecodeRecord(raw, origin))
	}
}

// Build turns a decoded record into a knowledge card.
var Build fn.Stage[espn.Record, domain.KnowledgeCard] = func(_ context.Context, rec espn.Record) fn.Result[domain.KnowledgeCard] {
	return fn.FromPair(card.Build(rec))
}

// Pipeline builds cards from raw batches. Records are independent; the
// batch-level dedupe runs only after every record has been seen.
type Pipeline struct {
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewPipeline creates a Pipeline. Both arguments may be nil.
func NewPipeline(log *zap.Logger, m *metrics.Metrics) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{log: log, metrics: m}
}

// BuildCards runs every record through decode and build, then collapses
// duplicate identifiers. Malformed records are logged and counted.
func (p *Pipeline) BuildCards(ctx context.Context, batches []Batch) (cards []domain.KnowledgeCard, processed, malformed int) {
	for _, b := range batches {
		stage := fn.Then(fn.Traced(metrics.StageDecode, Decode(b.Origin)), fn.Traced(metrics.StageBuild, Build))
		if p.metrics != nil {
			p.metrics.Processed(b.Origin.Source, len(b.Records))
		}
		processed += len(b.Records)
		for i, raw := range b.Records {
			c, err := stage(ctx, raw).Unwrap()
			if err != nil {
				malformed++
				p.log.Warn("record skipped",
					zap.String("source", b.Origin.Source),
					zap.Int("index", i),
					zap.Error(err))
				if p.metrics != nil {
					p.metrics.Failed(metrics.StageBuild)
				}
				continue
			}
			cards = append(cards, c)
		}
	}
	return card.Dedupe(cards), processed, malformed
}
