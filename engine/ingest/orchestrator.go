package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/engine/ledger"
	"github.com/WessleyAI/courtside/pkg/metrics"
)

// Deps holds the collaborators of an Orchestrator. Embedder and Store are
// required; the rest are optional.
type Deps struct {
	Embedder Embedder
	Store    CardStore
	Ledger   ledger.Ledger
	Notifier Notifier
	Graph    GraphWriter
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Options tune a single run.
type Options struct {
	// Force re-embeds and upserts cards whose content hash is unchanged.
	Force bool
}

// Orchestrator runs sources through the card pipeline into the store.
type Orchestrator struct {
	deps     Deps
	log      *zap.Logger
	pipeline *Pipeline
}

// New creates an Orchestrator.
func New(deps Deps) *Orchestrator {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ingest")
	return &Orchestrator{deps: deps, log: log, pipeline: NewPipeline(log, deps.Metrics)}
}

// Run reads the source, builds and dedupes cards, skips unchanged ones,
// embeds the rest and upserts them in one call. Unreadable sources and
// per-card embedding failures are warnings; a store failure fails the run.
func (o *Orchestrator) Run(ctx context.Context, src Source, opts Options) (Report, error) {
	var rep Report

	batches, skipped := src.Collect(ctx)
	for _, se := range skipped {
		rep.SkippedSources = append(rep.SkippedSources, se.Source)
		o.log.Warn("source skipped", zap.String("source", se.Source), zap.Error(se.Err))
		if o.deps.Metrics != nil {
			o.deps.Metrics.SourceSkipped(se.Source)
		}
	}

	cards, processed, malformed := o.pipeline.BuildCards(ctx, batches)
	rep.Processed, rep.Malformed, rep.Cards = processed, malformed, len(cards)

	var (
		pending    []domain.KnowledgeCard
		embeddings [][]float32
	)
	for _, c := range cards {
		if !opts.Force && o.unchanged(ctx, c) {
			rep.Unchanged++
			continue
		}
		start := time.Now()
		emb, err := o.deps.Embedder.Embed(ctx, c.ChunkText)
		if o.deps.Metrics != nil {
			o.deps.Metrics.ObserveEmbed(time.Since(start))
		}
		if err != nil {
			rep.EmbedFailures++
			o.log.Warn("embedding failed", zap.String("record_id", c.ID), zap.Error(err))
			o.failed(metrics.StageEmbed)
			continue
		}
		pending = append(pending, c)
		embeddings = append(embeddings, emb)
	}
	if o.deps.Metrics != nil {
		o.deps.Metrics.Unchanged(rep.Unchanged)
	}

	if len(pending) > 0 {
		if err := o.deps.Store.UpsertCards(ctx, pending, embeddings); err != nil {
			o.failed(metrics.StageStore)
			return rep, fmt.Errorf("ingest: upsert %d cards: %w", len(pending), err)
		}
		rep.Upserted = len(pending)
		if o.deps.Metrics != nil {
			o.deps.Metrics.Upserted(rep.Upserted)
		}
		for _, c := range pending {
			o.afterStore(ctx, c)
		}
	}

	if o.deps.Metrics != nil {
		o.deps.Metrics.RunFinished(time.Now())
	}
	o.log.Info("run finished",
		zap.Int("processed", rep.Processed),
		zap.Int("cards", rep.Cards),
		zap.Int("upserted", rep.Upserted),
		zap.Int("unchanged", rep.Unchanged),
		zap.Int("malformed", rep.Malformed),
		zap.Int("embed_failures", rep.EmbedFailures),
		zap.Strings("skipped_sources", rep.SkippedSources))
	return rep, nil
}

func (o *Orchestrator) unchanged(ctx context.Context, c domain.KnowledgeCard) bool {
	if o.deps.Ledger == nil {
		return false
	}
	prev, ok, err := o.deps.Ledger.Get(ctx, c.ID)
	if err != nil {
		o.log.Warn("ledger lookup failed", zap.String("record_id", c.ID), zap.Error(err))
		o.failed(metrics.StageLedger)
		return false
	}
	if ok && prev == c.Metadata.ContentHash {
		o.log.Debug("unchanged", zap.String("record_id", c.ID))
		return true
	}
	return false
}

// afterStore runs the side effects of a stored card. None of them can
// undo the upsert, so failures are only logged.
func (o *Orchestrator) afterStore(ctx context.Context, c domain.KnowledgeCard) {
	if o.deps.Graph != nil {
		if err := o.deps.Graph.SaveCard(ctx, c); err != nil {
			o.log.Warn("graph save failed", zap.String("record_id", c.ID), zap.Error(err))
			o.failed(metrics.StageGraph)
		}
	}
	if o.deps.Notifier != nil {
		if err := o.deps.Notifier.Notify(ctx, domain.EventFor(c)); err != nil {
			o.log.Warn("notify failed", zap.String("record_id", c.ID), zap.Error(err))
			o.failed(metrics.StageNotify)
		}
	}
	if o.deps.Ledger != nil {
		if err := o.deps.Ledger.Put(ctx, c.ID, c.Metadata.ContentHash); err != nil {
			o.log.Warn("ledger write failed", zap.String("record_id", c.ID), zap.Error(err))
			o.failed(metrics.StageLedger)
		}
	}
}

func (o *Orchestrator) failed(stage string) {
	if o.deps.Metrics != nil {
		o.deps.Metrics.Failed(stage)
	}
}
