package main

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/WessleyAI/courtside/engine/graph"
	"github.com/WessleyAI/courtside/engine/ingest"
	"github.com/WessleyAI/courtside/engine/ledger"
	"github.com/WessleyAI/courtside/engine/rag"
	"github.com/WessleyAI/courtside/engine/semantic"
	"github.com/WessleyAI/courtside/pkg/config"
	"github.com/WessleyAI/courtside/pkg/embed"
	"github.com/WessleyAI/courtside/pkg/logging"
	"github.com/WessleyAI/courtside/pkg/metrics"
)

// app holds what every command needs and closes what it opened.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
	closers []func()
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, metrics: metrics.New()}, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.log.Sync()
}

func (a *app) embedder() (embed.Embedder, error) {
	return embed.New(a.cfg.EmbedConfig())
}

func (a *app) vectorStore() (*semantic.VectorStore, error) {
	q := a.cfg.Qdrant
	vs, err := semantic.New(q.Addr, q.Collection, q.Namespace)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = vs.Close() })
	return vs, nil
}

// retriever wires the query side: embedder plus vector store.
func (a *app) retriever() (*rag.Retriever, error) {
	e, err := a.embedder()
	if err != nil {
		return nil, err
	}
	vs, err := a.vectorStore()
	if err != nil {
		return nil, err
	}
	return rag.NewRetriever(e, vs, a.metrics, a.log), nil
}

// ledger returns the configured change ledger scoped to the target
// collection and namespace, or nil when none is configured.
func (a *app) ledger(ctx context.Context) (ledger.Ledger, error) {
	l := a.cfg.Ledger
	scope := ledgerScope(a.cfg.Qdrant)
	switch l.Backend {
	case config.LedgerMemory:
		return ledger.Scoped(ledger.NewMemory(l.TTL), scope), nil
	case config.LedgerRedis:
		r, client, err := ledger.Dial(ctx, l.RedisAddr, l.TTL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return ledger.Scoped(r, scope), nil
	default:
		return nil, nil
	}
}

func ledgerScope(q config.Qdrant) string {
	return q.Collection + "/" + q.Namespace
}

// natsConn connects when nats.url is set and returns nil otherwise.
func (a *app) natsConn() (*nats.Conn, error) {
	if a.cfg.NATS.URL == "" {
		return nil, nil
	}
	nc, err := nats.Connect(a.cfg.NATS.URL, nats.Name("courtside"))
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", a.cfg.NATS.URL, err)
	}
	a.closers = append(a.closers, func() { _ = nc.Drain() })
	return nc, nil
}

// graphStore connects when neo4j.url is set and returns nil otherwise.
func (a *app) graphStore(ctx context.Context) (*graph.Store, error) {
	n := a.cfg.Neo4j
	if n.URL == "" {
		return nil, nil
	}
	driver, err := graph.Dial(ctx, n.URL, n.User, n.Pass)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = driver.Close(context.Background()) })
	return graph.New(driver), nil
}

// orchestrator wires the write side. The collection is created on first
// use; recreate drops it beforehand.
func (a *app) orchestrator(ctx context.Context, recreate bool) (*ingest.Orchestrator, error) {
	e, err := a.embedder()
	if err != nil {
		return nil, err
	}
	vs, err := a.vectorStore()
	if err != nil {
		return nil, err
	}
	if recreate {
		if err := vs.DeleteCollection(ctx); err != nil {
			a.log.Warn("drop collection", zap.Error(err))
		}
	}
	if err := vs.EnsureCollection(ctx, e.Dimensions()); err != nil {
		return nil, err
	}

	deps := ingest.Deps{Embedder: e, Store: vs, Metrics: a.metrics, Logger: a.log}

	l, err := a.ledger(ctx)
	if err != nil {
		return nil, err
	}
	if l != nil {
		deps.Ledger = l
	}

	nc, err := a.natsConn()
	if err != nil {
		return nil, err
	}
	if nc != nil {
		deps.Notifier = ingest.NewNATSNotifier(nc, a.cfg.NATS.Subject)
	}

	g, err := a.graphStore(ctx)
	if err != nil {
		return nil, err
	}
	if g != nil {
		deps.Graph = g
	}
	return ingest.New(deps), nil
}
