// Package metrics exposes ingestion and query metrics in the Prometheus
// format. Each Metrics value owns its own registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "courtside"

// Failure stages.
const (
	StageDecode = "decode"
	StageBuild  = "build"
	StageEmbed  = "embed"
	StageStore  = "store"
	StageLedger = "ledger"
	StageNotify = "notify"
	StageGraph  = "graph"
)

// Metrics holds every collector the service reports.
type Metrics struct {
	registry *prometheus.Registry

	processed      *prometheus.CounterVec
	upserted       prometheus.Counter
	unchanged      prometheus.Counter
	failures       *prometheus.CounterVec
	sourcesSkipped *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	embedDuration  prometheus.Histogram
	searches       *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	lastRun        prometheus.Gauge
}

// New creates Metrics on a fresh registry that also carries the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	auto := promauto.With(reg)

	return &Metrics{
		registry: reg,
		processed: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "records_processed_total",
			Help: "Raw records read from each source.",
		}, []string{"source"}),
		upserted: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "cards_upserted_total",
			Help: "Cards written to the vector store.",
		}),
		unchanged: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "cards_unchanged_total",
			Help: "Cards skipped because their content hash was already stored.",
		}),
		failures: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "failures_total",
			Help: "Record-level failures by pipeline stage.",
		}, []string{"stage"}),
		sourcesSkipped: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "sources_skipped_total",
			Help: "Sources that were unreachable or missing.",
		}, []string{"source"}),
		fetchDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "fetch_duration_seconds",
			Help: "Time to read one source.", Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		embedDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "embed_duration_seconds",
			Help: "Time to embed one card.", Buckets: prometheus.DefBuckets,
		}),
		searches: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "query", Name: "searches_total",
			Help: "Knowledge base searches by entry point.",
		}, []string{"via"}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by path, method and status.",
		}, []string{"path", "method", "status"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help: "HTTP request latency.", Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		lastRun: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "last_run_timestamp_seconds",
			Help: "Unix time the last ingestion run finished.",
		}),
	}
}

func (m *Metrics) Processed(source string, n int) { m.processed.WithLabelValues(source).Add(float64(n)) }
func (m *Metrics) Upserted(n int)                 { m.upserted.Add(float64(n)) }
func (m *Metrics) Unchanged(n int)                { m.unchanged.Add(float64(n)) }
func (m *Metrics) Failed(stage string)            { m.failures.WithLabelValues(stage).Inc() }
func (m *Metrics) SourceSkipped(source string)    { m.sourcesSkipped.WithLabelValues(source).Inc() }
func (m *Metrics) Searched(via string)            { m.searches.WithLabelValues(via).Inc() }
func (m *Metrics) RunFinished(t time.Time)        { m.lastRun.Set(float64(t.Unix())) }

func (m *Metrics) ObserveFetch(source string, d time.Duration) {
	m.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) ObserveEmbed(d time.Duration) { m.embedDuration.Observe(d.Seconds()) }

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(path, method string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(path, method).Observe(d.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve runs a dedicated /metrics server until it fails.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}
