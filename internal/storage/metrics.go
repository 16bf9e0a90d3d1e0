package storage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the storage engine's Prometheus counters: commits,
// rollbacks, errors by kind, and record-cache hits/misses.
type Metrics struct {
	Commits      prometheus.Counter
	Rollbacks    prometheus.Counter
	StoreErrors  *prometheus.CounterVec
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
}

// NewMetrics registers a fresh Metrics set against reg. Pass
// prometheus.NewRegistry() in tests to avoid collisions with the default
// global registry across tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaindna",
			Subsystem: "storage",
			Name:      "commits_total",
			Help:      "Writer transactions committed.",
		}),
		Rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaindna",
			Subsystem: "storage",
			Name:      "rollbacks_total",
			Help:      "Writer transactions dropped without commit.",
		}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chaindna",
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Storage errors observed, labeled by kind.",
		}, []string{"kind"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaindna",
			Subsystem: "storage",
			Name:      "cache_hits_total",
			Help:      "Record cache hits on the Reader.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaindna",
			Subsystem: "storage",
			Name:      "cache_misses_total",
			Help:      "Record cache misses on the Reader.",
		}),
	}
	reg.MustRegister(m.Commits, m.Rollbacks, m.StoreErrors, m.CacheHits, m.CacheMisses)
	return m
}

func (m *Metrics) observeError(err error) {
	if m == nil || err == nil {
		return
	}
	kind := ErrorKindUnknown
	if se, ok := err.(*Error); ok {
		kind = se.Kind
	}
	m.StoreErrors.WithLabelValues(kind.String()).Inc()
}
