package explorer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "leapflow"

// Metrics counts the work the explorer does. Builds and highlight
// projections are tracked separately so rebuild-vs-restyle behavior is
// observable from /metrics.
type Metrics struct {
	Builds      prometheus.Counter
	Projections prometheus.Counter
	Layouts     prometheus.Counter
	Loads       *prometheus.CounterVec
	Warnings    prometheus.Counter
	Nodes       prometheus.Gauge
	Links       prometheus.Gauge
}

// NewMetrics registers the explorer metrics on reg. A nil reg uses a
// private registry, which keeps tests and multiple explorers apart.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		Builds: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "graph",
			Name:      "builds_total",
			Help:      "Graph rebuilds caused by a fingerprint change",
		}),
		Projections: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "graph",
			Name:      "highlight_projections_total",
			Help:      "Highlight projections (restyles without rebuild included)",
		}),
		Layouts: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "graph",
			Name:      "layouts_total",
			Help:      "Layout passes",
		}),
		Loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "source",
			Name:      "loads_total",
			Help:      "Record table loads by result",
		}, []string{"result"}),
		Warnings: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "selection",
			Name:      "miscomputed_total",
			Help:      "Selections that resolved to nothing",
		}),
		Nodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Nodes in the current graph",
		}),
		Links: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "graph",
			Name:      "links",
			Help:      "Links in the current graph",
		}),
	}
}

// Load results.
const (
	loadOK         = "ok"
	loadCached     = "cached"
	loadError      = "error"
	loadSuperseded = "superseded"
	loadInvalid    = "invalid"
)
