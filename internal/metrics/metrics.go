package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "prefixtrie"

// Metrics are the operational metrics of the prefix filter.
type Metrics struct {
	// Lookups counts lookups by resulting action.
	Lookups *prometheus.CounterVec
	// Rules is the number of rules currently installed.
	Rules prometheus.Gauge
	// Nodes is the number of live trie nodes.
	Nodes prometheus.Gauge
	// InsertErrors counts rejected insertions by reason.
	InsertErrors *prometheus.CounterVec
}

// New creates the metrics and registers them within the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Number of address lookups by resulting action.",
		}, []string{"action"}),
		Rules: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rules",
			Help:      "Number of installed prefix rules.",
		}),
		Nodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trie_nodes",
			Help:      "Number of live trie nodes.",
		}),
		InsertErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insert_errors_total",
			Help:      "Number of rejected rule insertions by reason.",
		}, []string{"reason"}),
	}
}

// NewNop creates metrics that are not registered anywhere.
func NewNop() *Metrics {
	return New(nil)
}
