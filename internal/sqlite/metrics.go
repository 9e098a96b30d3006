package sqlite

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus collectors of one backend.
type metrics struct {
	saved          *prometheus.CounterVec
	pinnedOnline   prometheus.Counter
	deleted        prometheus.Counter
	listsCreated   prometheus.Counter
	columnsAdded   prometheus.Counter
	rollbacks      prometheus.Counter
	rebuildSeconds prometheus.Histogram
}

// Outcomes recorded by the saved counter.
const (
	outcomeInserted = "inserted"
	outcomeMerged   = "merged"
)

func newMetrics() *metrics {
	buckets := []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}
	return &metrics{
		saved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entities_saved_total",
			Help: "Entities written by Save, by outcome (inserted or merged).",
		}, []string{"outcome"}),
		pinnedOnline: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entities_pinned_online_total",
			Help: "Merges where an offline save was kept online because the stored entity was online.",
		}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entities_deleted_total",
			Help: "Rows removed by Delete across all lists.",
		}),
		listsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entities_lists_created_total",
			Help: "Lists registered and given a backing table.",
		}),
		columnsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entities_property_columns_added_total",
			Help: "Property columns added to list tables.",
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entities_transaction_rollbacks_total",
			Help: "Mutating transactions that were rolled back.",
		}),
		rebuildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "entities_index_rebuild_seconds",
			Help:    "Duration of the ordinal index rebuild over all lists.",
			Buckets: buckets,
		}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.saved, m.pinnedOnline, m.deleted, m.listsCreated,
		m.columnsAdded, m.rollbacks, m.rebuildSeconds,
	}
}

// register adds every collector to r and joins any registration errors.
func (m *metrics) register(r prometheus.Registerer) error {
	var errs []error
	for _, c := range m.collectors() {
		if err := r.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
