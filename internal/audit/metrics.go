package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the audit capture counters. A nil *Metrics records nothing.
type Metrics struct {
	Rows             *prometheus.CounterVec
	Discarded        prometheus.Counter
	DeferredFailures prometheus.Counter
}

// NewMetrics creates and registers the audit counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Rows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docstore_audit_rows_total",
			Help: "Total number of audit rows committed, by commit phase",
		}, []string{"phase"}),
		Discarded: f.NewCounter(prometheus.CounterOpts{
			Name: "docstore_audit_entries_discarded_total",
			Help: "Total number of audit entries discarded because nothing audited changed",
		}),
		DeferredFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "docstore_audit_deferred_failures_total",
			Help: "Total number of saves whose business data committed without their deferred audit rows",
		}),
	}
}

func (m *Metrics) rowsCommitted(phase string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Rows.WithLabelValues(phase).Add(float64(n))
}

func (m *Metrics) entryDiscarded() {
	if m == nil {
		return
	}
	m.Discarded.Inc()
}

func (m *Metrics) deferredFailed() {
	if m == nil {
		return
	}
	m.DeferredFailures.Inc()
}
