// internal/app/system/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for reconciliation passes and review actions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Reconciliation pass latency, by outcome
	PassLatency *prometheus.HistogramVec

	// Source documents read per pass, by collection
	SourceDocuments *prometheus.GaugeVec

	// Items in the last full pass, by role and status
	QueueItems *prometheus.GaugeVec

	// Items dropped by the display-name filter
	DroppedItems prometheus.Counter

	// Review actions, by action and result
	Transitions *prometheus.CounterVec

	// Review actions that stopped after the first write, by failing step
	PartialWrites *prometheus.CounterVec
}

// New registers the metrics with reg. Pass prometheus.NewRegistry() in tests
// to keep registrations isolated.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PassLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pabili_reconcile_pass_duration_seconds",
			Help:    "Duration of a reconciliation pass over all verification sources",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"outcome"}), // outcome: "ok", "error"

		SourceDocuments: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pabili_reconcile_source_documents",
			Help: "Documents read from each source collection by the last pass",
		}, []string{"collection"}),

		QueueItems: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pabili_verification_queue_items",
			Help: "Deduplicated verification items by role and status after the last pass",
		}, []string{"role", "status"}),

		DroppedItems: f.NewCounter(prometheus.CounterOpts{
			Name: "pabili_reconcile_dropped_items_total",
			Help: "Items dropped because no display name could be resolved",
		}),

		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pabili_verification_transitions_total",
			Help: "Review actions by action and result",
		}, []string{"action", "result"}), // result: "ok", "resumed", "invalid", "not_found", "unauthorized", "partial", "error"

		PartialWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pabili_verification_partial_writes_total",
			Help: "Review actions left part-applied, by the step that failed",
		}, []string{"step"}),
	}
}

// ObservePass records one reconciliation pass.
func (m *Metrics) ObservePass(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.PassLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

// SetSourceDocuments records how many documents a source collection held.
func (m *Metrics) SetSourceDocuments(collection string, n int) {
	if m != nil {
		m.SourceDocuments.WithLabelValues(collection).Set(float64(n))
	}
}

// SetQueueItems records the item count for a role and status.
func (m *Metrics) SetQueueItems(role, status string, n int) {
	if m != nil {
		m.QueueItems.WithLabelValues(role, status).Set(float64(n))
	}
}

// AddDropped records items dropped by the display-name filter.
func (m *Metrics) AddDropped(n int) {
	if m != nil && n > 0 {
		m.DroppedItems.Add(float64(n))
	}
}

// IncrementTransition records a review action result.
func (m *Metrics) IncrementTransition(action, result string) {
	if m != nil {
		m.Transitions.WithLabelValues(action, result).Inc()
	}
}

// IncrementPartialWrite records a review action left part-applied.
func (m *Metrics) IncrementPartialWrite(step string) {
	if m != nil {
		m.PartialWrites.WithLabelValues(step).Inc()
	}
}
