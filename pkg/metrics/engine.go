package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics counts stock movements and order lifecycle activity.
type EngineMetrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	movements   *prometheus.CounterVec
	units       *prometheus.CounterVec
	drift       *prometheus.GaugeVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_order_transitions_total",
		Help: "Applied order status transitions.",
	}, []string{"from", "to"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_order_transitions_rejected_total",
		Help: "Rejected order status transitions by error code.",
	}, []string{"to", "reason"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_ledger_entries_total",
		Help: "Ledger entries appended by movement type.",
	}, []string{"type"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_ledger_units_total",
		Help: "Stock units moved by movement type.",
	}, []string{"type"})
	drift := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stockledger_stock_drift_units",
		Help: "Last observed difference between cached and ledger-derived stock.",
	}, []string{"product_id"})
	reg.MustRegister(transitions, rejections, movements, units, drift)
	return &EngineMetrics{
		transitions: transitions,
		rejections:  rejections,
		movements:   movements,
		units:       units,
		drift:       drift,
	}
}

func (m *EngineMetrics) ObserveTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *EngineMetrics) ObserveRejection(to, reason string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(to), normalizeLabel(reason)).Inc()
}

// ObserveMovement records one appended ledger entry of the given type and quantity.
func (m *EngineMetrics) ObserveMovement(movementType string, quantity int64) {
	if m == nil || m.movements == nil {
		return
	}
	label := normalizeLabel(movementType)
	m.movements.WithLabelValues(label).Inc()
	if quantity > 0 {
		m.units.WithLabelValues(label).Add(float64(quantity))
	}
}

// SetDrift records cached minus derived stock for a product.
func (m *EngineMetrics) SetDrift(productID string, drift int64) {
	if m == nil || m.drift == nil {
		return
	}
	m.drift.WithLabelValues(normalizeLabel(productID)).Set(float64(drift))
}
