package metrics

import "github.com/prometheus/client_golang/prometheus"

// WorkflowMetrics counts domain events across orders, rides, invoices and
// notifications. Every method is safe on a nil receiver.
type WorkflowMetrics struct {
	transitions   *prometheus.CounterVec
	invoices      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	rides         *prometheus.CounterVec
}

func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	m := &WorkflowMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status transitions applied.",
		}, []string{"from", "to"}),
		invoices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_generated_total",
			Help:      "Invoices generated, by the recipient's role.",
		}, []string{"role"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notifications created, by type.",
		}, []string{"type"}),
		rides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rides_total",
			Help:      "Ride status changes, by resulting status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.transitions, m.invoices, m.notifications, m.rides)
	return m
}

func (m *WorkflowMetrics) OrderTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *WorkflowMetrics) InvoiceGenerated(role string) {
	if m == nil || m.invoices == nil {
		return
	}
	m.invoices.WithLabelValues(normalizeLabel(role)).Inc()
}

func (m *WorkflowMetrics) NotificationSent(kind string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *WorkflowMetrics) RideStatus(status string) {
	if m == nil || m.rides == nil {
		return
	}
	m.rides.WithLabelValues(normalizeLabel(status)).Inc()
}
