package metrics

import "github.com/prometheus/client_golang/prometheus"

// MessagingMetrics exposes counters/histograms for the WhatsApp flows.
type MessagingMetrics struct {
	inboundTotal    *prometheus.CounterVec
	outboundTotal   *prometheus.CounterVec
	webhookLatency  *prometheus.HistogramVec
	calendarTotal   *prometheus.CounterVec
	calendarLatency *prometheus.HistogramVec
	extractionTotal *prometheus.CounterVec
}

func NewMessagingMetrics(reg prometheus.Registerer) *MessagingMetrics {
	m := &MessagingMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "messaging",
			Name:      "inbound_total",
			Help:      "Inbound WhatsApp messages by classified intent",
		}, []string{"intent"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Outbound deliveries by kind and status",
		}, []string{"kind", "status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scheduler",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		calendarTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "calendar",
			Name:      "requests_total",
			Help:      "Calendar provider calls by operation and status",
		}, []string{"op", "status"}),
		calendarLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scheduler",
			Subsystem: "calendar",
			Name:      "request_latency_seconds",
			Help:      "Latency of calendar provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		extractionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "extraction",
			Name:      "requests_total",
			Help:      "Natural-language extraction attempts by backend and status",
		}, []string{"backend", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.webhookLatency, m.calendarTotal, m.calendarLatency, m.extractionTotal)
	return m
}

func (m *MessagingMetrics) ObserveInbound(intent string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(intent).Inc()
}

func (m *MessagingMetrics) ObserveOutbound(kind string, err error) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(kind, statusLabel(err)).Inc()
}

func (m *MessagingMetrics) ObserveWebhookLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(status).Observe(seconds)
}

// ObserveCalendar records one calendar provider round-trip.
func (m *MessagingMetrics) ObserveCalendar(op string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.calendarTotal.WithLabelValues(op, statusLabel(err)).Inc()
	m.calendarLatency.WithLabelValues(op).Observe(seconds)
}

func (m *MessagingMetrics) ObserveExtraction(backend string, err error) {
	if m == nil {
		return
	}
	m.extractionTotal.WithLabelValues(backend, statusLabel(err)).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
