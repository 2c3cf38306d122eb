package metrics

import "github.com/prometheus/client_golang/prometheus"

// AdapterMetrics exposes counters/histograms for the webhook adapter flows.
type AdapterMetrics struct {
	inboundTotal   *prometheus.CounterVec
	callbackTotal  *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewAdapterMetrics(reg prometheus.Registerer) *AdapterMetrics {
	m := &AdapterMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whatsapp_adapter",
			Subsystem: "webhook",
			Name:      "inbound_total",
			Help:      "Total inbound webhook requests",
		}, []string{"dialect", "outcome"}),
		callbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whatsapp_adapter",
			Subsystem: "delivery",
			Name:      "callback_total",
			Help:      "Total outbound gateway callback attempts",
		}, []string{"outcome"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "whatsapp_adapter",
			Subsystem: "webhook",
			Name:      "latency_seconds",
			Help:      "Latency of webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"dialect"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.callbackTotal, m.webhookLatency)
	return m
}

func (m *AdapterMetrics) ObserveInbound(dialect, outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(dialect, outcome).Inc()
}

func (m *AdapterMetrics) ObserveCallback(outcome string) {
	if m == nil {
		return
	}
	m.callbackTotal.WithLabelValues(outcome).Inc()
}

func (m *AdapterMetrics) ObserveWebhookLatency(dialect string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(dialect).Observe(seconds)
}
