package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestAdapterMetricsObserve(t *testing.T) {
	m := NewAdapterMetrics(prometheus.NewRegistry())
	m.ObserveInbound("form", "ok")
	m.ObserveCallback("sent")
	m.ObserveWebhookLatency("form", 0.5)
}

func TestAdapterMetricsNilReceiver(t *testing.T) {
	var m *AdapterMetrics
	m.ObserveInbound("form", "ok")
	m.ObserveCallback("failed")
	m.ObserveWebhookLatency("json", 0.1)
}
