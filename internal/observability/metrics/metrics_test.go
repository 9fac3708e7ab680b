package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagingMetricsObserve(t *testing.T) {
	m := NewMessagingMetrics(prometheus.NewRegistry())
	m.ObserveInbound("booking")
	m.ObserveOutbound("reply", nil)
	m.ObserveWebhookLatency("ok", 0.5)
	m.ObserveCalendar("list", 0.2, nil)
	m.ObserveExtraction("rules", errors.New("boom"))
}

func TestMessagingMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMessagingMetrics(reg)
	m.ObserveOutbound("reply", errors.New("twilio down"))
	m.ObserveOutbound("reply", nil)
	m.ObserveCalendar("delete", 0.1, errors.New("gone"))

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]*dto.MetricFamily{}
	for _, f := range families {
		byName[f.GetName()] = f
	}

	outbound := byName["scheduler_messaging_outbound_total"]
	require.NotNil(t, outbound)
	assert.Len(t, outbound.GetMetric(), 2)

	calendar := byName["scheduler_calendar_requests_total"]
	require.NotNil(t, calendar)
	require.Len(t, calendar.GetMetric(), 1)
	labels := map[string]string{}
	for _, l := range calendar.GetMetric()[0].GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	assert.Equal(t, map[string]string{"op": "delete", "status": "error"}, labels)
	assert.Equal(t, float64(1), calendar.GetMetric()[0].GetCounter().GetValue())
}

func TestMessagingMetricsNilSafe(t *testing.T) {
	var m *MessagingMetrics
	m.ObserveInbound("forward")
	m.ObserveOutbound("reply", nil)
	m.ObserveWebhookLatency("ok", 0.1)
	m.ObserveCalendar("insert", 0.1, nil)
	m.ObserveExtraction("gemini", nil)
}
