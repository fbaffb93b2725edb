package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRentalMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRentalMetrics(reg)
	m.IncCreated("day")
	m.IncCreated("day")
	m.IncReturned("customer")
	m.IncConflict("")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "bikebuddy_rentals_created_total", "pricing_unit", "day")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "bikebuddy_rentals_returned_total", "role", "customer")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "bikebuddy_rental_conflicts_total", "reason", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestHTTPMetricsObservesDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("/bicycles/{id}", "GET", 200, 120*time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	sum, err := fetchHistogramSum(mfs, "bikebuddy_http_request_duration_seconds", "route", "/bicycles/{id}")
	require.NoError(t, err)
	assert.Greater(t, sum, 0.0)
}

func TestNilRegistererIsNoop(t *testing.T) {
	var nilMetrics *RentalMetrics
	assert.NotPanics(t, func() {
		nilMetrics.IncCreated("day")
		NewRentalMetrics(nil).IncReturned("admin")
		NewHTTPMetrics(nil).Observe("/", "GET", 200, time.Millisecond)
	})
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
