package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RentalMetrics counts rental lifecycle transitions.
type RentalMetrics struct {
	created   *prometheus.CounterVec
	returned  *prometheus.CounterVec
	conflicts *prometheus.CounterVec
}

// NewRentalMetrics registers the rental metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewRentalMetrics(reg prometheus.Registerer) *RentalMetrics {
	if reg == nil {
		return &RentalMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bikebuddy_rentals_created_total",
		Help: "Rentals opened, by pricing unit.",
	}, []string{"pricing_unit"})
	returned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bikebuddy_rentals_returned_total",
		Help: "Rentals closed, by the role that performed the return.",
	}, []string{"role"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bikebuddy_rental_conflicts_total",
		Help: "Rental attempts rejected because the bicycle was not available.",
	}, []string{"reason"})
	reg.MustRegister(created, returned, conflicts)
	return &RentalMetrics{
		created:   created,
		returned:  returned,
		conflicts: conflicts,
	}
}

func (m *RentalMetrics) IncCreated(pricingUnit string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(pricingUnit)).Inc()
}

func (m *RentalMetrics) IncReturned(role string) {
	if m == nil || m.returned == nil {
		return
	}
	m.returned.WithLabelValues(normalizeLabel(role)).Inc()
}

// IncConflict records a lost race or an unavailable bicycle.
func (m *RentalMetrics) IncConflict(reason string) {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
