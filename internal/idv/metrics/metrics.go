package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers claim writes, verification calls and consumed user events.
type Metrics struct {
	Operations     *prometheus.CounterVec
	Verifications  *prometheus.CounterVec
	VerifyDuration *prometheus.HistogramVec
	UserEvents     *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idvmgt_idv_claim_operations_total",
			Help: "Claim management operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idvmgt_idv_verifications_total",
			Help: "Identity verification calls by provider type and outcome",
		}, []string{"provider_type", "outcome"}),
		VerifyDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idvmgt_idv_verification_duration_seconds",
			Help:    "Duration of identity verification calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider_type"}),
		UserEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idvmgt_idv_user_events_total",
			Help: "User lifecycle events consumed by type and outcome",
		}, []string{"event_type", "outcome"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *Metrics) RecordOperation(op string, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, outcome(err)).Inc()
}

// ObserveVerification records one verifier call started at start.
func (m *Metrics) ObserveVerification(providerType string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(providerType, outcome(err)).Inc()
	m.VerifyDuration.WithLabelValues(providerType).Observe(time.Since(start).Seconds())
}

// RecordUserEvent counts a handled user event. Skipped events use "ignored".
func (m *Metrics) RecordUserEvent(eventType, result string) {
	if m == nil {
		return
	}
	m.UserEvents.WithLabelValues(eventType, result).Inc()
}
