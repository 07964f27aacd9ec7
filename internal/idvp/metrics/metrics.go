package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for provider management.
// Tracks writes by outcome and the duration of provider reads.
type Metrics struct {
	Operations   *prometheus.CounterVec
	GetDuration  prometheus.Histogram
	ListDuration prometheus.Histogram
}

// New creates provider metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idvmgt_idvp_operations_total",
			Help: "Provider management operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		GetDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "idvmgt_idvp_get_duration_seconds",
			Help:    "Duration of provider reads including secret resolution",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ListDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "idvmgt_idvp_list_duration_seconds",
			Help:    "Duration of provider listing",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// RecordOperation counts an operation as "success" or "error".
func (m *Metrics) RecordOperation(op string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.Operations.WithLabelValues(op, outcome).Inc()
}

// ObserveGet records the duration of a Get operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGet(start time.Time) {
	if m != nil {
		m.GetDuration.Observe(time.Since(start).Seconds())
	}
}

// ObserveList records the duration of a List operation.
func (m *Metrics) ObserveList(start time.Time) {
	if m != nil {
		m.ListDuration.Observe(time.Since(start).Seconds())
	}
}
