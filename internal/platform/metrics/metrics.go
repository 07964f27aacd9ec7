package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CacheMetrics counts cache outcomes per named cache (idvp_by_id, idv_claim, ...).
type CacheMetrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	Invalidations *prometheus.CounterVec
	Errors        *prometheus.CounterVec
}

// New registers cache metrics on the default registry.
func New() *CacheMetrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers cache metrics on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *CacheMetrics {
	f := promauto.With(reg)
	return &CacheMetrics{
		Hits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idvmgt_cache_hits_total",
			Help: "Cache lookups served from memory",
		}, []string{"cache"}),
		Misses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idvmgt_cache_misses_total",
			Help: "Cache lookups that fell through to the backing store",
		}, []string{"cache"}),
		Invalidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idvmgt_cache_invalidations_total",
			Help: "Cache entries removed after writes",
		}, []string{"cache"}),
		Errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idvmgt_cache_errors_total",
			Help: "Cache operations that failed and were skipped",
		}, []string{"cache"}),
	}
}

func (m *CacheMetrics) Hit(cache string) {
	if m != nil {
		m.Hits.WithLabelValues(cache).Inc()
	}
}

func (m *CacheMetrics) Miss(cache string) {
	if m != nil {
		m.Misses.WithLabelValues(cache).Inc()
	}
}

func (m *CacheMetrics) Invalidated(cache string, n int) {
	if m != nil && n > 0 {
		m.Invalidations.WithLabelValues(cache).Add(float64(n))
	}
}

func (m *CacheMetrics) Error(cache string) {
	if m != nil {
		m.Errors.WithLabelValues(cache).Inc()
	}
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
