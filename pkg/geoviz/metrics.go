package geoviz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records render activity in Prometheus.
type Metrics struct {
	renderDuration prometheus.Histogram
	features       *prometheus.CounterVec
	candidates     prometheus.Histogram
	cache          *prometheus.CounterVec
}

// NewMetrics registers the render metrics with reg.
// Registering twice with the same registry panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		renderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "geoviz_render_duration_seconds",
			Help:    "Wall time of one render pass.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		features: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geoviz_render_features_total",
			Help: "Features processed by render, by outcome.",
		}, []string{"outcome"}),
		candidates: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "geoviz_index_candidates",
			Help:    "Features returned by the spatial index per render.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geoviz_simplify_cache_total",
			Help: "Simplify cache lookups, by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) observeFrame(elapsed time.Duration, candidates, drawn, dropped int) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(elapsed.Seconds())
	m.candidates.Observe(float64(candidates))
	m.features.WithLabelValues("drawn").Add(float64(drawn))
	m.features.WithLabelValues("dropped").Add(float64(dropped))
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cache.WithLabelValues("hit").Inc()
	} else {
		m.cache.WithLabelValues("miss").Inc()
	}
}
