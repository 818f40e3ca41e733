// Package metrics exports Prometheus metrics for layout passes, change
// dispatch, rendering and caching.
//
// The collectors are registered with the default registry on import. [Hooks]
// forwards observability events into them; install it once at startup:
//
//	metrics.Register()
//	http.Handle("/metrics", promhttp.Handler())
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/ddlayout/pkg/observability"
)

var (
	LayoutPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ddlayout_layout_passes_total",
		Help: "Layout passes by outcome (success, unchanged, error, discarded).",
	}, []string{"outcome"})

	LayoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ddlayout_layout_duration_ms",
		Help:    "Layout pass duration in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 1000},
	})

	LayoutGroups = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ddlayout_layout_groups",
		Help: "Visible groups in the last successful layout.",
	})

	LayoutDummies = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ddlayout_layout_dummies",
		Help: "Dummy groups inserted by the last successful layout.",
	})

	LayoutCrossings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ddlayout_layout_crossings",
		Help: "Edge crossings of the last successful layout.",
	})

	ChangeBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ddlayout_change_batches_total",
		Help: "Change batches dispatched by graph hubs.",
	})

	ChangesDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ddlayout_changes_dispatched_total",
		Help: "Individual changes delivered in dispatched batches.",
	})

	Renders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ddlayout_renders_total",
		Help: "Render calls by renderer and status.",
	}, []string{"renderer", "status"})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ddlayout_render_duration_ms",
		Help:    "Render duration in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
	}, []string{"renderer"})

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ddlayout_cache_requests_total",
		Help: "Cache lookups by key type and result (hit, miss).",
	}, []string{"key_type", "result"})

	CacheBytesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ddlayout_cache_bytes_written_total",
		Help: "Bytes written to the cache by key type.",
	}, []string{"key_type"})
)

// Hooks implements every observability hook interface on top of the
// package collectors.
type Hooks struct{}

// Register installs Hooks for all hook categories.
func Register() {
	h := Hooks{}
	observability.SetLayoutHooks(h)
	observability.SetChangeHooks(h)
	observability.SetRenderHooks(h)
	observability.SetCacheHooks(h)
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

func (Hooks) OnLayoutStart(string, int) {}

func (Hooks) OnLayoutComplete(_ string, s observability.LayoutStats, err error) {
	LayoutDuration.Observe(ms(s.Duration))
	switch {
	case err != nil:
		LayoutPasses.WithLabelValues("error").Inc()
		return
	case s.Unchanged:
		LayoutPasses.WithLabelValues("unchanged").Inc()
	default:
		LayoutPasses.WithLabelValues("success").Inc()
	}
	LayoutGroups.Set(float64(s.Groups))
	LayoutDummies.Set(float64(s.Dummies))
	LayoutCrossings.Set(float64(s.Crossings))
}

func (Hooks) OnLayoutDiscarded(string) {
	LayoutPasses.WithLabelValues("discarded").Inc()
}

func (Hooks) OnDispatch(changes, _ int) {
	ChangeBatches.Inc()
	ChangesDispatched.Add(float64(changes))
}

func (Hooks) OnRender(renderer string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	Renders.WithLabelValues(renderer, status).Inc()
	RenderDuration.WithLabelValues(renderer).Observe(ms(d))
}

func (Hooks) OnCacheHit(_ context.Context, keyType string) {
	CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (Hooks) OnCacheMiss(_ context.Context, keyType string) {
	CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	CacheBytesWritten.WithLabelValues(keyType).Add(float64(size))
}

var (
	_ observability.LayoutHooks = Hooks{}
	_ observability.ChangeHooks = Hooks{}
	_ observability.RenderHooks = Hooks{}
	_ observability.CacheHooks  = Hooks{}
)
