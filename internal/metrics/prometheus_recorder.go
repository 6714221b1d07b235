package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "intervald"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	ticks          *prom.CounterVec
	cues           *prom.CounterVec
	runOutcomes    *prom.CounterVec
	effectFailures *prom.CounterVec
	wakeLockHeld   prom.Gauge
	subscribers    prom.Gauge
	runDuration    prom.Histogram
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		ticks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Ticks applied by the engine, by phase before the tick",
		}, []string{"phase"}),
		cues: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cues_total",
			Help:      "Cues emitted by kind",
		}, []string{"kind"}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Run lifecycle transitions",
		}, []string{"outcome"}),
		effectFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Failed side effects (cues, wake lock, persistence)",
		}, []string{"effect"}),
		wakeLockHeld: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "wake_lock_held",
			Help:      "1 while the stay-awake inhibitor is held",
		}),
		subscribers: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Active state subscribers",
		}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of completed runs, pauses included",
			Buckets:   []float64{60, 300, 600, 1200, 1800, 3600, 7200},
		}),
	}
	reg.MustRegister(pr.ticks, pr.cues, pr.runOutcomes, pr.effectFailures, pr.wakeLockHeld, pr.subscribers, pr.runDuration)
	return pr
}

func (p *PrometheusRecorder) IncTick(phase string) {
	if p == nil {
		return
	}
	p.ticks.WithLabelValues(phase).Inc()
}

func (p *PrometheusRecorder) IncCue(kind string) {
	if p == nil {
		return
	}
	p.cues.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncSideEffectFailure(effect string) {
	if p == nil {
		return
	}
	p.effectFailures.WithLabelValues(effect).Inc()
}

func (p *PrometheusRecorder) SetWakeLockHeld(held bool) {
	if p == nil {
		return
	}
	if held {
		p.wakeLockHeld.Set(1)
		return
	}
	p.wakeLockHeld.Set(0)
}

func (p *PrometheusRecorder) SetSubscribers(n int) {
	if p == nil {
		return
	}
	p.subscribers.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

// HTTPHandler serves the metrics gathered by reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
