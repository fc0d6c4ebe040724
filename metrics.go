package luasched

import "github.com/prometheus/client_golang/prometheus"

// runtimeMetrics is the optional Prometheus instrumentation for a Runtime,
// enabled with WithMetrics (spec.md §5 resource model, SPEC_FULL.md §3
// domain stack). When disabled, all methods are no-ops so the tick loop
// never pays the cost of maintaining gauge state it isn't exporting.
type runtimeMetrics struct {
	enabled bool

	ticks          prometheus.Counter
	trackedThreads prometheus.Gauge
	coroutineErrs  prometheus.Counter
	spawnDepth     prometheus.Gauge
	deferDepth     prometheus.Gauge
	futuresDepth   prometheus.Gauge
}

func newRuntimeMetrics(enabled bool) *runtimeMetrics {
	m := &runtimeMetrics{enabled: enabled}
	if !enabled {
		return m
	}
	m.ticks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "luasched",
		Name:      "ticks_total",
		Help:      "Number of tick loop iterations executed.",
	})
	m.trackedThreads = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "luasched",
		Name:      "tracked_threads",
		Help:      "Number of thread ids currently tracked in the result map.",
	})
	m.coroutineErrs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "luasched",
		Name:      "coroutine_errors_total",
		Help:      "Number of uncaught coroutine errors observed.",
	})
	m.spawnDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "luasched",
		Name:      "spawn_queue_depth",
		Help:      "Current depth of the spawn (push-front) queue.",
	})
	m.deferDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "luasched",
		Name:      "defer_queue_depth",
		Help:      "Current depth of the defer (push-back) queue.",
	})
	m.futuresDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "luasched",
		Name:      "futures_queue_depth",
		Help:      "Current depth of the local futures queue.",
	})
	return m
}

// Collectors returns the Prometheus collectors to register, or nil if
// metrics were not enabled.
func (m *runtimeMetrics) Collectors() []prometheus.Collector {
	if !m.enabled {
		return nil
	}
	return []prometheus.Collector{
		m.ticks, m.trackedThreads, m.coroutineErrs,
		m.spawnDepth, m.deferDepth, m.futuresDepth,
	}
}

func (m *runtimeMetrics) onTick() {
	if m.enabled {
		m.ticks.Inc()
	}
}

func (m *runtimeMetrics) onCoroutineError() {
	if m.enabled {
		m.coroutineErrs.Inc()
	}
}

func (m *runtimeMetrics) observeDepths(spawn, defer_, futures, tracked int) {
	if !m.enabled {
		return
	}
	m.spawnDepth.Set(float64(spawn))
	m.deferDepth.Set(float64(defer_))
	m.futuresDepth.Set(float64(futures))
	m.trackedThreads.Set(float64(tracked))
}
