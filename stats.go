package luasched

import "sync/atomic"

// Stats is a point-in-time snapshot of Runtime activity, cheap to read
// without linking the optional Prometheus collector (metrics.go).
type Stats struct {
	Ticks            uint64
	ThreadsResumed   uint64
	ThreadsCompleted uint64
	ThreadsErrored   uint64
}

// runtimeStats holds the atomic counters backing Stats.
type runtimeStats struct {
	ticks            atomic.Uint64
	threadsResumed   atomic.Uint64
	threadsCompleted atomic.Uint64
	threadsErrored   atomic.Uint64
}

func newRuntimeStats() *runtimeStats {
	return &runtimeStats{}
}

func (s *runtimeStats) onTick() {
	s.ticks.Add(1)
}

func (s *runtimeStats) onResume() {
	s.threadsResumed.Add(1)
}

func (s *runtimeStats) onCompleted() {
	s.threadsCompleted.Add(1)
}

func (s *runtimeStats) onErrored() {
	s.threadsErrored.Add(1)
}

func (s *runtimeStats) snapshot() Stats {
	return Stats{
		Ticks:            s.ticks.Load(),
		ThreadsResumed:   s.threadsResumed.Load(),
		ThreadsCompleted: s.threadsCompleted.Load(),
		ThreadsErrored:   s.threadsErrored.Load(),
	}
}

// Stats returns a snapshot of the Runtime's cumulative activity counters.
// Unlike the Prometheus collectors from Collectors, this is always
// available regardless of WithMetrics.
func (rt *Runtime) Stats() Stats {
	return rt.stats.snapshot()
}
