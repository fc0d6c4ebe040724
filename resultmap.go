package luasched

import (
	"sync"

	"github.com/luasched/luasched/luavm"
)

// ThreadResult is a tracked coroutine's final outcome: either the values it
// returned, or the error it raised (spec.md §3).
type ThreadResult struct {
	OK     bool
	Values []luavm.Value
	Err    error
}

// resultEntry pairs a stored ThreadResult with the event that
// WaitForThread waits on, so the event can be closed exactly once when the
// result is written.
type resultEntry struct {
	result ThreadResult
	ready  chan struct{}
}

// ResultMap maps tracked ThreadIds to their final outcome (spec.md §3,
// §4.4, §8). Only tracked ids receive inserts; Insert asserts tracking.
// Removal (Take) returns the result and clears tracking, matching spec.md's
// "result retrieval is destructive".
type ResultMap struct {
	mu      sync.Mutex
	tracked map[ThreadId]*resultEntry
	done    map[ThreadId]bool
}

func newResultMap() *ResultMap {
	return &ResultMap{
		tracked: make(map[ThreadId]*resultEntry),
		done:    make(map[ThreadId]bool),
	}
}

// Track marks id as tracked. It is idempotent.
func (m *ResultMap) Track(id ThreadId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tracked[id]; !ok {
		m.tracked[id] = &resultEntry{ready: make(chan struct{})}
	}
}

// IsTracked reports whether id is currently tracked (inserted or not).
func (m *ResultMap) IsTracked(id ThreadId) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tracked[id]
	return ok
}

// Insert records id's final result. It panics if id was never tracked,
// matching spec.md's "inserts assert tracking" — this is a scheduler-
// internal invariant violation, not a condition a caller can trigger
// directly.
func (m *ResultMap) Insert(id ThreadId, result ThreadResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.tracked[id]
	if !ok {
		panic("luasched: Insert on untracked thread id")
	}
	entry.result = result
	m.done[id] = true
	close(entry.ready)
}

// Take removes and returns id's result if it has completed. The second
// return reports whether a completed result was present; result retrieval
// is destructive, so a second Take for the same id returns ok == false.
func (m *ResultMap) Take(id ThreadId) (ThreadResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.done[id] {
		return ThreadResult{}, false
	}
	entry := m.tracked[id]
	delete(m.tracked, id)
	delete(m.done, id)
	return entry.result, true
}

// Peek returns id's result if it has completed, without removing it — so a
// subsequent Take or Peek for the same id still observes it. Used by
// WaitForThread, which must resolve iff GetThreadResult would return a
// result at that moment, without itself consuming it.
func (m *ResultMap) Peek(id ThreadId) (ThreadResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.done[id] {
		return ThreadResult{}, false
	}
	return m.tracked[id].result, true
}

// Wait returns a channel that closes once id's result is available. If id
// is not tracked at all, the returned channel is nil and ok is false.
func (m *ResultMap) Wait(id ThreadId) (ch <-chan struct{}, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, tracked := m.tracked[id]
	if !tracked {
		return nil, false
	}
	return entry.ready, true
}

// TrackedCount reports how many ids are currently tracked, used for
// metrics and the "lots of threads" resource-release invariant in tests.
func (m *ResultMap) TrackedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracked)
}
