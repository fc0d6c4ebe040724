package luasched

import (
	"sync"

	"github.com/google/uuid"
)

// Handle is a reference-counted, observable object representing one
// submitted coroutine (spec.md §4.6): it tracks every intermediate and
// final outcome of the coroutine dispatched on its behalf, independent of
// ResultMap tracking.
//
// A Handle's ID is a uuid, stable from the moment of submission — unlike a
// ThreadId, which only exists once the underlying coroutine has been
// created — so hosts can correlate log lines emitted while a Handle is
// still queued with those emitted once it starts running.
type Handle struct {
	ID uuid.UUID

	mu       sync.Mutex
	result   ThreadResult
	hasValue bool
	final    bool
	ready    chan struct{}
}

// newHandle constructs an unresolved Handle.
func newHandle() *Handle {
	return &Handle{
		ID:    uuid.New(),
		ready: make(chan struct{}),
	}
}

// recordStep stores an intermediate or final outcome. Only the call that
// observes the coroutine as no-longer-Resumable sets final and notifies
// Listen; earlier calls (yields with ordinary values, not a Handle
// completion) may overwrite the result cell without notifying, per
// spec.md's "the result cell may be overwritten across intermediate yields
// but only the final assignment notifies".
func (h *Handle) recordStep(result ThreadResult, isFinal bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.final {
		return
	}
	h.result = result
	h.hasValue = true
	if isFinal {
		h.final = true
		close(h.ready)
	}
}

// Result returns the currently stored outcome, if any.
func (h *Handle) Result() (ThreadResult, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.hasValue
}

// Final reports whether the Handle has reached a terminal outcome.
func (h *Handle) Final() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.final
}

// Listen returns a channel that closes once the Handle reaches its final
// outcome. If already final, the returned channel is already closed.
func (h *Handle) Listen() <-chan struct{} {
	return h.ready
}
