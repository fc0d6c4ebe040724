package luasched

import "sync"

// exitSlot holds an optional exit code plus the event that wakes the tick
// loop's prioritised wait when one is set (spec.md §3, §4.1).
type exitSlot struct {
	mu   sync.Mutex
	code *int
	wake chan struct{}
}

func newExitSlot() *exitSlot {
	return &exitSlot{wake: make(chan struct{})}
}

// Set records code as the exit code, idempotently closing wake so any
// waiters (including the tick loop's select) observe the request. Only the
// first call has effect, matching "setting transitions the main loop to
// exit requested within one tick" — a second Set does not change the
// already-published code.
func (e *exitSlot) Set(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.code != nil {
		return
	}
	c := code
	e.code = &c
	close(e.wake)
}

// Get returns the exit code and whether one has been set.
func (e *exitSlot) Get() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.code == nil {
		return 0, false
	}
	return *e.code, true
}

// Wake returns the channel that closes once an exit code has been set.
func (e *exitSlot) Wake() <-chan struct{} {
	return e.wake
}
