package luasched

import "sync"

// ErrorCallback observes an uncaught coroutine error (spec.md §4.5). It
// must not itself raise or panic; a Runtime treats a panicking callback as
// a programmer error and does not recover it.
type ErrorCallback func(*CoroutineError)

// errorCallbackSlot holds at most one ErrorCallback, replaceable only while
// the owning Runtime is not Running (spec.md §4.5). A single mutex guards
// both replacement and the read in Invoke.
type errorCallbackSlot struct {
	mu    sync.Mutex
	cb    ErrorCallback
	state *runtimeState
}

func newErrorCallbackSlot(state *runtimeState, initial ErrorCallback) *errorCallbackSlot {
	return &errorCallbackSlot{cb: initial, state: state}
}

// Set installs cb, replacing any previous callback. It panics if the
// Runtime is currently Running, per spec.md's lifecycle-error policy.
func (s *errorCallbackSlot) Set(cb ErrorCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Load() == Running {
		panic("luasched: SetErrorCallback called while Runtime is Running")
	}
	s.cb = cb
}

// Clear removes any installed callback. Subsequent uncaught errors are
// silently dropped, save for the default stderr logger writing the entry
// at the logging layer.
func (s *errorCallbackSlot) Clear() {
	s.Set(nil)
}

// Invoke calls the installed callback, if any, with err. It is invoked
// from the tick loop and does not recover panics: a callback that panics is
// a programmer error and the panic propagates out of the loop, matching
// spec.md's "fail loudly" misuse policy.
func (s *errorCallbackSlot) Invoke(err *CoroutineError) {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

// defaultErrorCallback logs err via the supplied Logger at error level,
// matching spec.md's "default implementation writes the error to the
// standard error stream" — generalized to the structured Logger contract
// so embedders that redirect logging also catch default-path errors.
func defaultErrorCallback(logger Logger) ErrorCallback {
	return func(err *CoroutineError) {
		logger.Log(LogEntry{
			Category: "error-callback",
			Message:  "uncaught coroutine error",
			Thread:   err.Thread,
			Err:      err,
		})
	}
}
