package luasched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCallbackSlotSetAndInvoke(t *testing.T) {
	state := newRuntimeState()
	slot := newErrorCallbackSlot(state, nil)

	var got *CoroutineError
	slot.Set(func(err *CoroutineError) { got = err })

	cerr := &CoroutineError{Message: "x"}
	slot.Invoke(cerr)
	assert.Same(t, cerr, got)

	slot.Clear()
	got = nil
	slot.Invoke(cerr)
	assert.Nil(t, got)
}

func TestErrorCallbackSlotPanicsWhileRunning(t *testing.T) {
	state := newRuntimeState()
	state.Store(Running)
	slot := newErrorCallbackSlot(state, nil)
	assert.Panics(t, func() {
		slot.Set(func(*CoroutineError) {})
	})
}

func TestDefaultErrorCallbackLogsUncaughtError(t *testing.T) {
	var logged LogEntry
	logger := LoggerFunc(func(entry LogEntry) { logged = entry })
	cb := defaultErrorCallback(logger)

	cerr := &CoroutineError{Thread: ThreadId{id: "t"}, Message: "boom"}
	cb(cerr)

	assert.Equal(t, "error-callback", logged.Category)
	assert.Equal(t, cerr, logged.Err)
}
