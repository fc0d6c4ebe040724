package luasched

import "github.com/luasched/luasched/luavm"

// Submit implements the higher-level submission path that returns a Handle
// (spec.md §4.6): resolve target to a coroutine, register a Handle for its
// ThreadId, and enqueue it onto the Defer queue. The Handle observes every
// subsequent step of the coroutine via notifyHandle, starting with the
// tick loop's first dispatch of this entry.
func (rt *Runtime) Submit(target luavm.Value, args []luavm.Value) (*Handle, error) {
	co, err := rt.resolveTarget(target)
	if err != nil {
		return nil, err
	}
	id := threadIDOf(co)
	h := newHandle()
	rt.handles.Register(id, h)

	if !co.Resumable() {
		return h, nil
	}
	rt.deferQ.Push(newSlot(rt.vm, co, args))
	return h, nil
}

// notifyHandle forwards a step's outcome to the Handle registered for id,
// if any, and de-registers it once final. Called from every path that
// steps a coroutine (dispatch, resumeOnce) so a Handle observes all of its
// coroutine's steps regardless of which queue dispatched them.
func (rt *Runtime) notifyHandle(id ThreadId, result ThreadResult, final bool) {
	h, ok := rt.handles.Lookup(id)
	if !ok {
		return
	}
	h.recordStep(result, final)
	if final {
		rt.handles.Forget(id)
	}
}
