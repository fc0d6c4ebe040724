package luasched

import "github.com/luasched/luasched/luavm"

// resolveTarget accepts either an already-constructed Coroutine or a plain
// function value and returns a Coroutine, wrapping the function if
// necessary (spec.md §4.2 "If given a function, wrap it into a fresh
// coroutine").
func (rt *Runtime) resolveTarget(target luavm.Value) (luavm.Coroutine, error) {
	if co, ok := rt.vm.AsCoroutine(target); ok {
		return co, nil
	}
	if !rt.vm.IsFunction(target) {
		return nil, &SubmissionError{Op: "resolveTarget", Cause: errNotCallable}
	}
	co, err := rt.vm.NewCoroutineFromFunction(target)
	if err != nil {
		return nil, &SubmissionError{Op: "NewCoroutineFromFunction", Cause: err}
	}
	return co, nil
}

var errNotCallable = errNotCallableType{}

type errNotCallableType struct{}

func (errNotCallableType) Error() string {
	return "value is neither a coroutine nor a function"
}

// resumeOutcome is the coroutine.resume-shaped result of a single step:
// ok mirrors Lua's first resume return; Values is present iff ok and the
// step did not suspend on the pending sentinel; Err is set iff the step
// raised.
type resumeOutcome struct {
	OK     bool
	Values []luavm.Value
	Err    error
}

// resumeOnce steps co once with args, handling the tracked-result bookkeeping
// and error-callback forwarding shared by Spawn (§4.2) and Resume (§4.3). A
// pending-sentinel yield is never re-enqueued here — like dispatch's own
// resume step, it leaves the coroutine suspended and tracked only via
// outstanding, so the only way it continues is a later external Resume call
// (e.g. a host-async completion delivered through SpawnLocal). Requeuing it
// here as well would drive the coroutine a second time with stale args
// before that real continuation arrives.
func (rt *Runtime) resumeOnce(co luavm.Coroutine, args []luavm.Value) resumeOutcome {
	id := threadIDOf(co)
	rt.outstanding.Remove(id)
	tracked := rt.results.IsTracked(id)
	step := rt.stepCoroutine(co, args)
	switch step.Outcome {
	case luavm.Errored:
		cerr := &CoroutineError{Thread: id, Cause: step.Err}
		if tracked {
			rt.results.Insert(id, ThreadResult{Err: cerr})
		}
		rt.errCB.Invoke(cerr)
		rt.metrics.onCoroutineError()
		rt.stats.onErrored()
		rt.recentErrs.record(cerr)
		rt.notifyHandle(id, ThreadResult{Err: cerr}, true)
		return resumeOutcome{OK: false, Err: step.Err}
	case luavm.Yielded:
		if rt.vm.IsPending(firstOrNil(step.Values)) {
			rt.outstanding.Add(id)
			rt.notifyHandle(id, ThreadResult{OK: true}, false)
			return resumeOutcome{OK: true}
		}
		rt.notifyHandle(id, ThreadResult{OK: true, Values: step.Values}, false)
		return resumeOutcome{OK: true, Values: step.Values}
	default: // luavm.Returned
		if tracked {
			rt.results.Insert(id, ThreadResult{OK: true, Values: step.Values})
		}
		rt.stats.onCompleted()
		rt.notifyHandle(id, ThreadResult{OK: true, Values: step.Values}, true)
		return resumeOutcome{OK: true, Values: step.Values}
	}
}

// Spawn implements the script- and host-facing spawn operation (spec.md
// §4.2): resolve target to a coroutine, and if Resumable, resume it once
// immediately. A pending suspension leaves the coroutine suspended (tracked
// via outstanding) until an external Resume call continues it; anything else
// completes the resume and, if tracked, records the outcome.
func (rt *Runtime) Spawn(target luavm.Value, args []luavm.Value) (luavm.Coroutine, error) {
	co, err := rt.resolveTarget(target)
	if err != nil {
		return nil, err
	}
	if !co.Resumable() {
		return co, nil
	}
	rt.resumeOnce(co, args)
	return co, nil
}

// Defer implements the script- and host-facing defer operation (spec.md
// §4.2): resolve target to a coroutine and, if Resumable, enqueue it onto
// the Defer queue without resuming — "yield to other work first".
func (rt *Runtime) Defer(target luavm.Value, args []luavm.Value) (luavm.Coroutine, error) {
	co, err := rt.resolveTarget(target)
	if err != nil {
		return nil, err
	}
	if !co.Resumable() {
		return co, nil
	}
	rt.deferQ.Push(newSlot(rt.vm, co, args))
	return co, nil
}

// Cancel implements spec.md §4.2's cancel operation. Cancelling an already
// inactive coroutine is treated as success, matching the "cancellation of
// inactive is benign" policy (spec.md §7).
func (rt *Runtime) Cancel(co luavm.Coroutine) error {
	if !co.Resumable() {
		return nil
	}
	return co.Close()
}

// Resume implements spec.md §4.3's pending-sentinel protocol, the
// script-facing `resume(t, ...)` function and the mechanism by which an
// external async completion (e.g. a timer firing) continues a coroutine
// that previously suspended on a host await. A pending suspension leaves the
// coroutine suspended (tracked via outstanding); it is not requeued, since
// the only thing that should drive it further is another external Resume.
func (rt *Runtime) Resume(co luavm.Coroutine, args []luavm.Value) ([]luavm.Value, bool, error) {
	if !co.Resumable() {
		return nil, false, nil
	}
	out := rt.resumeOnce(co, args)
	return out.Values, out.OK, out.Err
}

// Wrap implements spec.md §4.2's wrap operation: produces a HostFunc that,
// when called, behaves like coroutine.wrap but routes every continuation
// through Resume so a host-async yield inside the wrapped body never
// bubbles the pending sentinel to calling script code.
func (rt *Runtime) Wrap(fn luavm.Value) (luavm.HostFunc, error) {
	co, err := rt.resolveTarget(fn)
	if err != nil {
		return nil, err
	}
	return func(args []luavm.Value) ([]luavm.Value, error) {
		values, ok, err := rt.Resume(co, args)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &CoroutineError{Thread: threadIDOf(co)}
		}
		return values, nil
	}, nil
}

// Exit implements the host half of spec.md §6.3's `exit([code])`: set the
// exit code. The script stub that both calls this and yields the caller's
// coroutine lives at the VM-binding layer, since only VM code can suspend
// the calling coroutine atomically with this call.
func (rt *Runtime) Exit(code int) {
	rt.exit.Set(code)
}

// PublishScriptAPI installs spawn/defer/cancel/resume/wrap into the VM's
// script environment (spec.md §6.3). `exit` is intentionally not published
// here: it must be composed, at the VM-binding layer, from this method's
// Exit plus a coroutine.yield so that setting the exit code and suspending
// the caller happen atomically from the script's perspective.
func (rt *Runtime) PublishScriptAPI() error {
	publish := []struct {
		name string
		fn   luavm.HostFunc
	}{
		{"spawn", rt.scriptSpawn},
		{"defer", rt.scriptDefer},
		{"cancel", rt.scriptCancel},
		{"resume", rt.scriptResume},
		{"wrap", rt.scriptWrap},
	}
	for _, p := range publish {
		if err := rt.vm.PublishFunc(p.name, p.fn); err != nil {
			return err
		}
	}
	return nil
}

func (rt *Runtime) scriptSpawn(args []luavm.Value) ([]luavm.Value, error) {
	if len(args) == 0 {
		return nil, &SubmissionError{Op: "spawn", Cause: errNotCallable}
	}
	co, err := rt.Spawn(args[0], args[1:])
	if err != nil {
		return nil, err
	}
	return []luavm.Value{co}, nil
}

func (rt *Runtime) scriptDefer(args []luavm.Value) ([]luavm.Value, error) {
	if len(args) == 0 {
		return nil, &SubmissionError{Op: "defer", Cause: errNotCallable}
	}
	co, err := rt.Defer(args[0], args[1:])
	if err != nil {
		return nil, err
	}
	return []luavm.Value{co}, nil
}

func (rt *Runtime) scriptCancel(args []luavm.Value) ([]luavm.Value, error) {
	if len(args) == 0 {
		return nil, &SubmissionError{Op: "cancel", Cause: errNotCallable}
	}
	co, ok := rt.vm.AsCoroutine(args[0])
	if !ok {
		return nil, &SubmissionError{Op: "cancel", Cause: errNotCallable}
	}
	return nil, rt.Cancel(co)
}

func (rt *Runtime) scriptResume(args []luavm.Value) ([]luavm.Value, error) {
	if len(args) == 0 {
		return nil, &SubmissionError{Op: "resume", Cause: errNotCallable}
	}
	co, ok := rt.vm.AsCoroutine(args[0])
	if !ok {
		return nil, &SubmissionError{Op: "resume", Cause: errNotCallable}
	}
	values, ok, err := rt.Resume(co, args[1:])
	if err != nil {
		return append([]luavm.Value{false}, errValue(err)), nil
	}
	return append([]luavm.Value{ok}, values...), nil
}

func (rt *Runtime) scriptWrap(args []luavm.Value) ([]luavm.Value, error) {
	if len(args) == 0 {
		return nil, &SubmissionError{Op: "wrap", Cause: errNotCallable}
	}
	wrapped, err := rt.Wrap(args[0])
	if err != nil {
		return nil, err
	}
	return []luavm.Value{luavm.HostFunc(wrapped)}, nil
}

func errValue(err error) luavm.Value {
	if err == nil {
		return nil
	}
	return err.Error()
}

func firstOrNil(vs []luavm.Value) luavm.Value {
	if len(vs) == 0 {
		return nil
	}
	return vs[0]
}
