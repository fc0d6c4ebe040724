package luasched

import (
	"context"
	"sync"

	"github.com/luasched/luasched/luavm"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// attachedVMs enforces spec.md §4.1's "exactly one Runtime per VM; a
// second attach must fail loudly" by recording which luavm.VM values
// currently have a live Runtime. Keyed by the VM's own identity, not a
// ThreadId (VMs don't have one); entries are removed when Run returns.
var attachedVMs sync.Map // luavm.VM -> *Runtime

// Runtime owns the queues, result map, error callback slot, and exit slot
// for one attached VM, and drives the tick loop that resumes queued
// coroutines and adopts thread-local futures (spec.md §3 "Ownership
// summary", §4.1).
type Runtime struct {
	vm luavm.VM

	state   *runtimeState
	spawnQ  *ThreadQueue
	deferQ  *ThreadQueue
	futures *FuturesQueue
	results *ResultMap
	exit    *exitSlot
	errCB   *errorCallbackSlot
	logger  Logger
	metrics *runtimeMetrics
	stats   *runtimeStats

	recentErrs *recentErrors
	handles    *handleRegistry
	outstanding *outstandingAsync

	sendGroup *errgroup.Group

	// current is the coroutine presently executing inside stepCoroutine, if
	// any. It exists so VM-binding code (e.g. a host-async sleep) invoked
	// synchronously from within that coroutine's body can discover which
	// coroutine to later Resume, without threading a Coroutine argument
	// through every published HostFunc. Only ever touched from the single
	// goroutine driving Run, matching the VM's own single-goroutine
	// restriction.
	current luavm.Coroutine
}

// New attaches a fresh Runtime to vm. It fails if vm already has a live
// Runtime attached (spec.md §4.1).
func New(vm luavm.VM, opts ...Option) (*Runtime, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	state := newRuntimeState()
	rt := &Runtime{
		vm:         vm,
		state:      state,
		spawnQ:     newThreadQueue(cfg.queueCapacityHint),
		deferQ:     newThreadQueue(cfg.queueCapacityHint),
		futures:    newFuturesQueue(cfg.queueCapacityHint),
		results:    newResultMap(),
		exit:       newExitSlot(),
		logger:     cfg.logger,
		metrics:    newRuntimeMetrics(cfg.metricsEnabled),
		stats:      newRuntimeStats(),
		recentErrs:  newRecentErrors(cfg.recentErrorCap),
		handles:     newHandleRegistry(),
		outstanding: newOutstandingAsync(),
	}
	rt.errCB = newErrorCallbackSlot(state, cfg.errorCallback)
	if rt.errCB.cb == nil {
		rt.errCB.cb = defaultErrorCallback(cfg.logger)
	}
	if _, loaded := attachedVMs.LoadOrStore(vm, rt); loaded {
		return nil, ErrAlreadyAttached
	}
	return rt, nil
}

// Status reports the Runtime's current lifecycle state.
func (rt *Runtime) Status() Status {
	return rt.state.Load()
}

// SetErrorCallback replaces the installed error callback. It panics if
// called while Running (spec.md §4.5).
func (rt *Runtime) SetErrorCallback(cb ErrorCallback) {
	rt.errCB.Set(cb)
}

// RemoveErrorCallback clears the installed error callback.
func (rt *Runtime) RemoveErrorCallback() {
	rt.errCB.Clear()
}

// GetExitCode returns the exit code set via SetExitCode/Exit, if any.
func (rt *Runtime) GetExitCode() (int, bool) {
	return rt.exit.Get()
}

// SetExitCode is the host-facing half of spec.md §4.4's `set_exit_code`.
func (rt *Runtime) SetExitCode(code int) {
	rt.exit.Set(code)
}

// PushThreadFront enqueues target onto the Spawn queue without an initial
// resume, marks the resulting ThreadId tracked, and returns it (spec.md
// §4.4 `push_thread_front`). Unlike the script-facing Spawn operation,
// this never resumes synchronously — the coroutine's first step happens
// on the next tick.
func (rt *Runtime) PushThreadFront(target luavm.Value, args []luavm.Value) (ThreadId, error) {
	return rt.pushThread(target, args, rt.spawnQ)
}

// PushThreadBack enqueues target onto the Defer queue (spec.md §4.4
// `push_thread_back`); otherwise identical to PushThreadFront.
func (rt *Runtime) PushThreadBack(target luavm.Value, args []luavm.Value) (ThreadId, error) {
	return rt.pushThread(target, args, rt.deferQ)
}

func (rt *Runtime) pushThread(target luavm.Value, args []luavm.Value, queue *ThreadQueue) (ThreadId, error) {
	co, err := rt.resolveTarget(target)
	if err != nil {
		return ThreadId{}, err
	}
	id := threadIDOf(co)
	rt.results.Track(id)
	if !co.Resumable() {
		return id, nil
	}
	queue.Push(newSlot(rt.vm, co, args))
	return id, nil
}

// TrackThread marks id tracked without enqueuing (spec.md §4.4
// `track_thread`), for ids obtained through scripting rather than a host
// push.
func (rt *Runtime) TrackThread(id ThreadId) {
	rt.results.Track(id)
}

// GetThreadResult destructively retrieves id's tracked outcome if present
// (spec.md §4.4 `get_thread_result`).
func (rt *Runtime) GetThreadResult(id ThreadId) (ThreadResult, bool) {
	return rt.results.Take(id)
}

// WaitForThread blocks until id's result is available, or ctx is
// cancelled (spec.md §4.4 `wait_for_thread`). It returns ErrThreadNotTracked
// immediately if id was never tracked. The wait itself is non-destructive —
// it peeks rather than takes — so it resolves iff GetThreadResult would
// return a result at that moment, and a later GetThreadResult still sees it.
func (rt *Runtime) WaitForThread(ctx context.Context, id ThreadId) (ThreadResult, error) {
	ch, ok := rt.results.Wait(id)
	if !ok {
		return ThreadResult{}, ErrThreadNotTracked
	}
	select {
	case <-ch:
		result, _ := rt.results.Peek(id)
		return result, nil
	case <-ctx.Done():
		return ThreadResult{}, ctx.Err()
	}
}

// SpawnLocal adopts fn onto the local executor on the next tick (spec.md
// §4.4 `spawn_local`). Safe to call from any goroutine.
func (rt *Runtime) SpawnLocal(fn LocalFuture) {
	rt.futures.Push(fn)
}

// SpawnSend schedules fn on the Send (main) executor M (spec.md §4.4
// `spawn`). It must only be called while Run is active; SpawnSend before
// Run or after it returns reports ErrNotRunning.
func (rt *Runtime) SpawnSend(fn func(context.Context) error) error {
	if rt.state.Load() != Running || rt.sendGroup == nil {
		return ErrNotRunning
	}
	rt.sendGroup.Go(func() error { return fn(context.Background()) })
	return nil
}

// CurrentCoroutine returns the coroutine presently being stepped, if Run is
// in the middle of resuming one. It is intended for VM-binding code (e.g. a
// host-async sleep composed outside this package) that needs to resume its
// own caller later; it reports false outside of a step.
func (rt *Runtime) CurrentCoroutine() (luavm.Coroutine, bool) {
	return rt.current, rt.current != nil
}

// Collectors exposes the Prometheus collectors for registration when
// WithMetrics(true) was supplied to New, or nil otherwise.
func (rt *Runtime) Collectors() []prometheus.Collector {
	return rt.metrics.Collectors()
}

// stepCoroutine performs a single VM resume and logs it.
func (rt *Runtime) stepCoroutine(co luavm.Coroutine, args []luavm.Value) luavm.StepResult {
	prev := rt.current
	rt.current = co
	step := co.Resume(args)
	rt.current = prev
	rt.stats.onResume()
	rt.logger.Log(LogEntry{
		Category: "resume",
		Thread:   threadIDOf(co),
		Message:  step.Outcome.String(),
		Err:      step.Err,
	})
	return step
}

// dispatch performs the tick loop's "run until yield" continuation of a
// coroutine drained from Spawn or Defer (spec.md §4.1, §4.3 "Run-until-
// yield"): one resume step; record the outcome in ResultMap if tracked and
// now terminal; forward any error to the callback. As with resumeOnce, a
// pending-sentinel yield here is NOT re-enqueued — the coroutine stays
// suspended (tracked via outstanding) until an external async completion
// calls Resume.
func (rt *Runtime) dispatch(slot RegistrySlot) {
	co := slot.Coroutine()
	args := slot.Args()
	slot.Release()
	if !co.Resumable() {
		return
	}
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
	case luavm.Returned:
		if tracked {
			rt.results.Insert(id, ThreadResult{OK: true, Values: step.Values})
		}
		rt.stats.onCompleted()
		rt.notifyHandle(id, ThreadResult{OK: true, Values: step.Values}, true)
	case luavm.Yielded:
		// Still Resumable; no ResultMap entry regardless of whether the
		// yielded value is the pending sentinel or ordinary script values.
		if rt.vm.IsPending(firstOrNil(step.Values)) {
			rt.outstanding.Add(id)
		}
		rt.notifyHandle(id, ThreadResult{OK: true, Values: step.Values}, false)
	}
}

// Run drives the tick loop until Exit is set or there is no more queued or
// thread-local work (spec.md §4.1). It is single-use: a second call on an
// already Running or Completed Runtime returns ErrAlreadyRunning.
func (rt *Runtime) Run(ctx context.Context) error {
	if !rt.state.TryTransition(NotStarted, Running) {
		return ErrAlreadyRunning
	}
	group, gctx := errgroup.WithContext(ctx)
	rt.sendGroup = group
	defer func() {
		rt.state.Store(Completed)
		attachedVMs.Delete(rt.vm)
		rt.sendGroup = nil
	}()

	for {
		if _, exited := rt.exit.Get(); exited {
			break
		}
		if rt.spawnQ.Len() == 0 && rt.deferQ.Len() == 0 && rt.futures.Len() == 0 {
			select {
			case <-rt.exit.Wake():
			case <-rt.spawnQ.Wake():
			case <-rt.deferQ.Wake():
			case <-rt.futures.Wake():
			case <-gctx.Done():
				if err := group.Wait(); err != nil {
					return err
				}
				return gctx.Err()
			}
		}

		if _, exited := rt.exit.Get(); exited {
			break
		}

		for _, slot := range rt.spawnQ.Drain() {
			rt.dispatch(slot)
		}
		for _, slot := range rt.deferQ.Drain() {
			rt.dispatch(slot)
		}
		for _, fn := range rt.futures.Drain() {
			fn()
		}

		rt.stats.onTick()
		rt.metrics.onTick()
		rt.metrics.observeDepths(rt.spawnQ.Len(), rt.deferQ.Len(), rt.futures.Len(), rt.results.TrackedCount())
		rt.handles.Scavenge(64)

		if rt.spawnQ.Len() == 0 && rt.deferQ.Len() == 0 && rt.futures.Len() == 0 && rt.outstanding.Len() == 0 {
			if _, exited := rt.exit.Get(); !exited {
				break
			}
		}
	}

	return group.Wait()
}
