// Package luavm defines the VM-facing contract that package luasched
// consumes: coroutine creation, stepping, and identity; a registry for
// pinning values across the script/host boundary; and the distinguished
// pending sentinel returned by host-async calls. luasched never imports a
// concrete scripting VM directly — it only depends on these interfaces, so
// the scheduler's tick loop, queues, and result tracking stay usable with
// any embeddable coroutine VM that can satisfy them.
//
// See GopherLua (gopherlua.go in this package) for the concrete adapter
// backing these interfaces with github.com/yuin/gopher-lua.
package luavm

import "fmt"

// Value is an opaque script value pinned or passed across the boundary.
// Concrete VMs box their native value representation behind this type;
// luasched treats it as an identity-comparable token except where the
// contract below says otherwise (e.g. Pending).
type Value interface{}

// Identity uniquely and stably identifies a Coroutine for the lifetime of
// the underlying script-level thread. Two Identities compare equal iff they
// were derived from the same Coroutine.
type Identity string

// Outcome classifies the result of a single Resume step.
type Outcome int

const (
	// Yielded means the coroutine suspended and is still Resumable. The
	// caller must inspect whether Values[0] is the Pending sentinel to
	// distinguish a host-async suspension from an ordinary script yield.
	Yielded Outcome = iota
	// Returned means the coroutine ran to completion and is no longer
	// Resumable.
	Returned
	// Errored means the coroutine raised during this step and is no
	// longer Resumable.
	Errored
)

// String implements fmt.Stringer for diagnostics.
func (o Outcome) String() string {
	switch o {
	case Yielded:
		return "yielded"
	case Returned:
		return "returned"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// StepResult is what a single Resume call produces.
type StepResult struct {
	Outcome Outcome
	Values  []Value
	// Err is set iff Outcome == Errored. It carries whatever the VM
	// reported (typically a formatted Lua error message).
	Err error
}

// Ref is an opaque handle to a Value pinned in the VM's registry so it
// survives across suspension points (e.g. a coroutine's pending resume
// arguments, or a completed coroutine's result values). Release must be
// idempotent: calling it more than once, or calling it on an already
// consumed Ref, must not panic.
type Ref interface {
	Value() Value
	Release()
}

// Coroutine is a single suspendable script-level thread.
type Coroutine interface {
	// ID returns this coroutine's stable Identity.
	ID() Identity
	// Resumable reports whether this coroutine can still be Resumed. It
	// starts true and becomes permanently false after a Returned or
	// Errored step, or after Close.
	Resumable() bool
	// Resume steps the coroutine with args, running it until its next
	// suspension (coroutine.yield, a host-async pending return, a plain
	// return, or an error).
	Resume(args []Value) StepResult
	// Close marks the coroutine as no longer Resumable. Closing a
	// coroutine that is already not Resumable is a no-op and reports no
	// error, matching spec.md's "cancellation of inactive is benign"
	// policy.
	Close() error
}

// Registry pins Values in the VM so they are not collected while the
// scheduler holds a reference to them across an await point.
type Registry interface {
	Pin(v Value) Ref
}

// HostFunc is a Go function published into the script environment. It
// receives the arguments the script passed and returns the values the
// script call should observe, or an error that becomes a script-level
// raise.
type HostFunc func(args []Value) ([]Value, error)

// VM is the complete contract luasched requires of an embedded scripting
// VM.
type VM interface {
	Registry

	// NewCoroutineFromFunction wraps fn (a script-level function value)
	// into a fresh, Resumable Coroutine. fn must not already be a
	// Coroutine.
	NewCoroutineFromFunction(fn Value) (Coroutine, error)

	// IsFunction reports whether v is callable as a coroutine body.
	IsFunction(v Value) bool
	// AsCoroutine reports whether v is already a Coroutine handle, and
	// if so returns it.
	AsCoroutine(v Value) (Coroutine, bool)

	// Pending returns the distinguished sentinel value a host-async
	// HostFunc yields to signal "I suspended; resume me later".
	Pending() Value
	// IsPending reports whether v is that sentinel.
	IsPending(v Value) bool

	// PublishFunc installs fn into the script global environment under
	// name, wrapping it as a native script-callable function.
	PublishFunc(name string, fn HostFunc) error
}
