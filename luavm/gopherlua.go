package luavm

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// pendingToken is the light userdata the scheduler's host-async functions
// yield to signal a suspension that the tick loop must continue later. A
// single instance is allocated per GopherLua adapter; identity (pointer
// equality of the wrapped LUserData) is what IsPending checks.
type pendingToken struct{}

// GopherLua adapts a *lua.LState to the VM contract. The owning *lua.LState
// must only ever be touched from the goroutine driving the scheduler's tick
// loop; gopher-lua states are not safe for concurrent use.
type GopherLua struct {
	owner   *lua.LState
	pending *lua.LUserData
}

// NewGopherLua wraps an existing *lua.LState. Callers retain ownership of
// owner and are responsible for closing it after the scheduler using this
// VM has finished running.
func NewGopherLua(owner *lua.LState) *GopherLua {
	ud := owner.NewUserData()
	ud.Value = pendingToken{}
	return &GopherLua{owner: owner, pending: ud}
}

// State returns the underlying *lua.LState, for callers (e.g. cmd/luasched)
// that need to load script source or set up additional globals.
func (g *GopherLua) State() *lua.LState {
	return g.owner
}

// toLua converts a Value back to a lua.LValue for pushing onto a script
// stack. Most Values already wrap a lua.LValue round-tripped from script
// code. Go bool and string values (the ok flag and error message the
// scheduler's resume returns) convert to LBool and LString. Two Go-side
// types need boxing because they never came from script code: a
// *gopherCoroutine returned by spawn/defer (boxed as an LUserData
// AsCoroutine knows how to unwrap) and a HostFunc returned by wrap (boxed as
// a native script-callable function). owner is only used to construct that
// boxing and may be any *lua.LState sharing the VM's global state (e.g. the
// calling coroutine's own thread state).
func toLua(owner *lua.LState, v Value) lua.LValue {
	if v == nil {
		return lua.LNil
	}
	switch tv := v.(type) {
	case lua.LValue:
		return tv
	case bool:
		return lua.LBool(tv)
	case string:
		return lua.LString(tv)
	case *gopherCoroutine:
		ud := owner.NewUserData()
		ud.Value = tv
		return ud
	case HostFunc:
		return wrapHostFunc(owner, tv)
	default:
		panic(fmt.Sprintf("luavm: value %#v is not representable in Lua", v))
	}
}

func toLuaSlice(owner *lua.LState, vs []Value) []lua.LValue {
	out := make([]lua.LValue, len(vs))
	for i, v := range vs {
		out[i] = toLua(owner, v)
	}
	return out
}

func fromLuaSlice(vs []lua.LValue) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Value(v)
	}
	return out
}

// Pin implements Registry by keeping a strong Go reference to the value;
// gopher-lua represents script values as ordinary Go values (interfaces
// backed by *LTable, *LFunction, *LUserData, ...), so the Go garbage
// collector already keeps a referenced value alive. Release drops that
// reference so the value again becomes collectible once nothing else on
// the Go side refers to it.
func (g *GopherLua) Pin(v Value) Ref {
	return &gopherRef{v: v}
}

type gopherRef struct {
	v Value
}

func (r *gopherRef) Value() Value {
	return r.v
}

func (r *gopherRef) Release() {
	r.v = nil
}

// NewCoroutineFromFunction implements VM.
func (g *GopherLua) NewCoroutineFromFunction(fn Value) (Coroutine, error) {
	lv := toLua(g.owner, fn)
	lfn, ok := lv.(*lua.LFunction)
	if !ok {
		return nil, errors.New("luavm: value is not callable as a coroutine body")
	}
	th, _ := g.owner.NewThread()
	return &gopherCoroutine{
		owner:     g.owner,
		th:        th,
		fn:        lfn,
		resumable: true,
		id:        Identity(fmt.Sprintf("coroutine:%p", th)),
	}, nil
}

// IsFunction implements VM.
func (g *GopherLua) IsFunction(v Value) bool {
	lv, ok := v.(lua.LValue)
	if !ok {
		return false
	}
	_, ok = lv.(*lua.LFunction)
	return ok
}

// AsCoroutine implements VM. Coroutines handed back to script code (as the
// return value of spawn/defer, see toLua) are boxed as an *lua.LUserData
// wrapping the *gopherCoroutine; this unwraps that boxing so scripts can
// pass a previously-returned handle into resume/cancel.
func (g *GopherLua) AsCoroutine(v Value) (Coroutine, bool) {
	ud, ok := v.(*lua.LUserData)
	if !ok {
		return nil, false
	}
	co, ok := ud.Value.(*gopherCoroutine)
	return co, ok
}

// Pending implements VM.
func (g *GopherLua) Pending() Value {
	return Value(g.pending)
}

// IsPending implements VM.
func (g *GopherLua) IsPending(v Value) bool {
	ud, ok := v.(*lua.LUserData)
	if !ok {
		return false
	}
	return ud == g.pending
}

// PublishFunc implements VM.
func (g *GopherLua) PublishFunc(name string, fn HostFunc) error {
	g.owner.SetGlobal(name, wrapHostFunc(g.owner, fn))
	return nil
}

// wrapHostFunc adapts a HostFunc into a native gopher-lua function value,
// shared by PublishFunc (installing a global) and toLua (boxing a HostFunc
// returned to script code, e.g. by wrap).
func wrapHostFunc(owner *lua.LState, fn HostFunc) *lua.LFunction {
	return owner.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		args := make([]Value, n)
		for i := 1; i <= n; i++ {
			args[i-1] = Value(L.Get(i))
		}
		rets, err := fn(args)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		for _, r := range rets {
			L.Push(toLua(L, r))
		}
		return len(rets)
	})
}

type gopherCoroutine struct {
	owner     *lua.LState
	th        *lua.LState
	fn        *lua.LFunction
	started   bool
	resumable bool
	id        Identity
}

func (c *gopherCoroutine) ID() Identity {
	return c.id
}

func (c *gopherCoroutine) Resumable() bool {
	return c.resumable
}

func (c *gopherCoroutine) Resume(args []Value) StepResult {
	if !c.resumable {
		return StepResult{Outcome: Returned}
	}

	var (
		state lua.ResumeState
		err   error
		rets  []lua.LValue
	)
	if !c.started {
		c.started = true
		state, err, rets = c.owner.Resume(c.th, c.fn, toLuaSlice(c.owner, args)...)
	} else {
		state, err, rets = c.owner.Resume(c.th, nil, toLuaSlice(c.owner, args)...)
	}

	switch state {
	case lua.ResumeYield:
		return StepResult{Outcome: Yielded, Values: fromLuaSlice(rets)}
	case lua.ResumeError:
		c.resumable = false
		return StepResult{Outcome: Errored, Err: err}
	default: // lua.ResumeOK
		c.resumable = false
		return StepResult{Outcome: Returned, Values: fromLuaSlice(rets)}
	}
}

func (c *gopherCoroutine) Close() error {
	c.resumable = false
	return nil
}
