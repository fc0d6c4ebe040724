package luavm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

func TestGopherLuaPendingSentinelIdentity(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	vm := NewGopherLua(L)

	other := NewGopherLua(lua.NewState())
	defer other.State().Close()

	assert.True(t, vm.IsPending(vm.Pending()))
	assert.False(t, vm.IsPending(Value(lua.LNumber(1))))
	assert.False(t, vm.IsPending(other.Pending()), "pending sentinels from different VMs must not compare equal")
}

func TestGopherLuaPublishFuncRoundTrip(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	vm := NewGopherLua(L)

	require.NoError(t, vm.PublishFunc("double", func(args []Value) ([]Value, error) {
		n := args[0].(lua.LNumber)
		return []Value{n * 2}, nil
	}))

	require.NoError(t, L.DoString(`result = double(21)`))
	assert.Equal(t, lua.LNumber(42), L.GetGlobal("result"))
}

func TestGopherLuaCoroutineResumeYieldReturn(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	vm := NewGopherLua(L)

	fn, err := L.LoadString(`
local x = coroutine.yield("first")
return x + 1
`)
	require.NoError(t, err)

	co, err := vm.NewCoroutineFromFunction(Value(fn))
	require.NoError(t, err)
	assert.True(t, co.Resumable())

	step1 := co.Resume(nil)
	require.Equal(t, Yielded, step1.Outcome)
	require.Len(t, step1.Values, 1)
	assert.Equal(t, lua.LString("first"), step1.Values[0])
	assert.True(t, co.Resumable())

	step2 := co.Resume([]Value{lua.LNumber(10)})
	require.Equal(t, Returned, step2.Outcome)
	require.Len(t, step2.Values, 1)
	assert.Equal(t, lua.LNumber(11), step2.Values[0])
	assert.False(t, co.Resumable())
}

func TestGopherLuaCoroutineErrors(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	vm := NewGopherLua(L)

	fn, err := L.LoadString(`error("boom")`)
	require.NoError(t, err)

	co, err := vm.NewCoroutineFromFunction(Value(fn))
	require.NoError(t, err)

	step := co.Resume(nil)
	assert.Equal(t, Errored, step.Outcome)
	assert.Error(t, step.Err)
	assert.False(t, co.Resumable())
}

func TestGopherLuaCloseMakesInactive(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	vm := NewGopherLua(L)

	fn, err := L.LoadString(`coroutine.yield()`)
	require.NoError(t, err)
	co, err := vm.NewCoroutineFromFunction(Value(fn))
	require.NoError(t, err)

	require.NoError(t, co.Close())
	assert.False(t, co.Resumable())

	step := co.Resume(nil)
	assert.Equal(t, Returned, step.Outcome, "Resume on a closed coroutine must report Returned, not panic")
}

func TestGopherLuaAsCoroutineRejectsUnrelatedValues(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	vm := NewGopherLua(L)
	_, ok := vm.AsCoroutine(Value(lua.LNumber(1)))
	assert.False(t, ok)
	_, ok = vm.AsCoroutine(vm.Pending())
	assert.False(t, ok, "the pending sentinel is also a *lua.LUserData but must not unwrap as a coroutine")
}

func TestGopherLuaCoroutineHandleRoundTripsThroughScript(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	vm := NewGopherLua(L)

	body, err := L.LoadString(`coroutine.yield()`)
	require.NoError(t, err)
	co, err := vm.NewCoroutineFromFunction(Value(body))
	require.NoError(t, err)

	var received Coroutine
	require.NoError(t, vm.PublishFunc("give", func(args []Value) ([]Value, error) {
		return []Value{co}, nil
	}))
	require.NoError(t, vm.PublishFunc("check", func(args []Value) ([]Value, error) {
		var ok bool
		received, ok = vm.AsCoroutine(args[0])
		return []Value{lua.LBool(ok)}, nil
	}))

	require.NoError(t, L.DoString(`ok = check(give())`))
	assert.Equal(t, lua.LTrue, L.GetGlobal("ok"))
	assert.Same(t, co, received)
}

func TestGopherLuaWrappedHostFuncCallableFromScript(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	vm := NewGopherLua(L)

	var called bool
	require.NoError(t, vm.PublishFunc("makeWrapped", func(args []Value) ([]Value, error) {
		return []Value{HostFunc(func(args []Value) ([]Value, error) {
			called = true
			return []Value{lua.LNumber(7)}, nil
		})}, nil
	}))

	require.NoError(t, L.DoString(`result = makeWrapped()()`))
	assert.True(t, called)
	assert.Equal(t, lua.LNumber(7), L.GetGlobal("result"))
}

func TestGopherLuaIsFunction(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	vm := NewGopherLua(L)

	fn, err := L.LoadString(`return 1`)
	require.NoError(t, err)
	assert.True(t, vm.IsFunction(Value(fn)))
	assert.False(t, vm.IsFunction(Value(lua.LNumber(1))))
}
