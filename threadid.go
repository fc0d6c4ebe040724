package luasched

import "github.com/luasched/luasched/luavm"

// ThreadId is the stable identity of a Coroutine, derived from the VM's
// internal object identity (spec.md §3). It is comparable and safe to use
// as a map key.
type ThreadId struct {
	id luavm.Identity
}

// threadIDOf derives the ThreadId of a coroutine.
func threadIDOf(co luavm.Coroutine) ThreadId {
	return ThreadId{id: co.ID()}
}

// String implements fmt.Stringer for logging and diagnostics.
func (t ThreadId) String() string {
	return string(t.id)
}

// IsZero reports whether t is the zero ThreadId (never assigned to a real
// coroutine).
func (t ThreadId) IsZero() bool {
	return t.id == ""
}
