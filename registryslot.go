package luasched

import "github.com/luasched/luasched/luavm"

// RegistrySlot is an owned pair (coroutine ref, args ref) pinned in the
// VM's registry (spec.md §3). Both refs are created atomically by newSlot
// and must be released exactly once, on either consumption (the scheduler
// resuming the coroutine) or explicit Release on shutdown.
type RegistrySlot struct {
	coroutine luavm.Ref
	args      luavm.Ref
	released  bool
}

// newSlot pins coro and args into the registry as a single atomic unit.
func newSlot(reg luavm.Registry, coro luavm.Coroutine, args []luavm.Value) RegistrySlot {
	return RegistrySlot{
		coroutine: reg.Pin(coro),
		args:      reg.Pin(packArgs(args)),
	}
}

// Coroutine returns the pinned coroutine.
func (s *RegistrySlot) Coroutine() luavm.Coroutine {
	co, _ := s.coroutine.Value().(luavm.Coroutine)
	return co
}

// Args returns the pinned resume arguments.
func (s *RegistrySlot) Args() []luavm.Value {
	return unpackArgs(s.args.Value())
}

// Release drops both pins. Idempotent: calling it twice is a no-op.
func (s *RegistrySlot) Release() {
	if s.released {
		return
	}
	s.released = true
	s.coroutine.Release()
	s.args.Release()
}
