package luasched

import "github.com/luasched/luasched/luavm"

// fakeVM is a minimal luavm.VM double for tests that don't need a real
// embedded interpreter — queue, registry, and result-tracking behavior is
// VM-agnostic by design (see luavm.VM).
type fakeVM struct {
	pendingToken struct{}
}

type fakeRef struct{ v luavm.Value }

func (r *fakeRef) Value() luavm.Value { return r.v }
func (r *fakeRef) Release()           { r.v = nil }

func (f *fakeVM) Pin(v luavm.Value) luavm.Ref {
	return &fakeRef{v: v}
}

func (f *fakeVM) NewCoroutineFromFunction(fn luavm.Value) (luavm.Coroutine, error) {
	body, _ := fn.(func([]luavm.Value) luavm.StepResult)
	return &fakeCoroutine{id: "fn-coroutine", resumable: true, body: body}, nil
}

func (f *fakeVM) IsFunction(v luavm.Value) bool {
	_, ok := v.(func([]luavm.Value) luavm.StepResult)
	return ok
}

func (f *fakeVM) AsCoroutine(v luavm.Value) (luavm.Coroutine, bool) {
	co, ok := v.(luavm.Coroutine)
	return co, ok
}

func (f *fakeVM) Pending() luavm.Value {
	return &f.pendingToken
}

func (f *fakeVM) IsPending(v luavm.Value) bool {
	return v == luavm.Value(&f.pendingToken)
}

func (f *fakeVM) PublishFunc(name string, fn luavm.HostFunc) error {
	return nil
}

// fakeCoroutine is a scriptable luavm.Coroutine double. steps, if set,
// is consumed one StepResult per Resume call; body, if set, is invoked
// instead and can inspect args across calls.
type fakeCoroutine struct {
	id        luavm.Identity
	resumable bool
	steps     []luavm.StepResult
	body      func([]luavm.Value) luavm.StepResult
	resumes   [][]luavm.Value
	closed    bool
}

func (c *fakeCoroutine) ID() luavm.Identity { return c.id }

func (c *fakeCoroutine) Resumable() bool { return c.resumable }

func (c *fakeCoroutine) Resume(args []luavm.Value) luavm.StepResult {
	c.resumes = append(c.resumes, args)
	var step luavm.StepResult
	switch {
	case c.body != nil:
		step = c.body(args)
	case len(c.steps) > 0:
		step = c.steps[0]
		c.steps = c.steps[1:]
	default:
		step = luavm.StepResult{Outcome: luavm.Returned}
	}
	if step.Outcome != luavm.Yielded {
		c.resumable = false
	}
	return step
}

func (c *fakeCoroutine) Close() error {
	c.resumable = false
	c.closed = true
	return nil
}

type Identity = luavm.Identity
