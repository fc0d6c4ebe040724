package luasched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadQueuePushDrainOrder(t *testing.T) {
	q := newThreadQueue(0)
	assert.Equal(t, 0, q.Len())

	slotA := newSlot(&fakeVM{}, &fakeCoroutine{id: "a"}, nil)
	slotB := newSlot(&fakeVM{}, &fakeCoroutine{id: "b"}, nil)
	q.Push(slotA)
	q.Push(slotB)
	assert.Equal(t, 2, q.Len())

	select {
	case <-q.Wake():
	default:
		t.Fatal("expected Wake to have a pending signal after Push")
	}

	drained := q.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, Identity("a"), drained[0].Coroutine().ID())
	assert.Equal(t, Identity("b"), drained[1].Coroutine().ID())
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.Drain())
}

func TestFuturesQueuePushDrainOrder(t *testing.T) {
	q := newFuturesQueue(0)
	var order []int
	q.Push(func() { order = append(order, 1) })
	q.Push(func() { order = append(order, 2) })
	require.Equal(t, 2, q.Len())

	fns := q.Drain()
	require.Len(t, fns, 2)
	for _, fn := range fns {
		fn()
	}
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 0, q.Len())
}
