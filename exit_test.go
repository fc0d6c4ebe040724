package luasched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitSlotFirstSetWins(t *testing.T) {
	e := newExitSlot()
	_, ok := e.Get()
	assert.False(t, ok)

	select {
	case <-e.Wake():
		t.Fatal("expected Wake to be open before Set")
	default:
	}

	e.Set(7)
	code, ok := e.Get()
	assert.True(t, ok)
	assert.Equal(t, 7, code)

	select {
	case <-e.Wake():
	default:
		t.Fatal("expected Wake to be closed after Set")
	}

	e.Set(9) // second call is a no-op
	code, ok = e.Get()
	assert.True(t, ok)
	assert.Equal(t, 7, code)
}
