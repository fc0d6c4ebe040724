package luasched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreadIDOfAndZero(t *testing.T) {
	var zero ThreadId
	assert.True(t, zero.IsZero())
	assert.Equal(t, "", zero.String())

	co := &fakeCoroutine{id: "abc"}
	id := threadIDOf(co)
	assert.False(t, id.IsZero())
	assert.Equal(t, "abc", id.String())

	assert.Equal(t, threadIDOf(co), id, "deriving twice from the same coroutine must compare equal")
}
