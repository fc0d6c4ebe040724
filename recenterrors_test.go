package luasched

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecentErrorsRingBufferOrderAndBound(t *testing.T) {
	r := newRecentErrors(3)
	for i := 0; i < 5; i++ {
		r.record(&CoroutineError{Message: fmt.Sprintf("err-%d", i)})
	}
	got := r.snapshot()
	var messages []string
	for _, e := range got {
		messages = append(messages, e.Message)
	}
	assert.Equal(t, []string{"err-2", "err-3", "err-4"}, messages)
}

func TestRecentErrorsDisabledByZeroCapacity(t *testing.T) {
	r := newRecentErrors(0)
	r.record(&CoroutineError{Message: "dropped"})
	assert.Nil(t, r.snapshot())
}

func TestRecentErrorsPartiallyFilled(t *testing.T) {
	r := newRecentErrors(5)
	r.record(&CoroutineError{Message: "only-one"})
	got := r.snapshot()
	assert.Len(t, got, 1)
	assert.Equal(t, "only-one", got[0].Message)
}
