package luasched

import "sync"

// outstandingAsync tracks coroutines currently suspended on the pending
// sentinel, whether the suspending step came from the tick loop's own
// dispatch or from resumeOnce (Spawn/Resume): neither path re-enqueues a
// pending yield onto any queue, since the only thing that should drive such
// a coroutine further is the external Resume call a host-async completion
// makes when it finishes. Without this set, Run's natural-termination check
// would see all three queues empty while that host-async operation (e.g. a
// timer) is still in flight and break early. A coroutine leaves this set the
// moment anything resumes it again, via resumeOnce or dispatch, regardless
// of outcome.
type outstandingAsync struct {
	mu  sync.Mutex
	ids map[ThreadId]struct{}
}

func newOutstandingAsync() *outstandingAsync {
	return &outstandingAsync{ids: make(map[ThreadId]struct{})}
}

func (o *outstandingAsync) Add(id ThreadId) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ids[id] = struct{}{}
}

func (o *outstandingAsync) Remove(id ThreadId) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.ids, id)
}

func (o *outstandingAsync) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.ids)
}
