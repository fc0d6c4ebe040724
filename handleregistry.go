package luasched

import (
	"sync"
	"weak"
)

// handleRegistry tracks live Handles by ThreadId using weak pointers, so a
// host that drops every strong reference to a Handle before it reaches its
// final outcome does not pin that bookkeeping in the Runtime forever. It
// scavenges with a ring-buffer cursor so a long-running Runtime with many
// submissions amortises cleanup across ticks instead of paying for a full
// map scan at once.
type handleRegistry struct {
	mu   sync.RWMutex
	data map[ThreadId]weak.Pointer[Handle]
	ring []ThreadId

	head int

	scavengeMu sync.Mutex
}

func newHandleRegistry() *handleRegistry {
	return &handleRegistry{
		data: make(map[ThreadId]weak.Pointer[Handle]),
		ring: make([]ThreadId, 0, 256),
	}
}

// Register records h under id, replacing any prior entry for id.
func (r *handleRegistry) Register(id ThreadId, h *Handle) {
	wp := weak.Make(h)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[id]; !exists {
		r.ring = append(r.ring, id)
	}
	r.data[id] = wp
}

// Lookup returns the Handle registered for id, if it is still live.
func (r *handleRegistry) Lookup(id ThreadId) (*Handle, bool) {
	r.mu.RLock()
	wp, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	h := wp.Value()
	return h, h != nil
}

// Forget removes id unconditionally, used once a Handle reaches its final
// outcome — there is no further reason to keep tracking it.
func (r *handleRegistry) Forget(id ThreadId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; ok {
		delete(r.data, id)
		for i, rid := range r.ring {
			if rid == id {
				r.ring[i] = ThreadId{}
				break
			}
		}
	}
}

// Scavenge walks up to batchSize ring entries starting from the cursor and
// drops any whose Handle has been garbage collected by the host. It is
// cheap to call periodically (e.g. once per tick) since each call only
// inspects a bounded slice.
func (r *handleRegistry) Scavenge(batchSize int) {
	if batchSize <= 0 {
		return
	}
	r.scavengeMu.Lock()
	defer r.scavengeMu.Unlock()

	r.mu.RLock()
	ringLen := len(r.ring)
	if ringLen == 0 {
		r.mu.RUnlock()
		return
	}
	start := r.head
	end := min(start+batchSize, ringLen)
	batch := append([]ThreadId(nil), r.ring[start:end]...)
	r.mu.RUnlock()

	var dead []ThreadId
	for _, id := range batch {
		if id.IsZero() {
			continue
		}
		r.mu.RLock()
		wp, ok := r.data[id]
		r.mu.RUnlock()
		if ok && wp.Value() == nil {
			dead = append(dead, id)
		}
	}

	nextHead := end
	if nextHead >= ringLen {
		nextHead = 0
	}

	r.mu.Lock()
	for _, id := range dead {
		delete(r.data, id)
	}
	r.head = nextHead
	if nextHead == 0 && len(r.data) < len(r.ring)/4 && len(r.ring) > 256 {
		r.compactAndRenew()
	}
	r.mu.Unlock()
}

// compactAndRenew drops zeroed ring slots and rebuilds the backing map so
// Go can reclaim the old bucket array. Must be called with mu held.
func (r *handleRegistry) compactAndRenew() {
	newRing := make([]ThreadId, 0, len(r.data))
	newData := make(map[ThreadId]weak.Pointer[Handle], len(r.data))
	for _, id := range r.ring {
		if id.IsZero() {
			continue
		}
		if wp, ok := r.data[id]; ok {
			newRing = append(newRing, id)
			newData[id] = wp
		}
	}
	r.ring = newRing
	r.data = newData
	r.head = 0
}
