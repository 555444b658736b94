package relay

import (
	"sync"

	"github.com/seazero-dotcom/CryptoTraderPro/src/interfaces"
)

// -----------------------------------------------------------------------------
// Subscriber Registry
// -----------------------------------------------------------------------------

// Registry tracks the currently open subscriber connections. It is an
// explicit object owned by whoever wires the relay, never package state.
// Add and Remove are safe while a broadcast iteration is in progress; a
// subscriber added mid-broadcast only sees subsequent broadcasts.
type Registry struct {
	mu          sync.RWMutex
	subscribers map[interfaces.ISubscriber]struct{}
}

// -----------------------------------------------------------------------------

func NewRegistry() *Registry {
	return &Registry{
		subscribers: make(map[interfaces.ISubscriber]struct{}),
	}
}

// -----------------------------------------------------------------------------

func (r *Registry) Add(sub interfaces.ISubscriber) {
	r.mu.Lock()
	r.subscribers[sub] = struct{}{}
	r.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Remove drops a subscriber. Removing one that is not present is a no-op.
func (r *Registry) Remove(sub interfaces.ISubscriber) {
	r.mu.Lock()
	delete(r.subscribers, sub)
	r.mu.Unlock()
}

// -----------------------------------------------------------------------------

// ForEach calls fn once per subscriber present when the iteration started.
// It iterates a snapshot, so fn may call Remove (or another goroutine may
// Add) without invalidating the loop. No iteration order is guaranteed.
func (r *Registry) ForEach(fn func(interfaces.ISubscriber)) {
	r.mu.RLock()
	snapshot := make([]interfaces.ISubscriber, 0, len(r.subscribers))
	for sub := range r.subscribers {
		snapshot = append(snapshot, sub)
	}
	r.mu.RUnlock()

	for _, sub := range snapshot {
		fn(sub)
	}
}

// -----------------------------------------------------------------------------

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers)
}
