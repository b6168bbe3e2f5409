package relay

import (
	"sync"

	"github.com/coopcam/coopcam/internal/log"
)

// Registry is the concurrency-safe set of active subscribers. The
// capture loop snapshots it for every broadcast while connection
// handlers add and remove themselves.
type Registry struct {
	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		subs: make(map[*Subscriber]struct{}),
	}
}

// Add registers a subscriber.
func (r *Registry) Add(s *Subscriber) {
	r.mu.Lock()
	r.subs[s] = struct{}{}
	count := len(r.subs)
	r.mu.Unlock()
	log.Info("viewer connected", "subscriber", s.ID(), "total", count)
}

// Remove unregisters a subscriber and marks it dead. It is a no-op if
// the subscriber is not present, so the broadcaster and the connection
// handler may both call it for the same subscriber in any order.
func (r *Registry) Remove(s *Subscriber) {
	r.mu.Lock()
	_, present := r.subs[s]
	if present {
		delete(r.subs, s)
	}
	count := len(r.subs)
	r.mu.Unlock()

	s.close()
	if present {
		log.Info("viewer disconnected", "subscriber", s.ID(), "remaining", count)
	}
}

// Snapshot returns the current subscribers. The slice is private to the
// caller; concurrent Add and Remove never disturb an iteration over it.
func (r *Registry) Snapshot() []*Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := make([]*Subscriber, 0, len(r.subs))
	for s := range r.subs {
		subs = append(subs, s)
	}
	return subs
}

// Len returns the number of registered subscribers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
