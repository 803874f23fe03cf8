package ws

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the set of live connections per user. It is the only piece
// of mutable process-local shared state; a restart starts from empty and every
// user is assumed offline until a device reconnects.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Register adds the connection to its user's live set and reports whether it
// is the user's first. The transition is computed from post-mutation state
// under the lock, so near-simultaneous edges resolve consistently.
func (r *Registry) Register(c *Client) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.conns[c.userID]
	if set == nil {
		set = make(map[*Client]struct{})
		r.conns[c.userID] = set
	}
	set[c] = struct{}{}
	return len(set) == 1
}

// Deregister removes the connection and reports whether the user's live set
// became empty (last device gone).
func (r *Registry) Deregister(c *Client) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.conns[c.userID]
	if set == nil {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, c.userID)
		return true
	}
	return false
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

// Connections returns the size of the user's live set.
func (r *Registry) Connections(userID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}
