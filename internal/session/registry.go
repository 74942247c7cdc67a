package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrDuplicateState = errors.New("session: custom state already created")
	ErrUnknownState   = errors.New("session: custom state never created")
)

// CustomState is one state created by this client at runtime. ID and
// Description are fixed at creation.
type CustomState struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// StateRegistry tracks custom states owned by one connection, keyed by id.
type StateRegistry struct {
	mu    sync.RWMutex
	items map[string]CustomState
}

func NewStateRegistry() *StateRegistry {
	return &StateRegistry{
		items: make(map[string]CustomState),
	}
}

// Add registers s or fails with ErrDuplicateState.
func (r *StateRegistry) Add(s CustomState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.ID]; ok {
		return fmt.Errorf("%w: id=%q", ErrDuplicateState, s.ID)
	}
	r.items[s.ID] = s
	return nil
}

// AddMany registers every entry whose id is not yet known, including ids
// repeated within list. It returns the registered entries and skipped ids.
func (r *StateRegistry) AddMany(list []CustomState) (added []CustomState, skipped []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range list {
		if _, ok := r.items[s.ID]; ok {
			skipped = append(skipped, s.ID)
			continue
		}
		r.items[s.ID] = s
		added = append(added, s)
	}
	return added, skipped
}

// Remove unregisters id or fails with ErrUnknownState.
func (r *StateRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("%w: id=%q", ErrUnknownState, id)
	}
	delete(r.items, id)
	return nil
}

// RemoveMany unregisters all ids or none. Every id must be registered and
// appear once in ids.
func (r *StateRegistry) RemoveMany(ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: id=%q repeated in batch", ErrDuplicateState, id)
		}
		seen[id] = struct{}{}
		if _, ok := r.items[id]; !ok {
			return fmt.Errorf("%w: id=%q", ErrUnknownState, id)
		}
	}
	for _, id := range ids {
		delete(r.items, id)
	}
	return nil
}

func (r *StateRegistry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[id]
	return ok
}

func (r *StateRegistry) Get(id string) (CustomState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	return s, ok
}

func (r *StateRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// List returns a snapshot sorted by id.
func (r *StateRegistry) List() []CustomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CustomState, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Reset drops every record; called when the connection is torn down.
func (r *StateRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]CustomState)
}
