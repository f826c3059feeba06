package service

import (
	"sort"
	"sync"
)

// UnreadSet conversation ids with messages that arrived while another
// conversation was open. Set semantics: repeated adds are no-ops.
type UnreadSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewUnreadSet() *UnreadSet {
	return &UnreadSet{ids: make(map[string]struct{})}
}

// Add reports whether id was newly added.
func (u *UnreadSet) Add(id string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.ids[id]; ok {
		return false
	}
	u.ids[id] = struct{}{}
	return true
}

// Remove reports whether id was present. Removing an absent id is fine.
func (u *UnreadSet) Remove(id string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.ids[id]; !ok {
		return false
	}
	delete(u.ids, id)
	return true
}

func (u *UnreadSet) Has(id string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.ids[id]
	return ok
}

func (u *UnreadSet) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.ids)
}

// Snapshot sorted copy of the ids.
func (u *UnreadSet) Snapshot() []string {
	u.mu.RLock()
	out := make([]string, 0, len(u.ids))
	for id := range u.ids {
		out = append(out, id)
	}
	u.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (u *UnreadSet) Clear() {
	u.mu.Lock()
	u.ids = make(map[string]struct{})
	u.mu.Unlock()
}
