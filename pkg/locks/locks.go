package locks

import (
	"sort"
	"sync"
)

// Manager provides per-key mutual exclusion for entity-scoped operations.
// Keys are conventionally "<entity>:<id>", e.g. "camp:42" or "inventory:A+".
// All methods are safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates an empty lock manager
func NewManager() *Manager {
	return &Manager{locks: make(map[string]*entry)}
}

// Lock acquires the mutex for key, blocking until it is available.
// The returned function releases it and must be called exactly once.
func (m *Manager) Lock(key string) func() {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		m.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}

// LockMany acquires the mutexes for all keys. Keys are deduplicated and
// acquired in sorted order so two callers locking overlapping sets cannot
// deadlock. The returned function releases them in reverse order.
func (m *Manager) LockMany(keys ...string) func() {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	sort.Strings(uniq)

	releases := make([]func(), 0, len(uniq))
	for _, k := range uniq {
		releases = append(releases, m.Lock(k))
	}

	return func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
}
