package store

import (
	"sort"
	"sync"
	"time"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/variable"
)

// MemoryStore keeps variable sets in memory.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	sets   map[string]storedSet
	closed bool
}

type storedSet struct {
	data    string
	count   int
	updated time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]storedSet)}
}

// Save implements Store.
func (m *MemoryStore) Save(name string, vars variable.List) error {
	name, err := checkName(name)
	if err != nil {
		return err
	}
	data, err := encode(vars)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	m.sets[name] = storedSet{data: data, count: len(vars), updated: time.Now().UTC()}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(name string) (variable.List, error) {
	name, err := checkName(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	set, ok := m.sets[name]
	if !ok {
		return nil, ErrNotFound
	}
	return decode(name, set.data)
}

// List implements Store.
func (m *MemoryStore) List() ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.sets))
	for name, set := range m.sets {
		infos = append(infos, Info{
			Name:    name,
			Count:   set.count,
			Updated: set.updated,
			Size:    int64(len(set.data)),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.sets, name)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.sets = nil
	return nil
}
