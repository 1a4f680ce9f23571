package itemstore

import (
	"fmt"
	"sort"
	"sync"

	"rwb-go/internal/model"
	"rwb-go/internal/rwb"
)

// MemoryStore is an in-memory reminders source. It preserves insertion
// order for List, making diff output deterministic in tests.
// Safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	reminders map[string]model.Reminder
	order     []string

	// Err, when set, is returned by every operation. Tests use it to
	// simulate an unreachable item store.
	Err error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reminders: make(map[string]model.Reminder)}
}

func (m *MemoryStore) List() ([]model.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	out := make([]model.Reminder, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.reminders[id])
	}
	return out, nil
}

func (m *MemoryStore) Get(id string) (*model.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	r, ok := m.reminders[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MemoryStore) Create(r model.Reminder) (*model.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	if _, exists := m.reminders[r.ID]; exists {
		return nil, fmt.Errorf("reminder already exists: %s", r.ID)
	}
	m.reminders[r.ID] = r
	m.order = append(m.order, r.ID)
	return &r, nil
}

func (m *MemoryStore) Update(r model.Reminder) (*model.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	if _, exists := m.reminders[r.ID]; !exists {
		return nil, fmt.Errorf("reminder not found: %s", r.ID)
	}
	m.reminders[r.ID] = r
	return &r, nil
}

func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	if _, exists := m.reminders[id]; !exists {
		return fmt.Errorf("reminder not found: %s", id)
	}
	delete(m.reminders, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) Lists() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	seen := make(map[string]bool)
	var lists []string
	for _, r := range m.reminders {
		if !seen[r.ListName] {
			seen[r.ListName] = true
			lists = append(lists, r.ListName)
		}
	}
	sort.Strings(lists)
	return lists, nil
}

// Compile-time check that MemoryStore implements rwb.ItemStore
var _ rwb.ItemStore = (*MemoryStore)(nil)
