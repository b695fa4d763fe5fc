package store

import (
	"context"
	"sync"
)

// MemoryStore keeps purchases in insertion order. Test and dev use.
type MemoryStore struct {
	mu        sync.RWMutex
	purchases []Purchase
	ids       map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(map[string]struct{})}
}

func (m *MemoryStore) Record(ctx context.Context, p Purchase) error {
	if p.ID == "" {
		return ErrEmptyID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.ids[p.ID]; dup {
		return ErrDuplicateID
	}
	m.ids[p.ID] = struct{}{}
	m.purchases = append(m.purchases, p)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, instanceID string, limit int) ([]Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Purchase
	for i := len(m.purchases) - 1; i >= 0; i-- {
		if m.purchases[i].InstanceID != instanceID {
			continue
		}
		out = append(out, m.purchases[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) ByRecipient(ctx context.Context, instanceID, recipient string) ([]Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Purchase
	for _, p := range m.purchases {
		if p.InstanceID == instanceID && p.Recipient == recipient {
			out = append(out, p)
		}
	}
	return out, nil
}
