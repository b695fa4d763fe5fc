package registry

import (
	"context"
	"strings"
	"sync"
)

// Memory is an in-process Registry. Owners and balances are kept in two
// maps guarded by one mutex, mirroring the usual token-registry state model
// (id -> owner, owner -> count).
type Memory struct {
	mu       sync.RWMutex
	owners   map[int64]string
	balances map[string]int64
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{
		owners:   make(map[int64]string),
		balances: make(map[string]int64),
	}
}

func (m *Memory) Issue(ctx context.Context, to string, id int64) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrZeroAddress
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.owners[id]; exists {
		return ErrAlreadyIssued
	}
	m.owners[id] = to
	m.balances[to]++
	return nil
}

func (m *Memory) OwnerOf(ctx context.Context, id int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owner, ok := m.owners[id]
	if !ok {
		return "", ErrUnknownID
	}
	return owner, nil
}

func (m *Memory) BalanceOf(ctx context.Context, owner string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[owner], nil
}

func (m *Memory) Transfer(ctx context.Context, from, to string, id int64) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrZeroAddress
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	owner, ok := m.owners[id]
	if !ok {
		return ErrUnknownID
	}
	if owner != from {
		return ErrNotOwner
	}

	m.owners[id] = to
	m.balances[from]--
	m.balances[to]++
	return nil
}

func (m *Memory) Burn(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	owner, ok := m.owners[id]
	if !ok {
		return ErrUnknownID
	}
	delete(m.owners, id)
	m.balances[owner]--
	if m.balances[owner] == 0 {
		delete(m.balances, owner)
	}
	return nil
}
