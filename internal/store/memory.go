package store

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Accounts used by tests and single-node demos.
type Memory struct {
	mu      sync.Mutex
	users   map[string]User
	entries []LedgerEntry
}

func NewMemory() *Memory {
	return &Memory{users: map[string]User{}}
}

func (m *Memory) EnsureUser(_ context.Context, address string, initial int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[address]; ok {
		return u, nil
	}
	u := newUser(address, initial)
	m.users[address] = u
	return u, nil
}

func (m *Memory) GetUser(_ context.Context, address string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[address]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) UpdateUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[u.Address]
	if !ok {
		return ErrNotFound
	}
	cur.Name = u.Name
	cur.AvatarURL = u.AvatarURL
	m.users[u.Address] = cur
	return nil
}

func (m *Memory) Debit(ctx context.Context, address string, amount int64, entryType, refID string) (int64, error) {
	return m.move(address, -amount, entryType, refID)
}

func (m *Memory) Credit(ctx context.Context, address string, amount int64, entryType, refID string) (int64, error) {
	return m.move(address, amount, entryType, refID)
}

func (m *Memory) move(address string, delta int64, entryType, refID string) (int64, error) {
	if delta == 0 {
		return 0, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[address]
	if !ok {
		return 0, ErrNotFound
	}
	if u.Balance+delta < 0 {
		return 0, ErrInsufficientBalance
	}
	u.Balance += delta
	m.users[address] = u
	m.entries = append(m.entries, LedgerEntry{
		ID:        NewID(),
		Address:   address,
		Type:      entryType,
		Amount:    delta,
		RefID:     refID,
		CreatedAt: time.Now().UTC(),
	})
	return u.Balance, nil
}

// Entries returns a copy of the ledger for address.
func (m *Memory) Entries(address string) []LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []LedgerEntry{}
	for _, e := range m.entries {
		if e.Address == address {
			out = append(out, e)
		}
	}
	return out
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}
