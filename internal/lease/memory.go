package lease

import (
	"context"
	"sync"
	"time"
)

// MemoryManager implements Manager with an in-process map.
type MemoryManager struct {
	mu     sync.Mutex
	leases map[string]Lease
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryManager creates a MemoryManager granting leases that live for ttl.
func NewMemoryManager(ttl time.Duration) *MemoryManager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryManager{leases: make(map[string]Lease), ttl: ttl, now: time.Now}
}

func (m *MemoryManager) Acquire(_ context.Context, key, owner string) (*Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().Unix()
	if existing, ok := m.leases[key]; ok && existing.ExpiresAt >= now && existing.Owner != owner {
		return nil, ErrHeld
	}

	l := Lease{Key: key, Owner: owner, ExpiresAt: now + int64(m.ttl.Seconds())}
	m.leases[key] = l
	return &l, nil
}

func (m *MemoryManager) Release(_ context.Context, key, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.leases[key]; ok && existing.Owner == owner {
		delete(m.leases, key)
	}
	return nil
}

// Holder returns the owner of the unexpired lease on key, if any.
func (m *MemoryManager) Holder(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leases[key]
	if !ok || l.ExpiresAt < m.now().Unix() {
		return "", false
	}
	return l.Owner, true
}
