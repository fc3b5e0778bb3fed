package memory

import (
	"context"
	"sync"
	"time"

	"diary-backend/application/ports"
	pkgerrors "diary-backend/pkg/errors"
)

// Locker is a process-local ports.Locker with expiring leases.
type Locker struct {
	mu     sync.Mutex
	leases map[string]lease
	now    func() time.Time
	seq    int64
}

type lease struct {
	owner     string
	token     int64
	expiresAt time.Time
}

func NewLocker() *Locker {
	return &Locker{leases: make(map[string]lease), now: time.Now}
}

func (l *Locker) Acquire(ctx context.Context, name, owner string, ttl time.Duration) (ports.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.leases[name]; ok && now.Before(held.expiresAt) {
		return nil, pkgerrors.NewConflictError("lock already held").WithDetail("name", name)
	}
	l.seq++
	l.leases[name] = lease{owner: owner, token: l.seq, expiresAt: now.Add(ttl)}
	return &memoryLock{locker: l, name: name, token: l.seq}, nil
}

type memoryLock struct {
	locker *Locker
	name   string
	token  int64
}

// Release drops the lease unless it expired and was taken by someone else.
func (m *memoryLock) Release(ctx context.Context) error {
	m.locker.mu.Lock()
	defer m.locker.mu.Unlock()
	if held, ok := m.locker.leases[m.name]; ok && held.token == m.token {
		delete(m.locker.leases, m.name)
	}
	return nil
}
