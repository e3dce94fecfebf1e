package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/port"
)

// UserLock is an in-process port.UserLocker keyed by user id. It serializes
// recordings within a single instance only; deployments running more than one
// replica should use the Redis-backed lock instead.
type UserLock struct {
	mu   sync.Mutex
	sems map[string]chan struct{}
}

// NewUserLock constructs an in-memory per-user lock.
func NewUserLock() *UserLock {
	return &UserLock{sems: make(map[string]chan struct{})}
}

// Acquire blocks until the per-user semaphore is granted or ctx is done.
func (l *UserLock) Acquire(ctx context.Context, userID string) (func(), error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	l.mu.Lock()
	sem, ok := l.sems[userID]
	if !ok {
		sem = make(chan struct{}, 1)
		l.sems[userID] = sem
	}
	l.mu.Unlock()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ port.UserLocker = (*UserLock)(nil)
