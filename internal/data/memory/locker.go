package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"slot-booking/internal/data/repository"
)

// keyLocker hands out one single-slot semaphore per key.
type keyLocker struct {
	mu   sync.Mutex
	sems map[string]chan struct{}
}

func newKeyLocker() *keyLocker {
	return &keyLocker{sems: make(map[string]chan struct{})}
}

func (l *keyLocker) sem(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sems[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.sems[key] = s
	}
	return s
}

// Acquire blocks until key is free, timeout elapses or ctx is done.
// A timeout <= 0 waits for as long as ctx allows.
func (l *keyLocker) Acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	s := l.sem(key)

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case s <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s }) }, nil
	case <-expired:
		return nil, fmt.Errorf("%w: %s", repository.ErrLockNotAvailable, key)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
