package tenantlock

import (
	"context"
	"sync"
)

// MemoryLocker serializes tenants within one process.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[uint]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[uint]*slot)}
}

func (l *MemoryLocker) Lock(ctx context.Context, tenantID uint) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[tenantID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[tenantID] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(tenantID, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(tenantID, s)
		})
	}, nil
}

func (l *MemoryLocker) release(tenantID uint, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, tenantID)
	}
}
