package kv

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store and Locker.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
	leases map[string]*lease
}

// lease is a one-slot semaphore. refs counts the holder and waiters; the
// entry is dropped when it reaches zero.
type lease struct {
	ch   chan struct{}
	refs int
}

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string][]byte),
		leases: make(map[string]*lease),
	}
}

func (m *Memory) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, id string, value []byte) error {
	m.mu.Lock()
	m.values[id] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.values, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

func (m *Memory) acquire(id string) *lease {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.leases[id]
	if !ok {
		l = &lease{ch: make(chan struct{}, 1)}
		m.leases[id] = l
	}
	l.refs++
	return l
}

func (m *Memory) release(id string, l *lease) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(m.leases, id)
	}
}

// Lock waits up to ttl for the lease on id.
func (m *Memory) Lock(ctx context.Context, id string, ttl time.Duration) (func(), error) {
	l := m.acquire(id)

	timer := time.NewTimer(ttl)
	defer timer.Stop()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(id, l)
		return nil, ctx.Err()
	case <-timer.C:
		m.release(id, l)
		return nil, ErrLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			m.release(id, l)
		})
	}, nil
}
