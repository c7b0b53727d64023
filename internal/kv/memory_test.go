package kv

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "ABC123"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store: err = %v, want ErrNotFound", err)
	}

	value := []byte(`{"id":"ABC123"}`)
	if err := m.Set(ctx, "ABC123", value); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value[0] = 'x'

	got, err := m.Get(ctx, "ABC123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"id":"ABC123"}` {
		t.Errorf("Get = %q, stored value was aliased", got)
	}

	if err := m.Delete(ctx, "ABC123"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, "ABC123"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete: err = %v, want ErrNotFound", err)
	}
}

func TestMemoryLock(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	unlock, err := m.Lock(ctx, "S1", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("first Lock: %v", err)
	}

	if _, err := m.Lock(ctx, "S1", 20*time.Millisecond); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Lock: err = %v, want ErrLocked", err)
	}

	other, err := m.Lock(ctx, "S2", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Lock on other key: %v", err)
	}
	other()

	unlock()
	unlock() // second release is a no-op

	again, err := m.Lock(ctx, "S1", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	again()
}

func TestMemoryLockHonoursContext(t *testing.T) {
	m := NewMemory()
	unlock, err := m.Lock(context.Background(), "S1", time.Second)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Lock(ctx, "S1", time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestMemoryLockReleasesLeaseEntries(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	unlock, err := m.Lock(ctx, "S1", time.Second)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := m.Lock(ctx, "S1", 10*time.Millisecond); !errors.Is(err, ErrLocked) {
		t.Fatalf("contended Lock: err = %v, want ErrLocked", err)
	}
	unlock()

	for _, id := range []string{"S2", "S3", "S4"} {
		release, err := m.Lock(ctx, id, time.Second)
		if err != nil {
			t.Fatalf("Lock(%s): %v", id, err)
		}
		release()
	}

	m.mu.RLock()
	n := len(m.leases)
	m.mu.RUnlock()
	if n != 0 {
		t.Errorf("%d lease entries left, want 0", n)
	}
}
