// Package kv is the session store adapter: an opaque key/value interface
// over a shared, non-transactional store.
package kv

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a key is absent or has been evicted.
	ErrNotFound = errors.New("key not found")

	// ErrLocked is returned when a lease could not be acquired in time.
	ErrLocked = errors.New("key is locked")
)

// Store is the minimal contract the session coordinator needs. Values are
// opaque; no compare-and-swap is assumed.
type Store interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Set(ctx context.Context, id string, value []byte) error
	Delete(ctx context.Context, id string) error
}

// Locker is an optional capability for stores that can hold a short-lived
// per-key lease. The returned unlock func releases the lease only if it is
// still held by the caller.
type Locker interface {
	Lock(ctx context.Context, id string, ttl time.Duration) (unlock func(), err error)
}
