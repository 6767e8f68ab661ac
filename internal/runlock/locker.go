package runlock

import (
	"context"
	"errors"
	"time"
)

// ErrHeld is returned by Acquire when another holder owns the key.
var ErrHeld = errors.New("run lock is held")

// Locker grants exclusive, expiring leases on a key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Lease is an acquired lock. Release is a no-op once the lease expired or was
// taken over by another holder.
type Lease interface {
	Release(ctx context.Context) error
}
