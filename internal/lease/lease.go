// Package lease provides short-lived, owner-scoped leases on cache keys.
// A gateway instance holds a fill lease while it lists the provider for a
// key, so concurrent instances missing the same key wait for its result.
package lease

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL bounds how long a crashed holder blocks other fills.
const DefaultTTL = 30 * time.Second

// ErrHeld is returned by Acquire when another owner holds an unexpired lease.
var ErrHeld = errors.New("lease is held by another owner")

// Lease is one granted lease.
type Lease struct {
	Key       string `dynamodbav:"cache_key"`
	Owner     string `dynamodbav:"lease_owner"`
	ExpiresAt int64  `dynamodbav:"expires_at"` // unix seconds
}

// Manager grants and releases leases.
type Manager interface {
	// Acquire takes the lease on key for owner. It succeeds when no lease
	// exists, the existing one has expired, or owner already holds it.
	Acquire(ctx context.Context, key, owner string) (*Lease, error)

	// Release drops the lease if owner holds it.
	Release(ctx context.Context, key, owner string) error
}
