// Package remotecache holds the gateway's short-lived listing cache.
// Every implementation is best-effort: failures read as a miss and
// writes may be dropped.
package remotecache

import (
	"context"
	"time"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/model"
)

// DefaultTTL is the lifetime of a gateway cache entry.
const DefaultTTL = 10 * time.Minute

// Entry is one cached listing.
type Entry struct {
	Items     []model.Item `json:"items"`
	FetchedAt time.Time    `json:"fetchedAt"`
}

// Cache stores listings keyed by Key.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, bool)
	Set(ctx context.Context, key string, e Entry)
}

// Key returns the cache key for a canonical path and content type.
func Key(ct model.ContentType, canonicalPath string) string {
	return string(ct) + ":" + canonicalPath
}

// Nop is a Cache that never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (*Entry, bool) { return nil, false }
func (Nop) Set(context.Context, string, Entry)         {}
