package remotecache

import "context"

// Tiered consults caches in order. A hit in a later tier is copied into
// the earlier ones.
type Tiered struct {
	tiers []Cache
}

// NewTiered creates a Tiered cache, fastest tier first.
func NewTiered(tiers ...Cache) *Tiered {
	return &Tiered{tiers: tiers}
}

func (t *Tiered) Get(ctx context.Context, key string) (*Entry, bool) {
	for i, c := range t.tiers {
		e, ok := c.Get(ctx, key)
		if !ok {
			continue
		}
		for _, earlier := range t.tiers[:i] {
			earlier.Set(ctx, key, *e)
		}
		return e, true
	}
	return nil, false
}

func (t *Tiered) Set(ctx context.Context, key string, e Entry) {
	for _, c := range t.tiers {
		c.Set(ctx, key, e)
	}
}
