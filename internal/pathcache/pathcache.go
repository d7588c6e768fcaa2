// Package pathcache memoizes directory listings per (path, content type)
// in a durable key-value Store, with two freshness tiers.
//
// The cache is best-effort: Get and Set never fail. Store errors and
// corrupt entries read as a miss, and a write that cannot fit after
// eviction is dropped.
package pathcache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/folderpath"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/logging"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/model"
)

const (
	// KeyPrefix namespaces every entry this package owns.
	KeyPrefix = "pastq:path:"

	// Version is bumped whenever the entry encoding changes.
	Version = "2"

	// EvictBatch is how many entries Set evicts on a quota failure.
	EvictBatch = 10

	versionKey = "pastq:cache-version"
)

// Freshness thresholds. The root listing (departments) changes rarely.
const (
	SoftTTL     = 6 * time.Hour
	RootSoftTTL = 24 * time.Hour
	HardTTL     = 24 * time.Hour
	RootHardTTL = 7 * 24 * time.Hour
)

// IsStale reports whether a listing of path that is age old should be refreshed.
func IsStale(age time.Duration, path string) bool {
	if folderpath.IsRoot(path) {
		return age > RootSoftTTL
	}
	return age > SoftTTL
}

// IsExpired reports whether a listing of path that is age old must not be shown.
func IsExpired(age time.Duration, path string) bool {
	if folderpath.IsRoot(path) {
		return age > RootHardTTL
	}
	return age > HardTTL
}

// Entry is one cached listing.
type Entry struct {
	Path      string
	Type      model.ContentType
	Items     []model.Item
	FetchedAt time.Time
}

type storedEntry struct {
	Path      string            `json:"path"`
	Type      model.ContentType `json:"type"`
	Data      []model.Item      `json:"data"`
	FetchedAt int64             `json:"fetchedAt"` // unix milliseconds
}

// Cache is the path cache. Construct one per process and share it.
type Cache struct {
	store Store
	now   func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache over store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the store key for (path, ct).
func Key(path string, ct model.ContentType) string {
	return KeyPrefix + string(ct) + ":" + folderpath.Canonical(path)
}

// Get returns the entry for (path, ct). Corrupt entries are logged and
// reported as absent; they are left in place for Set to overwrite.
func (c *Cache) Get(ctx context.Context, path string, ct model.ContentType) (*Entry, bool) {
	key := Key(path, ct)
	log := logging.WithContext(ctx).With(zap.String("key", key))

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.Warn("path cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var se storedEntry
	if err := json.Unmarshal(raw, &se); err != nil {
		log.Warn("path cache entry corrupt", zap.Error(err))
		return nil, false
	}
	if se.Data == nil || se.FetchedAt <= 0 {
		log.Warn("path cache entry incomplete")
		return nil, false
	}
	return &Entry{
		Path:      folderpath.Canonical(path),
		Type:      ct,
		Items:     se.Data,
		FetchedAt: time.UnixMilli(se.FetchedAt),
	}, true
}

// Set stores the full listing for (path, ct), overwriting any previous one.
func (c *Cache) Set(ctx context.Context, path string, ct model.ContentType, items []model.Item) {
	if items == nil {
		items = []model.Item{}
	}
	key := Key(path, ct)
	log := logging.WithContext(ctx).With(zap.String("key", key))

	raw, err := json.Marshal(storedEntry{
		Path:      folderpath.Canonical(path),
		Type:      ct,
		Data:      items,
		FetchedAt: c.now().UnixMilli(),
	})
	if err != nil {
		log.Warn("path cache encode failed", zap.Error(err))
		return
	}

	err = c.store.Put(ctx, key, raw)
	if errors.Is(err, ErrQuotaExceeded) {
		evicted := c.evictOldest(ctx, EvictBatch)
		log.Info("path cache quota exceeded; evicted oldest entries", zap.Int("evicted", evicted))
		err = c.store.Put(ctx, key, raw)
	}
	if err != nil {
		log.Warn("path cache write dropped", zap.Error(err))
	}
}

// Invalidate removes both content types for path.
func (c *Cache) Invalidate(ctx context.Context, path string) {
	for _, ct := range []model.ContentType{model.Folders, model.Files} {
		if err := c.store.Delete(ctx, Key(path, ct)); err != nil {
			logging.WithContext(ctx).Warn("path cache delete failed", zap.String("path", path), zap.Error(err))
		}
	}
}

// ClearAll removes every entry this cache owns. Other keys are untouched.
func (c *Cache) ClearAll(ctx context.Context) int {
	keys, err := c.store.Keys(ctx, KeyPrefix)
	if err != nil {
		logging.WithContext(ctx).Warn("path cache list failed", zap.Error(err))
		return 0
	}
	removed := 0
	for _, k := range keys {
		if err := c.store.Delete(ctx, k); err != nil {
			logging.WithContext(ctx).Warn("path cache delete failed", zap.String("key", k), zap.Error(err))
			continue
		}
		removed++
	}
	return removed
}

// EnsureVersion clears every entry when the stored version marker differs
// from Version, then records the current version.
func (c *Cache) EnsureVersion(ctx context.Context) {
	raw, ok, err := c.store.Get(ctx, versionKey)
	if err != nil {
		logging.WithContext(ctx).Warn("path cache version read failed", zap.Error(err))
		return
	}
	if ok && string(raw) == Version {
		return
	}
	removed := c.ClearAll(ctx)
	logging.WithContext(ctx).Info("path cache version changed; cleared",
		zap.String("from", string(raw)), zap.String("to", Version), zap.Int("removed", removed))
	if err := c.store.Put(ctx, versionKey, []byte(Version)); err != nil {
		logging.WithContext(ctx).Warn("path cache version write failed", zap.Error(err))
	}
}

// IsStale reports whether e is past its soft TTL.
func (c *Cache) IsStale(e *Entry) bool {
	return IsStale(c.now().Sub(e.FetchedAt), e.Path)
}

// IsExpired reports whether e is past its hard TTL.
func (c *Cache) IsExpired(e *Entry) bool {
	return IsExpired(c.now().Sub(e.FetchedAt), e.Path)
}

// evictOldest deletes up to n entries, unreadable ones first, then by
// ascending fetchedAt.
func (c *Cache) evictOldest(ctx context.Context, n int) int {
	keys, err := c.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return 0
	}

	type candidate struct {
		key       string
		fetchedAt int64
	}
	candidates := make([]candidate, 0, len(keys))
	for _, k := range keys {
		cand := candidate{key: k}
		if raw, ok, err := c.store.Get(ctx, k); err == nil && ok {
			var se storedEntry
			if json.Unmarshal(raw, &se) == nil {
				cand.fetchedAt = se.FetchedAt
			}
		}
		candidates = append(candidates, cand)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].fetchedAt < candidates[j].fetchedAt
	})

	evicted := 0
	for _, cand := range candidates {
		if evicted == n {
			break
		}
		if c.store.Delete(ctx, cand.key) == nil {
			evicted++
		}
	}
	return evicted
}
