// Package gateway resolves logical folder paths against a storage provider
// and lists the children of the resolved folder.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/adapter"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/folderpath"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/lease"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/logging"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/metrics"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/model"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/policy"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/remotecache"
)

// Listing is the result of one Browse call.
type Listing struct {
	Path      string
	Type      model.ContentType
	Items     []model.Item
	Cached    bool
	FetchedAt time.Time
}

// Gateway walks the provider's folder tree from a configured root.
type Gateway struct {
	provider adapter.Provider
	rootID   string
	policy   *policy.Policy
	cache    remotecache.Cache
	now      func() time.Time

	leases    lease.Manager
	leaseWait time.Duration
	owner     string
}

// fillPollInterval is how often a waiting instance re-reads the cache.
const fillPollInterval = 100 * time.Millisecond

// Option configures a Gateway.
type Option func(*Gateway)

// WithCache sets the listing cache. The default caches nothing.
func WithCache(c remotecache.Cache) Option {
	return func(g *Gateway) { g.cache = c }
}

// WithClock overrides the time source used for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithFillLease makes cache misses take a fill lease on the key first. When
// another instance holds it, Browse polls the cache for up to wait before
// listing the provider itself.
func WithFillLease(m lease.Manager, wait time.Duration) Option {
	return func(g *Gateway) {
		g.leases = m
		g.leaseWait = wait
	}
}

// New creates a Gateway rooted at rootID. A nil policy uses policy.Default.
func New(provider adapter.Provider, rootID string, pol *policy.Policy, opts ...Option) *Gateway {
	if pol == nil {
		pol = policy.Default()
	}
	g := &Gateway{
		provider: provider,
		rootID:   rootID,
		policy:   pol,
		cache:    remotecache.Nop{},
		now:      time.Now,
		owner:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Browse resolves path segment by segment and lists the folders or files
// directly under it.
//
// Errors: *adapter.PathNotFoundError when a segment does not resolve,
// adapter.ErrUpstream when a provider call fails, adapter.ErrConfiguration
// when no provider or root folder is configured.
func (g *Gateway) Browse(ctx context.Context, path string, ct model.ContentType) (*Listing, error) {
	if g.provider == nil || g.rootID == "" {
		return nil, fmt.Errorf("%w: drive root folder id is not set", adapter.ErrConfiguration)
	}
	if ct != model.Folders && ct != model.Files {
		return nil, fmt.Errorf("browse: invalid content type %q", ct)
	}

	canonical := folderpath.Canonical(path)
	key := remotecache.Key(ct, canonical)
	log := logging.WithContext(ctx).With(zap.String("path", canonical), zap.String("type", string(ct)))

	if e, ok := g.cache.Get(ctx, key); ok {
		metrics.RecordCacheLookup(true)
		log.Debug("gateway cache hit")
		return &Listing{Path: canonical, Type: ct, Items: e.Items, Cached: true, FetchedAt: e.FetchedAt}, nil
	}
	metrics.RecordCacheLookup(false)

	release, held := g.claimFill(ctx, key, log)
	if !held {
		if e, ok := g.awaitFill(ctx, key); ok {
			log.Debug("listing filled by another instance")
			return &Listing{Path: canonical, Type: ct, Items: e.Items, Cached: true, FetchedAt: e.FetchedAt}, nil
		}
		log.Debug("fill lease wait elapsed, listing provider")
	}
	defer release()

	segments := folderpath.Split(canonical)
	folderID, err := g.resolve(ctx, canonical, segments)
	if err != nil {
		return nil, err
	}

	var items []model.Item
	switch ct {
	case model.Folders:
		items, err = g.listFolders(ctx, folderID, segments)
	case model.Files:
		items, err = g.listFiles(ctx, folderID)
	}
	if err != nil {
		return nil, err
	}

	fetchedAt := g.now()
	g.cache.Set(ctx, key, remotecache.Entry{Items: items, FetchedAt: fetchedAt})
	log.Debug("listing fetched", zap.Int("count", len(items)))

	return &Listing{Path: canonical, Type: ct, Items: items, FetchedAt: fetchedAt}, nil
}

// claimFill takes the fill lease on key. held is false when another owner
// has it. Lease store failures never block the fill.
func (g *Gateway) claimFill(ctx context.Context, key string, log *zap.Logger) (release func(), held bool) {
	noop := func() {}
	if g.leases == nil {
		return noop, true
	}
	_, err := g.leases.Acquire(ctx, key, g.owner)
	switch {
	case err == nil:
		return func() {
			if err := g.leases.Release(context.WithoutCancel(ctx), key, g.owner); err != nil {
				log.Warn("fill lease release failed", zap.Error(err))
			}
		}, true
	case errors.Is(err, lease.ErrHeld):
		return noop, false
	default:
		log.Warn("fill lease unavailable", zap.Error(err))
		return noop, true
	}
}

// awaitFill polls the cache until key appears, wait elapses or ctx ends.
func (g *Gateway) awaitFill(ctx context.Context, key string) (*remotecache.Entry, bool) {
	timeout := time.NewTimer(g.leaseWait)
	defer timeout.Stop()
	ticker := time.NewTicker(fillPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-timeout.C:
			return nil, false
		case <-ticker.C:
			if e, ok := g.cache.Get(ctx, key); ok {
				return e, true
			}
		}
	}
}

// resolve returns the provider ID of the folder addressed by segments.
// Segments are resolved strictly in order; the first miss is terminal.
func (g *Gateway) resolve(ctx context.Context, canonical string, segments []string) (string, error) {
	id := g.rootID
	for i, seg := range segments {
		children, err := g.provider.ListFolders(ctx, id)
		if err != nil {
			return "", upstream(err)
		}
		if i == 1 {
			children = g.filterLevels(segments[0], children)
		}

		next := ""
		for _, child := range children {
			if folderpath.Matches(seg, child.Name) {
				next = child.ID
				break
			}
		}
		if next == "" {
			return "", &adapter.PathNotFoundError{Segment: seg, Path: canonical}
		}
		id = next
	}
	return id, nil
}

func (g *Gateway) listFolders(ctx context.Context, folderID string, segments []string) ([]model.Item, error) {
	children, err := g.provider.ListFolders(ctx, folderID)
	if err != nil {
		return nil, upstream(err)
	}
	if len(segments) == 1 {
		children = g.filterLevels(segments[0], children)
	}

	items := make([]model.Item, 0, len(children))
	for _, c := range children {
		items = append(items, model.Item{
			ID:           c.ID,
			Name:         folderpath.NormalizeName(c.Name),
			ModifiedTime: c.ModifiedTime,
		})
	}
	return items, nil
}

func (g *Gateway) listFiles(ctx context.Context, folderID string) ([]model.Item, error) {
	files, err := g.provider.ListFiles(ctx, folderID)
	if err != nil {
		return nil, upstream(err)
	}

	items := make([]model.Item, 0, len(files))
	for _, f := range files {
		item := model.Item{
			ID:             f.ID,
			Name:           f.Name,
			ModifiedTime:   f.ModifiedTime,
			WebViewLink:    f.WebViewLink,
			WebContentLink: f.WebContentLink,
		}
		if f.HasSize {
			size := f.Size
			item.Size = &size
		}
		items = append(items, item)
	}
	return items, nil
}

// filterLevels keeps the children of a department its policy allows.
func (g *Gateway) filterLevels(department string, children []adapter.FileMetadata) []adapter.FileMetadata {
	kept := children[:0:0]
	for _, c := range children {
		if g.policy.Allows(department, c.Name) {
			kept = append(kept, c)
		}
	}
	return kept
}

func upstream(err error) error {
	return fmt.Errorf("%w: %w", adapter.ErrUpstream, err)
}
