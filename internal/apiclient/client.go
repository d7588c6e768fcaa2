// Package apiclient is the cache-aware read path in front of the browse
// gateway: fresh cache hits are served locally, stale hits are served and
// refreshed in the background, and misses block on the gateway.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/adapter"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/folderpath"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/logging"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/model"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/pathcache"
)

// Source says where a Result came from.
type Source string

const (
	SourceCache    Source = "cache"    // fresh cache hit
	SourceStale    Source = "stale"    // stale cache hit, refresh started
	SourceNetwork  Source = "network"  // fetched from the gateway
	SourceFallback Source = "fallback" // refresh failed, previous data kept
)

// Result is one listing handed to the caller.
type Result struct {
	Path      string
	Type      model.ContentType
	Items     []model.Item
	Source    Source
	FetchedAt time.Time
	// Warning is set when Items are older data shown in place of a failed refresh.
	Warning string
}

// Client fetches listings through a pathcache.Cache.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	cache          *pathcache.Cache
	refreshTimeout time.Duration

	group      singleflight.Group
	background sync.WaitGroup
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient     *http.Client
	retryMax       int
	retryWaitMin   time.Duration
	retryWaitMax   time.Duration
	refreshTimeout time.Duration
}

// WithHTTPClient sets the underlying transport client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithRetry sets the retry budget for transient gateway failures.
func WithRetry(max int, waitMin, waitMax time.Duration) Option {
	return func(o *clientOptions) {
		o.retryMax, o.retryWaitMin, o.retryWaitMax = max, waitMin, waitMax
	}
}

// WithRefreshTimeout bounds each shared gateway load and background refresh.
func WithRefreshTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.refreshTimeout = d }
}

// New creates a Client for the gateway at baseURL (e.g. "https://host/api").
func New(baseURL string, cache *pathcache.Cache, opts ...Option) *Client {
	o := clientOptions{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		retryMax:       3,
		retryWaitMin:   500 * time.Millisecond,
		retryWaitMax:   5 * time.Second,
		refreshTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = o.httpClient
	retryClient.RetryMax = o.retryMax
	retryClient.RetryWaitMin = o.retryWaitMin
	retryClient.RetryWaitMax = o.retryWaitMax
	retryClient.CheckRetry = checkRetry
	retryClient.Logger = &retryLogger{}

	return &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     retryClient.StandardClient(),
		cache:          cache,
		refreshTimeout: o.refreshTimeout,
	}
}

// Fetch returns the listing of (path, ct). Concurrent calls for the same
// key share one lookup; a caller whose ctx ends stops waiting without
// cancelling the lookup for the others.
func (c *Client) Fetch(ctx context.Context, path string, ct model.ContentType) (*Result, error) {
	path = folderpath.Canonical(path)
	return c.shared(ctx, pathcache.Key(path, ct), func(loadCtx context.Context) (*Result, error) {
		return c.fetch(loadCtx, path, ct)
	})
}

// shared runs fn once per key among concurrent callers. fn gets a context
// detached from any single caller and bounded by the refresh timeout.
func (c *Client) shared(ctx context.Context, key string, fn func(context.Context) (*Result, error)) (*Result, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		return fn(loadCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Result), nil
	}
}

func (c *Client) fetch(ctx context.Context, path string, ct model.ContentType) (*Result, error) {
	if e, ok := c.cache.Get(ctx, path, ct); ok && !c.cache.IsExpired(e) {
		res := &Result{Path: path, Type: ct, Items: e.Items, Source: SourceCache, FetchedAt: e.FetchedAt}
		if c.cache.IsStale(e) {
			res.Source = SourceStale
			c.refreshInBackground(path, ct)
		}
		return res, nil
	}
	return c.load(ctx, path, ct)
}

// Refresh drops the cached entries for path and fetches (path, ct) again.
// When the gateway fails upstream and the dropped entry had not expired,
// that entry is returned with a Warning instead of the error.
func (c *Client) Refresh(ctx context.Context, path string, ct model.ContentType) (*Result, error) {
	path = folderpath.Canonical(path)
	prev, hadPrev := c.cache.Get(ctx, path, ct)
	c.cache.Invalidate(ctx, path)

	res, err := c.shared(ctx, "reload:"+pathcache.Key(path, ct), func(loadCtx context.Context) (*Result, error) {
		return c.load(loadCtx, path, ct)
	})
	if err == nil {
		return res, nil
	}
	if hadPrev && !c.cache.IsExpired(prev) && errors.Is(err, adapter.ErrUpstream) {
		logging.WithContext(ctx).Warn("refresh failed; keeping previous listing", zap.String("path", path), zap.Error(err))
		return &Result{
			Path:      path,
			Type:      ct,
			Items:     prev.Items,
			Source:    SourceFallback,
			FetchedAt: prev.FetchedAt,
			Warning:   "showing saved data: " + err.Error(),
		}, nil
	}
	return nil, err
}

// Wait blocks until every background refresh has finished.
func (c *Client) Wait() {
	c.background.Wait()
}

func (c *Client) refreshInBackground(path string, ct model.ContentType) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
		defer cancel()

		_, err, _ := c.group.Do("refresh:"+pathcache.Key(path, ct), func() (any, error) {
			return c.load(ctx, path, ct)
		})
		if err != nil {
			logging.L().Warn("background refresh failed",
				zap.String("path", path), zap.String("type", string(ct)), zap.Error(err))
		}
	}()
}

// load fetches from the gateway and stores the result.
func (c *Client) load(ctx context.Context, path string, ct model.ContentType) (*Result, error) {
	body, err := c.browse(ctx, path, ct)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, path, ct, body.Data)
	return &Result{
		Path:      path,
		Type:      ct,
		Items:     body.Data,
		Source:    SourceNetwork,
		FetchedAt: time.UnixMilli(body.Timestamp),
	}, nil
}

func (c *Client) browse(ctx context.Context, path string, ct model.ContentType) (*model.BrowseResponse, error) {
	q := url.Values{"path": {path}, "type": {string(ct)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/browse?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build browse request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", adapter.ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", adapter.ErrUpstream, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var body model.BrowseResponse
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("%w: decode listing: %w", adapter.ErrUpstream, err)
		}
		if body.Data == nil {
			body.Data = []model.Item{}
		}
		return &body, nil
	case http.StatusNotFound:
		var body model.ErrorResponse
		_ = json.Unmarshal(data, &body)
		nf := &adapter.PathNotFoundError{Segment: body.Segment, Path: body.Path}
		if nf.Path == "" {
			nf.Path = path
		}
		return nil, nf
	default:
		var body model.ErrorResponse
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			msg = body.Error
			if body.Message != "" {
				msg += ": " + body.Message
			}
		}
		return nil, fmt.Errorf("%w: gateway returned %d: %s", adapter.ErrUpstream, resp.StatusCode, msg)
	}
}

// checkRetry retries transport failures and gateway-side 502/503/504.
// The gateway itself never retries Drive, so anything else is final.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

// retryLogger implements retryablehttp.LeveledLogger on top of zap.
type retryLogger struct{}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	logging.L().Sugar().Errorw(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	logging.L().Sugar().Debugw(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	logging.L().Sugar().Warnw(msg, keysAndValues...)
}
