package gateway

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/adapter"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/adapter/memory"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/lease"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/model"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/policy"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/remotecache"
)

func testTree() memory.Node {
	sessions := []memory.Node{
		{Name: "2023/24 Session", Files: []memory.Node{{Name: "CSC101.pdf", Size: 1024}}},
		{Name: "2024/25 Session", Files: []memory.Node{
			{Name: "CSC102.pdf", Size: 2048},
			{Name: "notes.docx", MIMEType: "application/msword"},
		}},
	}
	semesters := []memory.Node{
		{Name: "First Semester", Folders: sessions},
		{Name: "Second  Semester "},
	}
	return memory.Node{Folders: []memory.Node{
		{Name: "Computer Science ", Folders: []memory.Node{
			{Name: "100 Level", Folders: semesters},
			{Name: "200 Level"},
			{Name: "300 Level", Folders: semesters},
			{Name: "Old Stuff"},
		}},
		{Name: "Law", Folders: []memory.Node{
			{Name: "Contract Law"},
			{Name: "100 Level"},
		}},
	}}
}

func testPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	p, err := policy.Parse([]byte(`{
	  "departments": {
	    "Computer Science": {"levels": [100, 200]},
	    "Law": {"levels": ["contract law"], "shape": ["subject", "session"]}
	  }
	}`))
	if err != nil {
		t.Fatalf("policy.Parse failed: %v", err)
	}
	return p
}

func newTestGateway(t *testing.T, opts ...Option) (*Gateway, *memory.Adapter) {
	t.Helper()
	m, err := memory.FromTree(testTree())
	if err != nil {
		t.Fatalf("FromTree failed: %v", err)
	}
	return New(m, memory.RootID, testPolicy(t), opts...), m
}

func names(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestBrowse_Listings(t *testing.T) {
	g, _ := newTestGateway(t)

	tests := []struct {
		name string
		path string
		ct   model.ContentType
		want []string
	}{
		{"root lists every department", "/", model.Folders, []string{"Computer Science", "Law"}},
		{"empty path is root", "", model.Folders, []string{"Computer Science", "Law"}},
		{"department levels are filtered", "/Computer Science", model.Folders, []string{"100 Level", "200 Level"}},
		{"free-text subject rule", "/Law", model.Folders, []string{"Contract Law"}},
		{"semesters are not filtered", "/Computer Science/100 Level", model.Folders, []string{"First Semester", "Second Semester"}},
		{"sessions are not filtered", "/Computer Science/100 Level/First Semester", model.Folders, []string{"2023/24 Session", "2024/25 Session"}},
		{"placeholder segment", "/Computer Science/100 Level/First Semester/2024~25 Session", model.Files, []string{"CSC102.pdf"}},
		{"files at a folder without documents", "/Computer Science/200 Level", model.Files, []string{}},
		{"extra slashes", "//Computer Science///100 Level/", model.Folders, []string{"First Semester", "Second Semester"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := g.Browse(context.Background(), tt.path, tt.ct)
			if err != nil {
				t.Fatalf("Browse(%q) failed: %v", tt.path, err)
			}
			if got := names(l.Items); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Browse(%q) = %v, want %v", tt.path, got, tt.want)
			}
			if l.Items == nil {
				t.Error("Items must be non-nil")
			}
		})
	}
}

func TestBrowse_CanonicalPath(t *testing.T) {
	g, _ := newTestGateway(t)
	l, err := g.Browse(context.Background(), "//Computer Science///100 Level/", model.Folders)
	if err != nil {
		t.Fatalf("Browse failed: %v", err)
	}
	if l.Path != "/Computer Science/100 Level" {
		t.Errorf("Path = %q", l.Path)
	}
}

func TestBrowse_FileDescriptors(t *testing.T) {
	g, _ := newTestGateway(t)
	l, err := g.Browse(context.Background(), "/Computer Science/100 Level/First Semester/2023~24 Session", model.Files)
	if err != nil {
		t.Fatalf("Browse failed: %v", err)
	}
	if len(l.Items) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(l.Items))
	}
	f := l.Items[0]
	if f.Size == nil || *f.Size != 1024 {
		t.Errorf("Size = %v, want 1024", f.Size)
	}
	if f.WebViewLink == "" || f.WebContentLink == "" {
		t.Errorf("missing links: %+v", f)
	}
}

func TestBrowse_IdempotentRefetch(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()

	first, err := g.Browse(ctx, "/Computer Science/100 Level", model.Folders)
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Browse(ctx, "/Computer Science/100 Level", model.Folders)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Items, second.Items) {
		t.Errorf("listings differ:\n%v\n%v", first.Items, second.Items)
	}
}

func TestBrowse_WhitespaceNormalization(t *testing.T) {
	g, _ := newTestGateway(t)
	// The provider folder is literally "Computer Science " with a trailing space.
	for _, path := range []string{"/Computer Science", "/Computer  Science", "/ Computer Science "} {
		if _, err := g.Browse(context.Background(), path, model.Folders); err != nil {
			t.Errorf("Browse(%q) failed: %v", path, err)
		}
	}
}

func TestBrowse_NotFound(t *testing.T) {
	g, m := newTestGateway(t)

	tests := []struct {
		name    string
		path    string
		segment string
	}{
		{"unknown department", "/NoSuchDept/100 Level", "NoSuchDept"},
		{"filtered level cannot be navigated", "/Computer Science/300 Level", "300 Level"},
		{"unknown semester", "/Computer Science/100 Level/Third Semester", "Third Semester"},
		{"placeholder required for slash", "/Computer Science/100 Level/First Semester/2024/25 Session", "2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := m.Calls()
			_, err := g.Browse(context.Background(), tt.path, model.Folders)

			var nf *adapter.PathNotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("Expected PathNotFoundError, got %v", err)
			}
			if nf.Segment != tt.segment {
				t.Errorf("Segment = %q, want %q", nf.Segment, tt.segment)
			}
			if !errors.Is(err, adapter.ErrNotFound) || errors.Is(err, adapter.ErrUpstream) {
				t.Errorf("error classification wrong: %v", err)
			}
			if tt.name == "unknown department" && m.Calls()-before != 1 {
				t.Errorf("resolution continued past the failing segment: %d calls", m.Calls()-before)
			}
		})
	}
}

func TestBrowse_UpstreamFailure(t *testing.T) {
	g, m := newTestGateway(t)
	m.FailWith(errors.New("quota exceeded"))

	_, err := g.Browse(context.Background(), "/Computer Science", model.Folders)
	if !errors.Is(err, adapter.ErrUpstream) {
		t.Fatalf("Expected ErrUpstream, got %v", err)
	}
	if errors.Is(err, adapter.ErrNotFound) {
		t.Error("upstream failure must be distinguishable from NotFound")
	}
}

func TestBrowse_Configuration(t *testing.T) {
	m := memory.NewAdapter()
	for _, g := range []*Gateway{New(m, "", nil), New(nil, "root", nil)} {
		if _, err := g.Browse(context.Background(), "/", model.Folders); !errors.Is(err, adapter.ErrConfiguration) {
			t.Errorf("Expected ErrConfiguration, got %v", err)
		}
	}
}

func TestBrowse_InvalidContentType(t *testing.T) {
	g, _ := newTestGateway(t)
	if _, err := g.Browse(context.Background(), "/", model.ContentType("images")); err == nil {
		t.Error("expected error for unknown content type")
	}
}

func TestBrowse_CacheHitAndExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cache := remotecache.NewMemory(10*time.Minute, 100, remotecache.WithClock(clock))
	g, m := newTestGateway(t, WithCache(cache), WithClock(clock))
	ctx := context.Background()

	first, err := g.Browse(ctx, "/Computer Science", model.Folders)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("first call should be a miss")
	}
	calls := m.Calls()

	second, err := g.Browse(ctx, "/Computer Science/", model.Folders)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || m.Calls() != calls {
		t.Errorf("expected cache hit without provider calls (cached=%v, calls %d→%d)", second.Cached, calls, m.Calls())
	}
	if !second.FetchedAt.Equal(first.FetchedAt) {
		t.Error("cached listing should keep its FetchedAt")
	}

	files, err := g.Browse(ctx, "/Computer Science", model.Files)
	if err != nil {
		t.Fatal(err)
	}
	if files.Cached {
		t.Error("files and folders must be cached independently")
	}

	now = now.Add(10 * time.Minute)
	third, err := g.Browse(ctx, "/Computer Science", model.Folders)
	if err != nil {
		t.Fatal(err)
	}
	if third.Cached {
		t.Error("entry should have expired")
	}
}

func TestBrowse_ErrorsAreNotCached(t *testing.T) {
	cache := remotecache.NewMemory(time.Minute, 0)
	g, _ := newTestGateway(t, WithCache(cache))

	if _, err := g.Browse(context.Background(), "/Nope", model.Folders); err == nil {
		t.Fatal("expected error")
	}
	if cache.Len() != 0 {
		t.Errorf("failed browse populated the cache: %d entries", cache.Len())
	}
}

type brokenLeases struct{}

func (brokenLeases) Acquire(context.Context, string, string) (*lease.Lease, error) {
	return nil, errors.New("table unavailable")
}

func (brokenLeases) Release(context.Context, string, string) error { return nil }

func TestBrowse_FillLease(t *testing.T) {
	ctx := context.Background()
	key := remotecache.Key(model.Folders, "/Computer Science")

	t.Run("released after fill", func(t *testing.T) {
		leases := lease.NewMemoryManager(time.Minute)
		g, m := newTestGateway(t, WithCache(remotecache.NewMemory(time.Minute, 10)), WithFillLease(leases, time.Second))

		if _, err := g.Browse(ctx, "/Computer Science", model.Folders); err != nil {
			t.Fatalf("Browse failed: %v", err)
		}
		if m.Calls() == 0 {
			t.Error("expected provider calls")
		}
		if owner, ok := leases.Holder(key); ok {
			t.Errorf("lease still held by %q", owner)
		}
	})

	t.Run("waits for another instance", func(t *testing.T) {
		leases := lease.NewMemoryManager(time.Minute)
		cache := remotecache.NewMemory(time.Minute, 10)
		g, m := newTestGateway(t, WithCache(cache), WithFillLease(leases, 5*time.Second))

		if _, err := leases.Acquire(ctx, key, "other-instance"); err != nil {
			t.Fatal(err)
		}
		go func() {
			time.Sleep(150 * time.Millisecond)
			cache.Set(ctx, key, remotecache.Entry{Items: []model.Item{{ID: "x", Name: "100 Level"}}, FetchedAt: time.Now()})
		}()

		got, err := g.Browse(ctx, "/Computer Science", model.Folders)
		if err != nil {
			t.Fatalf("Browse failed: %v", err)
		}
		if !got.Cached || len(got.Items) != 1 || got.Items[0].ID != "x" {
			t.Errorf("expected the other instance's listing, got %+v", got)
		}
		if m.Calls() != 0 {
			t.Errorf("provider calls = %d, want 0", m.Calls())
		}
	})

	t.Run("fills itself after wait", func(t *testing.T) {
		leases := lease.NewMemoryManager(time.Minute)
		g, m := newTestGateway(t, WithCache(remotecache.NewMemory(time.Minute, 10)), WithFillLease(leases, 200*time.Millisecond))
		leases.Acquire(ctx, key, "stuck-instance")

		got, err := g.Browse(ctx, "/Computer Science", model.Folders)
		if err != nil {
			t.Fatalf("Browse failed: %v", err)
		}
		if got.Cached || m.Calls() == 0 {
			t.Errorf("expected a provider fill, cached=%v calls=%d", got.Cached, m.Calls())
		}
		if owner, _ := leases.Holder(key); owner != "stuck-instance" {
			t.Errorf("foreign lease should be untouched, holder %q", owner)
		}
	})

	t.Run("lease store failure does not block", func(t *testing.T) {
		g, _ := newTestGateway(t, WithFillLease(brokenLeases{}, time.Second))
		if _, err := g.Browse(ctx, "/Computer Science", model.Folders); err != nil {
			t.Errorf("Browse failed: %v", err)
		}
	})
}
