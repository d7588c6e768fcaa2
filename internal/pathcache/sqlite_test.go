//go:build !(js && wasm)

package pathcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/model"
)

func openTestStore(t *testing.T, opts ...SQLiteOption) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"), opts...)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	if _, err := OpenSQLite("  "); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestSQLiteStore_CRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}

	if err := s.Put(ctx, "pastq:path:folders:/", []byte("v1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "pastq:path:folders:/", []byte("v2")); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}
	v, ok, err := s.Get(ctx, "pastq:path:folders:/")
	if err != nil || !ok || !bytes.Equal(v, []byte("v2")) {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}

	if err := s.Delete(ctx, "pastq:path:folders:/"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "pastq:path:folders:/"); ok {
		t.Error("expected key to be deleted")
	}
}

func TestSQLiteStore_KeysByPrefix(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, k := range []string{"pastq:path:files:/Law", "pastq:path:folders:/", "pastq:cache-version", "other", "pastq:path%"} {
		if err := s.Put(ctx, k, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}
	keys, err := s.Keys(ctx, KeyPrefix)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	want := []string{"pastq:path:files:/Law", "pastq:path:folders:/"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys = %v, want %v", keys, want)
	}
}

func TestSQLiteStore_QuotaExceeded(t *testing.T) {
	s := openTestStore(t, WithMaxBytes(64*1024))
	ctx := context.Background()

	big := bytes.Repeat([]byte("x"), 256*1024)
	err := s.Put(ctx, "big", big)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Expected ErrQuotaExceeded, got %v", err)
	}
	if err := s.Put(ctx, "small", []byte("ok")); err != nil {
		t.Errorf("small write after a full error should succeed: %v", err)
	}
}

func TestSQLiteStore_BacksCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := newTestCache(s)
	c.Set(ctx, "/Law", model.Folders, items("100 Level"))
	s.Close()

	// Entries survive reopening.
	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	c, _ = newTestCache(s)
	e, ok := c.Get(ctx, "/Law", model.Folders)
	if !ok || len(e.Items) != 1 {
		t.Fatalf("expected persisted entry, got %v %v", e, ok)
	}
}

func TestSQLiteStore_CacheEvictionUnderQuota(t *testing.T) {
	s := openTestStore(t, WithMaxBytes(96*1024))
	c, clock := newTestCache(s)
	ctx := context.Background()

	payload := items(string(bytes.Repeat([]byte("n"), 6*1024)))
	for i := 0; i < 40; i++ {
		c.Set(ctx, fmt.Sprintf("/Dept%02d", i), model.Folders, payload)
		clock.Advance(time.Minute)
	}
	if _, ok := c.Get(ctx, "/Dept39", model.Folders); !ok {
		t.Error("the newest entry should always fit after eviction")
	}
	if _, ok := c.Get(ctx, "/Dept00", model.Folders); ok {
		t.Error("the oldest entry should have been evicted")
	}
}
