package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/adapter/memory"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/app"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/gateway"
)

func TestIPRateLimiter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := newIPRateLimiter(rate.Every(1<<62), 2).Middleware(ok)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/browse", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}
	if statuses[0] != 200 || statuses[1] != 200 || statuses[2] != http.StatusTooManyRequests {
		t.Errorf("statuses = %v", statuses)
	}

	req := httptest.NewRequest(http.MethodGet, "/browse", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other clients have their own bucket, got %d", rec.Code)
	}
}

func TestLambdaShim(t *testing.T) {
	m, err := memory.FromTree(memory.Node{Folders: []memory.Node{{Name: "Law"}}})
	if err != nil {
		t.Fatal(err)
	}
	h := lambdaShim(app.New(gateway.New(m, memory.RootID, nil), app.Options{}))

	req := httptest.NewRequest(http.MethodGet, "/api/browse?path=%2F&type=folders", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q", rec.Header().Get("X-Cache"))
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}
