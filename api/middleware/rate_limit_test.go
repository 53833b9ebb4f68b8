package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glowhaus/storefront-backend/internal/identity"
)

type memoryCounter struct {
	counts map[string]int64
	err    error
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{counts: make(map[string]int64)}
}

func (m *memoryCounter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryCounter) RateLimitKey(parts ...string) string {
	return "rl:" + strings.Join(parts, ":")
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	store := newMemoryCounter()
	h := RateLimit(NewRateLimitPolicy("Checkout", time.Minute, 2), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
		if resp.Code == http.StatusTooManyRequests && resp.Header().Get("Retry-After") != "60" {
			t.Fatalf("expected Retry-After 60, got %q", resp.Header().Get("Retry-After"))
		}
	}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
	if store.counts["rl:checkout:ip:10.0.0.1"] != 3 {
		t.Fatalf("expected ip counter 3, got %v", store.counts)
	}
}

func TestRateLimitCountsSignedInUser(t *testing.T) {
	store := newMemoryCounter()
	h := RateLimit(NewRateLimitPolicy("checkout", time.Minute, 1), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for i, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req.Header.Set("X-Forwarded-For", ip+", 172.16.0.1")
		req = req.WithContext(identity.WithUser(req.Context(), &identity.User{UID: "u-1"}))
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, req)
		if i == 1 && resp.Code != http.StatusTooManyRequests {
			t.Fatalf("second request from the same user should be limited, got %d", resp.Code)
		}
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	store := newMemoryCounter()
	store.err = errors.New("redis down")
	h := RateLimit(NewRateLimitPolicy("checkout", time.Minute, 1), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected request through, got %d", resp.Code)
	}
}

func TestRateLimitDisabledPolicy(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if h := RateLimit(NewRateLimitPolicy("checkout", 0, 5), newMemoryCounter(), nil)(next); h == nil {
		t.Fatalf("expected passthrough handler")
	}
}
