package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/cart"
)

type countingLimiter struct {
	counts map[string]int64
	err    error
}

func (c *countingLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if c.err != nil {
		return false, 0, c.err
	}
	c.counts[scope]++
	return c.counts[scope] <= limit, c.counts[scope], nil
}

func TestRateLimitPerIdentity(t *testing.T) {
	store := &countingLimiter{counts: map[string]int64{}}
	h := RateLimit(RateLimitPolicy{Name: "checkout", Window: time.Minute, Limit: 2}, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(sid string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req = req.WithContext(WithIdentity(req.Context(), cart.Identity{SessionID: sid}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("a"); code != http.StatusNoContent {
			t.Fatalf("request %d status = %d", i, code)
		}
	}
	if code := send("a"); code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", code)
	}
	if code := send("b"); code != http.StatusNoContent {
		t.Fatalf("other shopper status = %d, want 204", code)
	}
	if _, ok := store.counts["checkout:session:a"]; !ok {
		t.Fatalf("unexpected scopes %v", store.counts)
	}
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	store := &countingLimiter{counts: map[string]int64{}}
	h := RateLimit(RateLimitPolicy{Name: "checkout", Window: time.Minute, Limit: 1}, store, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if store.counts["checkout:ip:203.0.113.7"] != 1 {
		t.Fatalf("unexpected scopes %v", store.counts)
	}
}

func TestRateLimitStoreFailure(t *testing.T) {
	store := &countingLimiter{err: errors.New("redis down")}
	h := RateLimit(RateLimitPolicy{Window: time.Minute, Limit: 1}, store, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestRateLimitDisabledPolicy(t *testing.T) {
	called := false
	h := RateLimit(RateLimitPolicy{}, &countingLimiter{err: errors.New("unused")}, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("disabled policy should pass through")
	}
}
