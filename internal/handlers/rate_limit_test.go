package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/teknofix/api/internal/platform/auth"
)

func TestSimpleRateLimiterWindow(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := newSimpleRateLimiter(2, time.Minute, func() time.Time { return current })

	if !limiter.Allow("uid:user-1") || !limiter.Allow("uid:user-1") {
		t.Fatalf("expected first two requests to pass")
	}
	if limiter.Allow("uid:user-1") {
		t.Fatalf("expected third request to be rejected")
	}
	if !limiter.Allow("uid:user-2") {
		t.Fatalf("expected a different caller to pass")
	}

	current = current.Add(2 * time.Minute)
	if !limiter.Allow("uid:user-1") {
		t.Fatalf("expected the window to reset")
	}
}

func TestRateLimitMiddlewareKeysByIdentity(t *testing.T) {
	handler := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(uid string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if uid != "" {
			req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: uid}))
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("user-1"); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send("user-1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be limited, got %d", code)
	}
	if code := send("user-2"); code != http.StatusOK {
		t.Fatalf("expected a different user to pass, got %d", code)
	}
}

func TestRateLimitDisabledWhenNonPositive(t *testing.T) {
	handler := RateLimit(0, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected request %d to pass, got %d", i, rr.Code)
		}
	}
}
