package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewCallerRateLimiter(10, 3)
	h := rl.Middleware(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mint/public", nil)
		req.Header.Set(CallerHeader, "alice")
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiterRejectsBeyondBurst(t *testing.T) {
	rl := NewCallerRateLimiter(1, 1)
	h := rl.Middleware(okHandler())

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mint/public", nil)
	req.Header.Set(CallerHeader, "alice")
	h.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "5", second.Header().Get("Retry-After"))
}

func TestRateLimiterIsPerCaller(t *testing.T) {
	rl := NewCallerRateLimiter(1, 1)
	h := rl.Middleware(okHandler())

	reqA := httptest.NewRequest(http.MethodPost, "/mint/public", nil)
	reqA.Header.Set(CallerHeader, "alice")
	reqB := httptest.NewRequest(http.MethodPost, "/mint/public", nil)
	reqB.Header.Set(CallerHeader, "bob")

	recA := httptest.NewRecorder()
	h.ServeHTTP(recA, reqA)
	require.Equal(t, http.StatusOK, recA.Code)

	// Alice is out of budget; Bob is not.
	recA2 := httptest.NewRecorder()
	h.ServeHTTP(recA2, reqA)
	assert.Equal(t, http.StatusTooManyRequests, recA2.Code)

	recB := httptest.NewRecorder()
	h.ServeHTTP(recB, reqB)
	assert.Equal(t, http.StatusOK, recB.Code)
}

func TestCallerKeyFallsBackToIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "ip:10.1.2.3", callerKey(req))

	req.Header.Set(CallerHeader, "0xAlice")
	assert.Equal(t, "caller:0xalice", callerKey(req))
}

func TestIdempotencyMiddlewareReplays(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	calls := 0
	h := IdempotencyMiddleware(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"first_id":1}`))
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mint/public", nil)
		req.Header.Set("Idempotency-Key", "mint-abc")
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `{"first_id":1}`, rec.Body.String())
	}
	assert.Equal(t, 1, calls, "handler should run once for a repeated key")
}

func TestIdempotencyMiddlewareSkipsFailures(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	calls := 0
	h := IdempotencyMiddleware(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		WriteError(w, http.StatusConflict, "Conflict", "sold out")
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mint/public", nil)
		req.Header.Set("Idempotency-Key", "mint-xyz")
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	}
	assert.Equal(t, 2, calls, "rejections are retryable")
}

func TestIdempotencyMiddlewareIgnoresReads(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	calls := 0
	h := IdempotencyMiddleware(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/collections/list", nil)
		req.Header.Set("Idempotency-Key", "read-1")
		h.ServeHTTP(rec, req)
	}
	assert.Equal(t, 2, calls)
}
