package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// CallerHeader identifies the wallet address a request acts for. Mint rate
// limits key on it so one hot drop cannot be farmed from a single wallet
// behind rotating IPs; requests without it fall back to the client IP.
const CallerHeader = "X-Caller"

// rateLimitConfig holds the rate limiter settings.
type rateLimitConfig struct {
	rps   rate.Limit
	burst int
}

// CallerRateLimiter manages per-caller token buckets.
type CallerRateLimiter struct {
	callers map[string]*callerBucket
	mu      sync.Mutex
	config  rateLimitConfig
}

// callerBucket tracks the limiter and last seen time for one caller key.
type callerBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewCallerRateLimiter creates a rate limiter allowing rps requests per
// second with the given burst, per caller.
func NewCallerRateLimiter(rps int, burst int) *CallerRateLimiter {
	rl := &CallerRateLimiter{
		callers: make(map[string]*callerBucket),
		config: rateLimitConfig{
			rps:   rate.Limit(rps),
			burst: burst,
		},
	}
	go rl.cleanup()
	return rl
}

func (rl *CallerRateLimiter) bucket(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.callers[key]
	if !exists {
		limiter := rate.NewLimiter(rl.config.rps, rl.config.burst)
		rl.callers[key] = &callerBucket{limiter, time.Now()}
		return limiter
	}

	b.lastSeen = time.Now()
	return b.limiter
}

// cleanup removes stale buckets. Checks every minute, removes entries idle
// for more than 3 minutes.
func (rl *CallerRateLimiter) cleanup() {
	for {
		time.Sleep(1 * time.Minute)
		rl.mu.Lock()
		for key, b := range rl.callers {
			if time.Since(b.lastSeen) > 3*time.Minute {
				delete(rl.callers, key)
			}
		}
		rl.mu.Unlock()
	}
}

// callerKey resolves the limiting key for a request.
func callerKey(r *http.Request) string {
	if caller := strings.TrimSpace(r.Header.Get(CallerHeader)); caller != "" {
		return "caller:" + strings.ToLower(caller)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = strings.TrimSuffix(strings.TrimPrefix(r.RemoteAddr, "["), "]")
	}
	return "ip:" + ip
}

// Middleware returns a Handler that enforces the per-caller rate limit.
func (rl *CallerRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.bucket(callerKey(r)).Allow() {
			WriteTooManyRequests(w, 5)
			return
		}
		next.ServeHTTP(w, r)
	})
}
