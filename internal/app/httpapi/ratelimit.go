package httpapi

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// limiterReset caps the key map so long-running servers do not accumulate
// buckets for callers that never return.
const limiterReset = 10000

// rateLimiter keeps a token bucket per caller, keyed by user id for
// authenticated requests and remote address otherwise.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newRateLimiter(perSecond, burst int) *rateLimiter {
	return &rateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	lim, ok := rl.limiters[key]
	if !ok {
		if len(rl.limiters) >= limiterReset {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = lim
	}
	rl.mu.Unlock()

	return lim.Allow()
}

// rateLimitMiddleware rejects callers that exhaust their request budget.
func (h *Handler) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := principalFrom(r).UID
		if key == "" {
			key = r.RemoteAddr
		}
		if !h.limits.allow(key) {
			h.log.WithField("key", key).WithField("path", r.URL.Path).Warn("rate limit exceeded")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
