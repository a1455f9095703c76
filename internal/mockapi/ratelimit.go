package mockapi

import (
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/time/rate"
)

// VisitorHeader carries the widget's visitor ID so the limiter keys on the
// visitor rather than the shared harness IP.
const VisitorHeader = "X-Visitor-Id"

// RateLimiter is a per-client token bucket. Clients are keyed by the visitor
// header when present, falling back to the remote IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing rps sustained requests with the
// given burst per client
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// limiter returns the bucket for a key, creating it full on first sight
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	lim, ok := rl.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[key] = lim
	}
	return lim
}

// key extracts the client key from a request
func (rl *RateLimiter) key(r *http.Request) string {
	if v := r.Header.Get(VisitorHeader); v != "" {
		return v
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// Middleware wraps next, answering over-limit requests with 429 and a
// Retry-After header derived from when the bucket will next have a token
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.key(r)
		lim := rl.limiter(key)

		reservation := lim.Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()

			retryAfter := int(math.Ceil(delay.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			log.Printf("Rate limit hit for %s on %s, retry after %ds", key, r.URL.Path, retryAfter)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.FormatFloat(float64(rl.rps), 'f', -1, 64))
			w.Header().Set("X-RateLimit-Burst", strconv.Itoa(rl.burst))
			writeError(w, "You're sending messages a little too quickly. Please wait a moment and try again.", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
