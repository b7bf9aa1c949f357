package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	perr "galactly/internal/platform/errors"
	pnet "galactly/internal/platform/net"

	"golang.org/x/time/rate"
)

// RateLimitOptions configures the per caller token bucket
type RateLimitOptions struct {
	RPS   float64
	Burst int
	// Idle drops limiters not used for this long, 0 keeps them forever
	Idle time.Duration
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter hands out one token bucket per key
type Limiter struct {
	mu    sync.Mutex
	opt   RateLimitOptions
	byKey map[string]*bucket
	now   func() time.Time
}

// NewLimiter builds a keyed limiter. RPS <= 0 disables limiting
func NewLimiter(opt RateLimitOptions) *Limiter {
	if opt.Burst <= 0 {
		opt.Burst = 1
	}
	return &Limiter{opt: opt, byKey: map[string]*bucket{}, now: time.Now}
}

// Allow reports whether key may proceed now
func (l *Limiter) Allow(key string) bool {
	if l == nil || l.opt.RPS <= 0 {
		return true
	}
	l.mu.Lock()
	now := l.now()
	b, ok := l.byKey[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(l.opt.RPS), l.opt.Burst)}
		l.byKey[key] = b
	}
	b.seen = now
	if l.opt.Idle > 0 && len(l.byKey) > 1024 {
		for k, v := range l.byKey {
			if now.Sub(v.seen) > l.opt.Idle {
				delete(l.byKey, k)
			}
		}
	}
	lim := b.lim
	l.mu.Unlock()
	return lim.AllowN(now, 1)
}

// callerKey prefers the resolved identity and falls back to the client address
func callerKey(r *http.Request) string {
	if id := pnet.Identity(r.Context()); id != "" {
		return "id:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// RateLimit rejects callers exceeding their bucket with 429 rate_limited
// mount after Identity so buckets are keyed per identity
func RateLimit(l *Limiter, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.Allow(callerKey(r)) {
				next.ServeHTTP(w, r)
				return
			}
			retry := 1
			if l.opt.RPS > 0 && l.opt.RPS < 1 {
				retry = int(1/l.opt.RPS + 0.5)
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			err := perr.Reasonf(perr.ErrorCodeTooManyRequests, "rate_limited", "too many requests")
			status, body := pnet.Error(err, pnet.RequestID(r.Context()))
			write(w, status, body)
		})
	}
}
