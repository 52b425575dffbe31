/*
Package limiter provides request rate limiting keyed by client IP address or visitor id.

It utilizes the Token Bucket algorithm (rate.Limiter) to control the request frequency
for each key and includes a cleanup goroutine to periodically remove inactive limiters,
preventing memory leaks.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"studiosite/internal/pkg/errs"
	"studiosite/internal/pkg/logx"
	"studiosite/internal/pkg/resp"
)

const cleanupInterval = 3 * time.Minute

// KeyFunc extracts the limiting key from a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// RateLimiter holds one token bucket per key.
type RateLimiter struct {
	// mu is used to protect concurrent access to the limits map.
	mu sync.RWMutex

	// limits stores the map from key to the *rate.Limiter instance.
	limits map[string]*rate.Limiter

	// r is the number of events allowed per second.
	r rate.Limit

	// b is the burst size (token bucket size) of each limiter.
	b int

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a RateLimiter with rate r and burst b, and starts its cleanup goroutine.
func New(r rate.Limit, b int) *RateLimiter {
	l := &RateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		stop:   make(chan struct{}),
	}

	go l.cleanUpLoop()

	return l
}

// GetLimiter retrieves the limiter for key, creating it on first use.
func (l *RateLimiter) GetLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limits[key]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		limiter, exists = l.limits[key]
		if !exists {
			limiter = rate.NewLimiter(l.r, l.b)
			l.limits[key] = limiter
		}
		l.mu.Unlock()
	}

	return limiter
}

// Allow reports whether one more event for key fits in its bucket.
func (l *RateLimiter) Allow(key string) bool {
	return l.GetLimiter(key).Allow()
}

// Close stops the cleanup goroutine.
func (l *RateLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *RateLimiter) cleanUpLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			removed, remaining := l.cleanUp(now)
			logx.Debug("Rate limiter cleanup finished", "removed", removed, "active", remaining)
		case <-l.stop:
			return
		}
	}
}

// cleanUp drops limiters whose bucket has refilled, i.e. keys that went quiet.
func (l *RateLimiter) cleanUp(now time.Time) (removed, remaining int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, limiter := range l.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(l.limits, key)
			removed++
		}
	}
	return removed, len(l.limits)
}

// Middleware rejects requests over the limit with ErrRateLimitExceeded.
func (l *RateLimiter) Middleware(key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k != "" && !l.Allow(k) {
				logx.Warn("Request rejected: rate limit exceeded", "key", k, "path", r.URL.Path)
				resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ByIP keys requests by client IP. Run it after middleware.RealIP.
func ByIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if ip == "" {
		ip = "unknown_ip"
	}
	return ip
}
