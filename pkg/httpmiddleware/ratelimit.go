package httpmiddleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client fixed window rate limiter.
type RateLimitConfig struct {
	// Max is the maximum number of requests allowed per window.
	Max int
	// Window is the duration of each window.
	Window time.Duration
	// KeyFunc extracts the rate limit key from a request. When nil, the
	// client IP address is used.
	KeyFunc func(*http.Request) string
}

// window tracks request counts for one client inside the current window.
type window struct {
	start time.Time
	count int
}

type rateLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	windows map[string]*window
}

// allow reports whether the request identified by key fits in the current
// window, along with the remaining budget and the window reset time.
func (rl *rateLimiter) allow(key string, now time.Time) (remaining int, resetAt time.Time, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.cfg.Window {
		w = &window{start: now}
		rl.windows[key] = w
	}
	resetAt = w.start.Add(rl.cfg.Window)

	if w.count >= rl.cfg.Max {
		return 0, resetAt, false
	}
	w.count++
	return rl.cfg.Max - w.count, resetAt, true
}

// cleanup drops windows that have fully elapsed.
func (rl *rateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.cfg.Window {
			delete(rl.windows, key)
		}
	}
}

// RateLimit returns a middleware enforcing a per-key request budget per
// window. Exceeding it yields 429 with a JSON body and a Retry-After header;
// every response carries X-RateLimit-Limit/Remaining/Reset. A background
// goroutine evicts stale windows until ctx is cancelled.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	rl := &rateLimiter{cfg: cfg, windows: make(map[string]*window)}

	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.cleanup(now)
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, allowed := rl.allow(cfg.KeyFunc(r), time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !allowed {
				retryAfter := max(time.Until(resetAt), 0)
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"code":    http.StatusTooManyRequests,
					"message": "rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client IP, checking X-Forwarded-For first, then
// X-Real-IP, then RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
