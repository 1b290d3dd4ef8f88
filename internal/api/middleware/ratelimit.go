package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit applies a per-client token bucket of perMinute requests.
// A zero or negative perMinute disables limiting. Clients are keyed by
// remote IP; stale limiters are evicted after an idle hour.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	store := newLimiterStore(perMinute)
	return func(next http.Handler) http.Handler {
		if perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := store.limiter(clientKey(r))
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "60")
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"ok":false,"error":"Too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu        sync.Mutex
	perMinute int
	entries   map[string]*limiterEntry
}

func newLimiterStore(perMinute int) *limiterStore {
	return &limiterStore{
		perMinute: perMinute,
		entries:   make(map[string]*limiterEntry),
	}
}

func (s *limiterStore) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if entry, ok := s.entries[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	s.evictStale(now)

	limiter := rate.NewLimiter(rate.Limit(float64(s.perMinute)/60.0), s.perMinute)
	s.entries[key] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

func (s *limiterStore) evictStale(now time.Time) {
	for key, entry := range s.entries {
		if now.Sub(entry.lastSeen) > time.Hour {
			delete(s.entries, key)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
