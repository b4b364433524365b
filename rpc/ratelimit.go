package rpc

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// sourceLimiter throttles requests per client source address.
type sourceLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	perSec   rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const visitorTTL = 10 * time.Minute

func newSourceLimiter(requestsPerMinute float64, burst int) *sourceLimiter {
	perSec := requestsPerMinute / 60.0
	if perSec <= 0 {
		perSec = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &sourceLimiter{
		visitors: make(map[string]*visitor),
		perSec:   rate.Limit(perSec),
		burst:    burst,
	}
}

// Allow reports whether the source may proceed, pruning idle entries as a side
// effect.
func (l *sourceLimiter) Allow(source string) bool {
	if source == "" {
		source = "unknown"
	}
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(l.visitors, id)
		}
	}
	v, ok := l.visitors[source]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.perSec, l.burst)}
		l.visitors[source] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}

func clientSource(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			candidate := strings.TrimSpace(parts[0])
			if candidate != "" {
				return candidate
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
