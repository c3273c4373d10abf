package web

import (
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/user/netguard/internal/util"
)

var (
	errUnauthorized = errors.New("unauthorized")
	errRateLimited  = errors.New("rate limit exceeded")
)

// limiterIdleTTL is how long a client's bucket survives without requests.
const limiterIdleTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements a token bucket rate limiter per client IP.
type RateLimiter struct {
	ips        map[string]*visitor
	mu         sync.Mutex
	rate       rate.Limit
	burst      int
	trustProxy bool
	idleTTL    time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

// NewRateLimiter creates a limiter allowing r requests per second with
// bursts of b. With trustProxy the client is identified by the first
// X-Forwarded-For entry instead of the connection address.
func NewRateLimiter(r float64, b int, trustProxy bool) *RateLimiter {
	if b < 1 {
		b = 1
	}
	return &RateLimiter{
		ips:        make(map[string]*visitor),
		rate:       rate.Limit(r),
		burst:      b,
		trustProxy: trustProxy,
		idleTTL:    limiterIdleTTL,
		now:        time.Now,
	}
}

// GetLimiter returns the limiter for ip, dropping buckets idle for longer
// than the TTL along the way.
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idleTTL {
		for key, v := range rl.ips {
			if now.Sub(v.lastSeen) >= rl.idleTTL {
				delete(rl.ips, key)
			}
		}
		rl.lastSweep = now
	}

	v, exists := rl.ips[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.ips[ip] = v
	}
	v.lastSeen = now

	return v.limiter
}

// Len reports how many client buckets are tracked.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.ips)
}

// Middleware rejects requests over the per-IP budget.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.GetLimiter(clientIP(r, rl.trustProxy)).Allow() {
			writeError(w, errRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerAuth requires "Authorization: Bearer <token>". An empty token
// disables the check.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte("Bearer " + token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="netguard"`)
				writeError(w, errUnauthorized, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		util.Debug("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// clientIP returns the connection address, or the first X-Forwarded-For
// entry when the proxy in front is trusted to set it.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
