package api

import (
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"firefight/internal/telemetry"

	"golang.org/x/time/rate"
)

// RateLimitConfig sizes the per-IP token bucket that every HTTP request,
// websocket upgrades included, draws from.
type RateLimitConfig struct {
	RequestsPerSecond float64       // Refill rate per IP
	Burst             int           // Bucket size per IP
	CleanupInterval   time.Duration // Sweep period for idle buckets
}

// DefaultRateLimitConfig allows a replica to reconnect a few times and an
// operator to poll /api/state without tripping the limit.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 10,
	Burst:             20,
	CleanupInterval:   5 * time.Minute,
}

// LimiterStats counts admission decisions.
type LimiterStats struct {
	Allowed  uint64 `json:"allowed"`
	Rejected uint64 `json:"rejected"`
}

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nano
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	buckets  sync.Map // ip -> *ipBucket
	config   RateLimitConfig
	stop     chan struct{}
	stopOnce sync.Once

	allowed  atomic.Uint64
	rejected atomic.Uint64
}

// NewIPRateLimiter starts a limiter and its idle-bucket sweeper.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultRateLimitConfig.CleanupInterval
	}
	rl := &IPRateLimiter{
		config: cfg,
		stop:   make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop ends the sweeper. Safe to call more than once.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *IPRateLimiter) bucket(ip string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := rl.buckets.Load(ip); ok {
		b := v.(*ipBucket)
		b.lastSeen.Store(now)
		return b.limiter
	}

	b := &ipBucket{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst)}
	b.lastSeen.Store(now)
	actual, _ := rl.buckets.LoadOrStore(ip, b)
	return actual.(*ipBucket).limiter
}

func (rl *IPRateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.cleanup(now)
		}
	}
}

// cleanup drops buckets idle for two sweep periods and reports how many went.
// A dropped bucket comes back full, which an idle IP has earned anyway.
func (rl *IPRateLimiter) cleanup(now time.Time) int {
	cutoff := now.Add(-2 * rl.config.CleanupInterval).UnixNano()
	removed := 0
	rl.buckets.Range(func(ip, v any) bool {
		if v.(*ipBucket).lastSeen.Load() < cutoff {
			rl.buckets.Delete(ip)
			removed++
		}
		return true
	})
	return removed
}

// Allow takes one token from ip's bucket.
func (rl *IPRateLimiter) Allow(ip string) bool {
	if !rl.bucket(ip).Allow() {
		rl.rejected.Add(1)
		return false
	}
	rl.allowed.Add(1)
	return true
}

// Middleware answers 429 with Retry-After once an IP's bucket is empty.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.Allow(GetClientIP(r)) {
			next.ServeHTTP(w, r)
			return
		}
		telemetry.RecordConnectionRejected("rate_limit")
		w.Header().Set("Retry-After", "1")
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	})
}

// Stats returns the admission counters.
func (rl *IPRateLimiter) Stats() LimiterStats {
	return LimiterStats{Allowed: rl.allowed.Load(), Rejected: rl.rejected.Load()}
}

// GetClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then
// the socket peer. Forwarding headers are trusted, so deploy behind a proxy
// that overwrites them.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// -----------------------------------------------------------------------------
// REPLICA SLOTS PER IP
// -----------------------------------------------------------------------------

// PeerSlots caps how many replica connections one IP may hold at once. A slot
// is taken before the upgrade and returned when the peer detaches.
type PeerSlots struct {
	held  sync.Map // ip -> *atomic.Int32
	perIP int32

	allowed  atomic.Uint64
	rejected atomic.Uint64
}

// NewPeerSlots allows perIP concurrent peers per address.
func NewPeerSlots(perIP int) *PeerSlots {
	return &PeerSlots{perIP: int32(perIP)}
}

// Acquire takes a slot for ip, or reports false when ip is at its cap.
func (s *PeerSlots) Acquire(ip string) bool {
	v, _ := s.held.LoadOrStore(ip, new(atomic.Int32))
	n := v.(*atomic.Int32)
	for {
		cur := n.Load()
		if cur >= s.perIP {
			s.rejected.Add(1)
			return false
		}
		if n.CompareAndSwap(cur, cur+1) {
			s.allowed.Add(1)
			return true
		}
	}
}

// Release returns a slot taken by Acquire.
func (s *PeerSlots) Release(ip string) {
	if v, ok := s.held.Load(ip); ok {
		v.(*atomic.Int32).Add(-1)
	}
}

// Held reports the slots ip currently holds.
func (s *PeerSlots) Held(ip string) int {
	if v, ok := s.held.Load(ip); ok {
		return int(v.(*atomic.Int32).Load())
	}
	return 0
}

// Stats returns the admission counters.
func (s *PeerSlots) Stats() LimiterStats {
	return LimiterStats{Allowed: s.allowed.Load(), Rejected: s.rejected.Load()}
}

// -----------------------------------------------------------------------------
// ORIGINS
// -----------------------------------------------------------------------------

// AllowedOrigins are the exact browser origins, besides any localhost port,
// that may open a replica websocket.
var AllowedOrigins = []string{
	"http://localhost",
	"http://127.0.0.1",
}

// IsAllowedOrigin reports whether a browser origin may open a websocket.
func IsAllowedOrigin(origin string) bool {
	switch {
	case origin == "":
		return false
	case strings.HasPrefix(origin, "http://localhost:"), strings.HasPrefix(origin, "http://127.0.0.1:"):
		return true
	}
	return slices.Contains(AllowedOrigins, origin)
}

// checkOrigin is the upgrader's origin policy. Headless replicas send no
// Origin and are admitted; browsers must come from an allowed origin.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || IsAllowedOrigin(origin) {
		return true
	}
	telemetry.RecordConnectionRejected("origin")
	return false
}
