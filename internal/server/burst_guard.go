package server

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	apperrors "github.com/romejiang/moltbook-api/internal/errors"
)

const (
	guardCleanupInterval = 5 * time.Minute
	guardIdleCutoff      = 10 * time.Minute
)

// BurstGuard throttles raw request bursts per IP with a token bucket, in front
// of the quota-based admission controller. It protects the process itself;
// per-agent fairness is the admission controller's job.
type BurstGuard struct {
	mu        sync.Mutex
	limiters  map[string]*guardEntry
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

type guardEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewBurstGuard(perSecond float64, burst int) *BurstGuard {
	return &BurstGuard{
		limiters:  make(map[string]*guardEntry),
		rate:      rate.Limit(perSecond),
		burst:     burst,
		cleanupAt: time.Now().Add(guardCleanupInterval),
	}
}

// Allow reports whether a request from ip may proceed right now.
func (g *BurstGuard) Allow(ip string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if time.Now().After(g.cleanupAt) {
		g.cleanup()
		g.cleanupAt = time.Now().Add(guardCleanupInterval)
	}

	entry, exists := g.limiters[ip]
	if !exists {
		entry = &guardEntry{limiter: rate.NewLimiter(g.rate, g.burst)}
		g.limiters[ip] = entry
	}

	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanup removes idle buckets. Must be called with mu held.
func (g *BurstGuard) cleanup() {
	cutoff := time.Now().Add(-guardIdleCutoff)
	for ip, entry := range g.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(g.limiters, ip)
		}
	}
}

// ActiveBuckets returns the number of IPs currently tracked.
func (g *BurstGuard) ActiveBuckets() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.limiters)
}

// Middleware rejects over-burst requests before they reach routing.
func (g *BurstGuard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !g.Allow(c.RealIP()) {
				return apperrors.RateLimitedError("too many requests", 1)
			}
			return next(c)
		}
	}
}
