package middleware

import (
	"net/http"
	"sync"
	"time"

	"caribepos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ipLimiter is a fixed-window per-IP request counter. Good enough for a
// back-office API behind a handful of store terminals; swap for a Redis-based
// limiter if the API ever fronts untrusted traffic at scale.
type ipLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*windowCount
}

type windowCount struct {
	count     int
	windowEnd time.Time
}

func newIPLimiter(window time.Duration) *ipLimiter {
	l := &ipLimiter{window: window, entries: make(map[string]*windowCount)}
	limitersMu.Lock()
	limiters = append(limiters, l)
	limitersMu.Unlock()
	return l
}

// take counts one request for ip and reports whether it stays under limit.
func (l *ipLimiter) take(ip string, limit int) (ok bool, windowEnd time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, exists := l.entries[ip]
	if !exists || now.After(e.windowEnd) {
		e = &windowCount{windowEnd: now.Add(l.window)}
		l.entries[ip] = e
	}
	e.count++
	return e.count <= limit, e.windowEnd
}

func (l *ipLimiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	purged := 0
	for ip, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	return purged
}

// LoginRateLimiter caps login attempts at 20 per minute per IP to slow down
// credential stuffing against cashier accounts.
func LoginRateLimiter() gin.HandlerFunc {
	l := newIPLimiter(time.Minute)
	return func(c *gin.Context) {
		if ok, _ := l.take(c.ClientIP(), 20); !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.New("Demasiados intentos de login. Intente en 1 minuto."))
			return
		}
		c.Next()
	}
}

// RateLimiter is the general per-IP limiter applied to the whole API.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	l := newIPLimiter(window)
	return func(c *gin.Context) {
		ok, windowEnd := l.take(c.ClientIP(), limit)
		if !ok {
			c.Header("Retry-After", windowEnd.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Expired windows are deleted periodically so IPs that never return do not
// accumulate forever.

const purgeInterval = 5 * time.Minute

var (
	limitersMu sync.Mutex
	limiters   []*ipLimiter
)

func init() {
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()

		for range ticker.C {
			now := time.Now()
			limitersMu.Lock()
			active := limiters
			limitersMu.Unlock()

			total := 0
			for _, l := range active {
				total += l.purge(now)
			}
			if total > 0 {
				log.Debug().Int("entries_purged", total).Msg("rate limiter maps purged")
			}
		}
	}()
}
