package ratelimit

import (
    "sync"
    "time"

    xhttp "DemandCast/pkg/http"

    "github.com/labstack/echo/v4"
)

type bucket struct {
    tokens     float64
    capacity   float64
    refillRate float64 // tokens per second
    last       time.Time
}

// Limiter is a per-key token bucket.
type Limiter struct {
    mu  sync.Mutex
    m   map[string]*bucket
    now func() time.Time
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket), now: time.Now} }

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
    now := l.now()
    l.mu.Lock()
    defer l.mu.Unlock()
    b, ok := l.m[key]
    if !ok {
        b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
        l.m[key] = b
    }
    // refill
    elapsed := now.Sub(b.last).Seconds()
    if elapsed > 0 {
        b.tokens += elapsed * b.refillRate
        if b.tokens > b.capacity {
            b.tokens = b.capacity
        }
        b.last = now
    }
    if b.tokens >= 1 {
        b.tokens -= 1
        return true
    }
    return false
}

// Forget drops buckets idle for longer than idle.
func (l *Limiter) Forget(idle time.Duration) int {
    cutoff := l.now().Add(-idle)
    l.mu.Lock()
    defer l.mu.Unlock()
    n := 0
    for k, b := range l.m {
        if b.last.Before(cutoff) {
            delete(l.m, k)
            n++
        }
    }
    return n
}

// Middleware limits requests per client IP. A non-positive capacity disables it.
func (l *Limiter) Middleware(capacity, refillPerSec float64) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if capacity <= 0 {
                return next(c)
            }
            if !l.Allow(c.RealIP(), capacity, refillPerSec) {
                c.Response().Header().Set(echo.HeaderRetryAfter, "1")
                return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("forecast rate limit exceeded"))
            }
            return next(c)
        }
    }
}
