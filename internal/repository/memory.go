package repository

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryRateLimiter keeps a token-bucket limiter per client key. It is
// the standalone limiter for single-process deployments and the
// fallback behind the Redis limiter.
type MemoryRateLimiter struct {
	limiters sync.Map
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{}
}

func (r *MemoryRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}

	lim := r.getLimiter(key, limit, window)
	return lim.Allow(), nil
}

func (r *MemoryRateLimiter) getLimiter(key string, limit int, window time.Duration) *rate.Limiter {
	if v, ok := r.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	perSecond := float64(limit) / window.Seconds()
	lim := rate.NewLimiter(rate.Limit(perSecond), limit)
	actual, loaded := r.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}
