package middleware

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/mmynk/settleup/internal/metrics"
)

var ErrRateLimited = errors.New("too many requests, slow down")

// RateLimiter keeps one token bucket per client. Buckets idle for ten minutes
// are dropped.
type RateLimiter struct {
	limiters *cache.Cache
	rps      rate.Limit
	burst    int
	metrics  *metrics.Metrics
}

// NewRateLimiter allows rps requests per second per client with the given burst.
func NewRateLimiter(rps float64, burst int, m *metrics.Metrics) *RateLimiter {
	return &RateLimiter{
		limiters: cache.New(10*time.Minute, 5*time.Minute),
		rps:      rate.Limit(rps),
		burst:    burst,
		metrics:  m,
	}
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	if v, found := l.limiters.Get(key); found {
		lim := v.(*rate.Limiter)
		l.limiters.Set(key, lim, cache.DefaultExpiration)
		return lim
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	if err := l.limiters.Add(key, lim, cache.DefaultExpiration); err != nil {
		// Lost the race to another request from the same client.
		if v, found := l.limiters.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// Allow reports whether one more request from key fits in its bucket.
func (l *RateLimiter) Allow(key string) bool {
	return l.limiter(key).Allow()
}

// Interceptor rejects over-limit requests with CodeResourceExhausted.
func (l *RateLimiter) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			key := clientKey(req.Header().Get("X-Forwarded-For"), req.Peer().Addr)
			if !l.Allow(key) {
				l.metrics.Limited()
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}

// clientKey prefers the first X-Forwarded-For hop and falls back to the peer host.
func clientKey(forwardedFor, peerAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(peerAddr); err == nil {
		return host
	}
	return peerAddr
}
