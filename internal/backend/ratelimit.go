package backend

import (
	"context"
	"sync"
	"time"

	"github.com/longform-ai/longform/internal/core"
)

// RateLimiter is a token bucket. Concurrent section workers share one
// bucket so parallel waves cannot exceed the provider's request budget.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// RateLimiterConfig configures the bucket.
type RateLimiterConfig struct {
	MaxTokens  float64
	RefillRate float64
}

// DefaultRateLimiterConfig allows short bursts at one request per second
// sustained.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{MaxTokens: 10, RefillRate: 1}
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		tokens:     cfg.MaxTokens,
		maxTokens:  cfg.MaxTokens,
		refillRate: cfg.RefillRate,
		lastRefill: time.Now(),
	}
}

// Acquire blocks until a token is available or the context is cancelled.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()
		if r.tokens >= 1 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		wait := time.Duration(float64(time.Second) / r.refillRate)
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// TryAcquire takes a token without blocking.
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// Available returns the current token count.
func (r *RateLimiter) Available() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return r.tokens
}

func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastRefill)
	r.lastRefill = now
	r.tokens += elapsed.Seconds() * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
}

// rateLimitedBackend gates every backend call through the shared bucket.
type rateLimitedBackend struct {
	inner   core.TextBackend
	limiter *RateLimiter
}

// WithRateLimit decorates a backend with the rate limiter.
func WithRateLimit(inner core.TextBackend, limiter *RateLimiter) core.TextBackend {
	return &rateLimitedBackend{inner: inner, limiter: limiter}
}

// Generate implements core.TextBackend.
func (r *rateLimitedBackend) Generate(ctx context.Context, history []core.Message, temperature float64, maxTokens int) (*core.GenerateResult, error) {
	if err := r.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return r.inner.Generate(ctx, history, temperature, maxTokens)
}
