package backend

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

// RetryPolicy defines exponential-backoff retry behavior for backend calls.
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64 // 0.0 to 1.0
	Multiplier   float64
}

// DefaultRetryPolicy returns the production retry policy.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  3,
		BaseDelay:    time.Second,
		MaxDelay:     30 * time.Second,
		JitterFactor: 0.2,
		Multiplier:   2.0,
	}
}

// CalculateDelay computes the backoff delay for an attempt, with jitter.
func (p *RetryPolicy) CalculateDelay(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.JitterFactor > 0 {
		jitter := delay * p.JitterFactor
		delay += (rand.Float64()*2 - 1) * jitter
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// CalculateDelayNoJitter computes the delay without jitter.
func (p *RetryPolicy) CalculateDelayNoJitter(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay)
}

// retryingBackend wraps a TextBackend with the retry policy. Only errors
// the domain taxonomy marks retryable are retried.
type retryingBackend struct {
	inner  core.TextBackend
	policy *RetryPolicy
	logger *logging.Logger
}

// WithRetry decorates a backend with retry behavior.
func WithRetry(inner core.TextBackend, policy *RetryPolicy, logger *logging.Logger) core.TextBackend {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &retryingBackend{inner: inner, policy: policy, logger: logger}
}

// Generate implements core.TextBackend.
func (r *retryingBackend) Generate(ctx context.Context, history []core.Message, temperature float64, maxTokens int) (*core.GenerateResult, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := r.inner.Generate(ctx, history, temperature, maxTokens)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !core.IsRetryable(err) {
			return nil, err
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.policy.CalculateDelay(attempt)
		r.logger.Warn("backend call failed, retrying",
			"attempt", attempt,
			"max_attempts", r.policy.MaxAttempts,
			"delay_ms", delay.Milliseconds(),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}
