package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longform-ai/longform/internal/core"
)

// flakyBackend fails a configured number of times before succeeding.
type flakyBackend struct {
	failures int
	err      error
	calls    int
}

func (f *flakyBackend) Generate(context.Context, []core.Message, float64, int) (*core.GenerateResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &core.GenerateResult{Text: "ok"}, nil
}

func fastPolicy(attempts int) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestWithRetry_RecoversFromTransientFailure(t *testing.T) {
	t.Parallel()
	inner := &flakyBackend{failures: 2, err: core.ErrBackend("transient")}
	b := WithRetry(inner, fastPolicy(3), nil)

	res, err := b.Generate(context.Background(), nil, 0.7, 100)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	t.Parallel()
	inner := &flakyBackend{failures: 10, err: core.ErrBackend("down")}
	b := WithRetry(inner, fastPolicy(3), nil)

	_, err := b.Generate(context.Background(), nil, 0.7, 100)
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.True(t, core.IsCategory(err, core.ErrCatBackend))
}

func TestWithRetry_NonRetryableFailsFast(t *testing.T) {
	t.Parallel()
	fatal := core.ErrBackend("bad request")
	fatal.Retryable = false
	inner := &flakyBackend{failures: 10, err: fatal}
	b := WithRetry(inner, fastPolicy(3), nil)

	_, err := b.Generate(context.Background(), nil, 0.7, 100)
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls, "non-retryable errors must not be retried")
}

func TestWithRetry_RespectsCancellation(t *testing.T) {
	t.Parallel()
	inner := &flakyBackend{failures: 10, err: core.ErrBackend("down")}
	policy := fastPolicy(5)
	policy.BaseDelay = time.Second
	b := WithRetry(inner, policy, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := b.Generate(ctx, nil, 0.7, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryPolicy_BackoffGrowth(t *testing.T) {
	t.Parallel()
	p := &RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2.0}

	assert.Equal(t, time.Second, p.CalculateDelayNoJitter(1))
	assert.Equal(t, 2*time.Second, p.CalculateDelayNoJitter(2))
	assert.Equal(t, 4*time.Second, p.CalculateDelayNoJitter(3))
	assert.Equal(t, 10*time.Second, p.CalculateDelayNoJitter(5), "delay is capped at MaxDelay")
}

func TestRetryPolicy_JitterStaysNonNegative(t *testing.T) {
	t.Parallel()
	p := &RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Second, JitterFactor: 1.0, Multiplier: 2.0}
	for i := 0; i < 50; i++ {
		assert.GreaterOrEqual(t, p.CalculateDelay(1), time.Duration(0))
	}
}

func TestRateLimiter_BurstThenBlocks(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimiterConfig{MaxTokens: 2, RefillRate: 1})

	assert.True(t, rl.TryAcquire())
	assert.True(t, rl.TryAcquire())
	// Bucket is drained and refills at 1/s, far slower than this test runs.
	assert.False(t, rl.TryAcquire())
}

func TestRateLimiter_Refills(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimiterConfig{MaxTokens: 1, RefillRate: 100})
	require.True(t, rl.TryAcquire())

	require.Eventually(t, rl.TryAcquire, time.Second, 5*time.Millisecond)
}

func TestRateLimiter_AcquireHonorsContext(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimiterConfig{MaxTokens: 1, RefillRate: 0.001})
	require.True(t, rl.TryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := rl.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithRateLimit_GatesCalls(t *testing.T) {
	t.Parallel()
	inner := &flakyBackend{}
	rl := NewRateLimiter(RateLimiterConfig{MaxTokens: 1, RefillRate: 1000})
	b := WithRateLimit(inner, rl)

	_, err := b.Generate(context.Background(), nil, 0.7, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestNewOpenAI_RequiresAPIKey(t *testing.T) {
	t.Parallel()
	_, err := NewOpenAI(OpenAIConfig{}, nil)
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatState))
}

func TestNewOpenAI_DefaultsModel(t *testing.T) {
	t.Parallel()
	b, err := NewOpenAI(OpenAIConfig{APIKey: "test-key"}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, b.model)
}

func TestClassifyError_Timeout(t *testing.T) {
	t.Parallel()
	err := classifyError(context.DeadlineExceeded)
	assert.True(t, core.IsCategory(err, core.ErrCatTimeout))
	assert.True(t, core.IsRetryable(err))
}
