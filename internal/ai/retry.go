package ai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

// DefaultMaxRetryDelay caps a single backoff wait when BackoffRetry.MaxDelay
// is unset.
const DefaultMaxRetryDelay = 10 * time.Second

// RetryPolicy decides how a one-shot completion is re-attempted.
type RetryPolicy interface {
	Do(ctx context.Context, fn func(context.Context) (string, error)) (string, error)
}

// NoRetry runs fn exactly once.
type NoRetry struct{}

func (NoRetry) Do(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	return fn(ctx)
}

// BackoffRetry re-runs fn with exponential backoff up to MaxAttempts times.
// Only failures that can succeed on a later attempt are retried.
type BackoffRetry struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func (p BackoffRetry) Do(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	if p.MaxAttempts <= 1 {
		return fn(ctx)
	}

	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxRetryDelay
	}

	r := retry.New[string](retry.Config{
		MaxAttempts:   p.MaxAttempts,
		InitialDelay:  p.InitialDelay,
		MaxDelay:      maxDelay,
		BackoffPolicy: retry.BackoffExponential,
		IsRetryable:   Retryable,
	})
	return r.Do(ctx, fn)
}

// Retryable reports whether err is worth another attempt. Caller
// cancellation and provider 4xx answers other than 408 and 429 are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		switch {
		case pe.StatusCode == http.StatusRequestTimeout, pe.StatusCode == http.StatusTooManyRequests:
			return true
		case pe.StatusCode >= 400 && pe.StatusCode < 500:
			return false
		}
	}
	return true
}

// NewRetryPolicy returns NoRetry for a single attempt, BackoffRetry otherwise.
func NewRetryPolicy(maxAttempts int, initialDelay time.Duration) RetryPolicy {
	if maxAttempts <= 1 {
		return NoRetry{}
	}
	return BackoffRetry{MaxAttempts: maxAttempts, InitialDelay: initialDelay}
}
