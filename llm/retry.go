package llm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Retrier retries provider calls on transient failures with exponential
// backoff and jitter. Rate-limit responses carrying a retry-after value are
// honored over the computed delay.
type Retrier struct {
	config RetryConfig
	rand   *rand.Rand
}

// NewRetrier creates a retrier with the given configuration.
func NewRetrier(config RetryConfig) *Retrier {
	return &Retrier{
		config: config,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Operation is one attempt of a retryable call.
type Operation[T any] func(ctx context.Context, attempt int) (T, error)

// Do executes an operation with retry logic.
func Do[T any](r *Retrier, ctx context.Context, operation Operation[T]) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := operation(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt >= r.config.MaxRetries || !IsRetryable(err) {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(r.delay(attempt, err)):
		}
	}

	if IsRetryable(lastErr) {
		return zero, fmt.Errorf("operation failed after %d attempts: %w", r.config.MaxRetries+1, lastErr)
	}
	return zero, lastErr
}

func (r *Retrier) delay(attempt int, err error) time.Duration {
	if e, ok := AsError(err); ok && e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}

	base := float64(r.config.InitialDelay)
	d := base * math.Pow(r.config.BackoffFactor, float64(attempt))

	// +-25% jitter
	d += 0.25 * d * (r.rand.Float64()*2 - 1)

	if d > float64(r.config.MaxDelay) {
		d = float64(r.config.MaxDelay)
	}
	return time.Duration(d)
}
