package session

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// withRetry calls fn until it succeeds or the policy is exhausted. It
// returns the number of attempts made.
func (o *Orchestrator) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) (int, error) {
	attempts := max(o.retry.MaxAttempts, 1)
	var lastErr error
	for attempt := range attempts {
		err := fn(ctx)
		if err == nil {
			return attempt + 1, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return attempt + 1, err
		}
		if attempt == attempts-1 {
			break
		}

		wait := o.backoff(attempt)
		o.log.Warn("retrying scoring call",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err))
		if wait <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return attempt + 1, ctx.Err()
		case <-time.After(wait):
		}
	}
	return attempts, lastErr
}

// backoff computes the wait before the next attempt with ±20% jitter.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	wait := float64(o.retry.InitialWait) * math.Pow(o.retry.Multiplier, float64(attempt))
	if wait > float64(o.retry.MaxWait) {
		wait = float64(o.retry.MaxWait)
	}
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
