package llm

import (
	"context"
	"time"

	"github.com/birdsql/birdsql/internal/errors"
)

// RetryPolicy retries a completion call with a constant backoff interval up
// to a fixed attempt ceiling. The give-up predicate distinguishes conditions
// that will recover soon (timeouts, transient API errors, ordinary rate
// limits) from those that will not recover this session (quota exhaustion)
// and short-circuits the latter.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
	GiveUp      func(error) bool
}

// DefaultRetryPolicy mirrors the endpoint's recommended pacing: three
// attempts, fifteen seconds apart, giving up immediately on quota exhaustion.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Interval:    15 * time.Second,
		GiveUp:      IsQuotaExhaustion,
	}
}

// IsQuotaExhaustion is the default give-up predicate
func IsQuotaExhaustion(err error) bool {
	return errors.IsType(err, errors.ErrTypeQuota)
}

// Do invokes fn until it succeeds, the give-up predicate fires, the context
// is cancelled, or the attempt ceiling is reached. On exhaustion the final
// error is surfaced to the caller; it is never swallowed into empty text.
func (p RetryPolicy) Do(ctx context.Context, fn func() (string, error)) (string, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(p.Interval):
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if p.GiveUp != nil && p.GiveUp(err) {
			return "", err
		}

		if ctx.Err() != nil {
			break
		}
	}

	return "", lastErr
}
