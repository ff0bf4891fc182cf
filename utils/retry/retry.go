package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy defines the retry budget for one I/O boundary.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPolicy matches the service-wide budget for backend calls: three
// attempts with a fixed two second pause between them.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
	}
}

// Retrier runs operations under a Policy and logs every retry as a warning.
type Retrier struct {
	policy Policy
	logger *slog.Logger
}

func NewRetrier(policy Policy, logger *slog.Logger) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrier{
		policy: policy,
		logger: logger,
	}
}

// Do runs operation until it succeeds, fails with a non-transient error, or
// the attempt budget is spent. The last error is returned unwrapped so
// callers can classify it.
func (r *Retrier) Do(ctx context.Context, name string, operation func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled: %w", name, ctx.Err())
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		if !IsTransient(lastErr) {
			return lastErr
		}

		if attempt == r.policy.MaxAttempts {
			break
		}

		r.logger.Warn("retrying operation",
			"operation", name,
			"attempt", attempt,
			"max_attempts", r.policy.MaxAttempts,
			"error", lastErr)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled during retry delay: %w", name, ctx.Err())
		case <-time.After(r.policy.Delay):
		}
	}

	return lastErr
}
