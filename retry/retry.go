// Package retry wraps fallible operations with bounded exponential-backoff
// retries. The backoff growth is deterministic (no jitter) and the attempt
// budget is a hard bound: after the final failure the last error is returned
// unchanged so callers keep the original cause.
package retry

import (
	"context"
	"time"
)

// Options configures a retry loop.
type Options struct {
	// MaxAttempts is the total number of invocations, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt. Each subsequent
	// wait doubles: InitialDelay * 2^(attempt-1). There is no cap on the
	// cumulative wait beyond the attempt count.
	InitialDelay time.Duration
}

// DefaultOptions are the standard retry parameters for agent calls.
var DefaultOptions = Options{
	MaxAttempts:  3,
	InitialDelay: time.Second,
}

// Do runs op until it succeeds or the attempt budget is exhausted. The loop
// is explicit (no recursion) so stack depth stays bounded and the attempt
// count is directly observable by instrumented operations.
func Do(ctx context.Context, op func(ctx context.Context) error, optFns ...func(o *Options)) error {
	_, err := DoValue(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, optFns...)

	return err
}

// DoValue is Do for operations returning a value alongside the error.
// On success the value of the succeeding attempt is returned; on exhaustion
// the zero value and the last error, unchanged. The backoff sleep honors
// context cancellation, in which case ctx.Err() is returned.
func DoValue[T any](ctx context.Context, op func(ctx context.Context) (T, error), optFns ...func(o *Options)) (T, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	var (
		zero    T
		lastErr error
	)

	delay := opts.InitialDelay

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		lastErr = err

		if attempt == opts.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}

	return zero, lastErr
}
