// Package retry implements the per-item retry policy for mutating remote
// calls. The default policy never gives up, matching the legacy behavior of
// leaning on the remote rate limiter instead of backing off; tests inject a
// bounded policy to assert termination.
package retry

import "context"

// Policy controls how a single remote mutation is retried.
type Policy struct {
	// MaxAttempts caps the number of attempts; 0 means retry forever.
	MaxAttempts int
	// Retryable decides whether an error is worth another attempt.
	// A nil predicate retries everything.
	Retryable func(error) bool
}

// Unbounded is the legacy retry-until-success policy.
var Unbounded = Policy{}

// Do invokes fn until it succeeds, the error is classified final, the
// attempt budget is exhausted, or the context is canceled. onRetry is
// called with the error before every additional attempt; it may be nil.
func (p Policy) Do(ctx context.Context, onRetry func(error), fn func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return err
		}
		if onRetry != nil {
			onRetry(err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return err
		}
	}
}
