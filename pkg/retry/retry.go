// Package retry re-runs API calls that failed for transient reasons.
// The saucerest executor never retries on its own; callers opt in here.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/lestrrat-go/backoff/v2"
	"github.com/samvad-hq/saucerest/pkg/saucerest"
)

const (
	defaultMinInterval = 500 * time.Millisecond
	defaultMaxInterval = 10 * time.Second
	jitterFactor       = 0.1
)

var errExhausted = errors.New("retry: policy ended before the first attempt")

// Policy decides how often and how far apart attempts are made.
type Policy struct {
	maxRetries int
	backoff    backoff.Policy
	retryable  func(error) bool
}

// NewPolicy returns an exponential policy with jitter. maxRetries is the
// number of attempts after the first; zero disables retrying.
func NewPolicy(maxRetries int, minInterval, maxInterval time.Duration) Policy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if minInterval <= 0 {
		minInterval = defaultMinInterval
	}
	if maxInterval < minInterval {
		maxInterval = minInterval
	}
	return Policy{
		maxRetries: maxRetries,
		backoff: backoff.Exponential(
			backoff.WithMinInterval(minInterval),
			backoff.WithMaxInterval(maxInterval),
			backoff.WithJitterFactor(jitterFactor),
			backoff.WithMaxRetries(maxRetries+1),
		),
		retryable: saucerest.IsRetryable,
	}
}

// NewConstantPolicy waits the same interval between attempts.
func NewConstantPolicy(maxRetries int, interval time.Duration) Policy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return Policy{
		maxRetries: maxRetries,
		backoff: backoff.Constant(
			backoff.WithInterval(interval),
			backoff.WithMaxRetries(maxRetries+1),
		),
		retryable: saucerest.IsRetryable,
	}
}

// WithRetryable returns a copy of p using fn to decide which errors are transient.
func (p Policy) WithRetryable(fn func(error) bool) Policy {
	if fn != nil {
		p.retryable = fn
	}
	return p
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// policy is exhausted. The last error is returned.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for calls that produce a result.
func DoValue[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	retryable := p.retryable
	if retryable == nil {
		retryable = saucerest.IsRetryable
	}

	if p.maxRetries == 0 || p.backoff == nil {
		return fn(ctx)
	}

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctl := p.backoff.Start(cctx)

	var (
		zero    T
		lastErr error
	)
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if !backoff.Continue(ctl) {
			break
		}
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retryable(err) {
			return zero, err
		}
	}
	if lastErr == nil {
		if lastErr = ctx.Err(); lastErr == nil {
			lastErr = errExhausted
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(lastErr, ctxErr) {
		return zero, errors.Join(lastErr, ctxErr)
	}
	return zero, lastErr
}
