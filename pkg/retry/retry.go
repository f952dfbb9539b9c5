// Package retry re-runs storage operations with exponential backoff and
// jitter. JobQuest uses it while connecting to network stores and around
// document writes.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MARKERS
// ══════════════════════════════════════════════════════════════════════════════

type retryableError struct{ err error }

func (e *retryableError) Error() string { return "retryable: " + e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

type permanentError struct{ err error }

func (e *permanentError) Error() string { return "permanent: " + e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Retryable marks err as worth another attempt.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err}
}

// Permanent marks err as final. Do returns the unwrapped error at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err}
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// unmark strips a Retryable or Permanent wrapper.
func unmark(err error) error {
	var r *retryableError
	if errors.As(err, &r) {
		return r.err
	}
	var p *permanentError
	if errors.As(err, &p) {
		return p.err
	}
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// RETRIER
// ══════════════════════════════════════════════════════════════════════════════

// Retrier holds a backoff policy.
type Retrier struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	jitter       float64
	retryIf      func(error) bool
	onRetry      func(attempt int, err error, delay time.Duration)
}

// Option tunes a Retrier.
type Option func(*Retrier)

// WithMaxAttempts counts the first call too (default 3).
func WithMaxAttempts(n int) Option {
	return func(r *Retrier) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithInitialDelay sets the wait before the first retry (default 100ms).
// Each later wait doubles, up to the max delay.
func WithInitialDelay(d time.Duration) Option {
	return func(r *Retrier) {
		if d > 0 {
			r.initialDelay = d
		}
	}
}

// WithMaxDelay caps a single wait (default 30s).
func WithMaxDelay(d time.Duration) Option {
	return func(r *Retrier) {
		if d > 0 {
			r.maxDelay = d
		}
	}
}

// WithJitter spreads each wait by ±j of its length, with j in [0, 1].
func WithJitter(j float64) Option {
	return func(r *Retrier) {
		if j >= 0 && j <= 1 {
			r.jitter = j
		}
	}
}

// WithRetryIf overrides which errors are retried. By default only errors
// marked Retryable are.
func WithRetryIf(fn func(error) bool) Option {
	return func(r *Retrier) { r.retryIf = fn }
}

// WithOnRetry is called before each wait.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(r *Retrier) { r.onRetry = fn }
}

// New builds a Retrier.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		maxAttempts:  3,
		initialDelay: 100 * time.Millisecond,
		maxDelay:     30 * time.Second,
		jitter:       0.1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do calls op until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx ends. Returned errors have their markers stripped.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return unmark(last)
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		last = err

		if IsPermanent(err) || !r.shouldRetry(err) || attempt >= r.maxAttempts {
			return unmark(err)
		}

		delay := r.backoff(attempt)
		if r.onRetry != nil {
			r.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return unmark(last)
		case <-timer.C:
		}
	}
}

func (r *Retrier) shouldRetry(err error) bool {
	if r.retryIf != nil {
		return r.retryIf(err)
	}
	return IsRetryable(err)
}

// backoff returns initialDelay·2^(attempt-1), capped and jittered.
func (r *Retrier) backoff(attempt int) time.Duration {
	d := r.initialDelay
	for i := 1; i < attempt && d < r.maxDelay; i++ {
		d *= 2
	}
	d = min(d, r.maxDelay)
	if r.jitter > 0 {
		d += time.Duration(float64(d) * r.jitter * (rand.Float64()*2 - 1))
	}
	return max(d, 0)
}

// Do runs op under a one-off Retrier.
func Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) error {
	return New(opts...).Do(ctx, op)
}

// ══════════════════════════════════════════════════════════════════════════════
// STORAGE PRESETS
// ══════════════════════════════════════════════════════════════════════════════

// ConnectRetrier retries every error except Permanent ones. Network stores
// may come up after the CLI or worker does.
func ConnectRetrier(attempts int, opts ...Option) *Retrier {
	if attempts <= 0 {
		attempts = 5
	}
	base := []Option{
		WithMaxAttempts(attempts),
		WithInitialDelay(200 * time.Millisecond),
		WithMaxDelay(5 * time.Second),
		WithJitter(0.2),
		WithRetryIf(func(err error) bool { return !IsPermanent(err) }),
	}
	return New(append(base, opts...)...)
}

// StorageRetrier retries document writes that failed with a Retryable error.
func StorageRetrier() *Retrier {
	return New(
		WithMaxAttempts(3),
		WithInitialDelay(50*time.Millisecond),
		WithMaxDelay(time.Second),
		WithJitter(0.05),
	)
}
