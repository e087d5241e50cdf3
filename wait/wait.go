package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultTimeout is the maximum time [Until] keeps retrying a pending check.
	DefaultTimeout = 5 * time.Second

	// DefaultInterval is the fixed delay between two attempts.
	DefaultInterval = 500 * time.Millisecond
)

// CheckFunc performs a single observation.
//
// It returns nil when the expected condition holds, a [Pending] error when
// the condition is not true yet, and any other error for a fatal failure.
type CheckFunc func(ctx context.Context) error

// PendingError marks a failure as retryable.
//
// It wraps the underlying failure so that [errors.Is] and [errors.As] still
// reach the original cause.
type PendingError struct {
	Err error
}

func (e *PendingError) Error() string {
	if e == nil || e.Err == nil {
		return "condition not yet satisfied"
	}
	return e.Err.Error()
}

func (e *PendingError) Unwrap() error { return e.Err }

// Pending marks err as retryable. A nil err yields a generic pending error.
func Pending(err error) error {
	return &PendingError{Err: err}
}

// Pendingf formats a retryable failure.
func Pendingf(format string, args ...any) error {
	return &PendingError{Err: fmt.Errorf(format, args...)}
}

// IsPending reports whether err, or any error it wraps, is a [PendingError].
func IsPending(err error) bool {
	var pe *PendingError
	return errors.As(err, &pe)
}

// waiterConfig holds mutable state during Waiter construction.
type waiterConfig struct {
	timeout  time.Duration
	interval time.Duration
}

// Option configures a [Waiter] during construction.
type Option func(*waiterConfig) error

// WithTimeout sets the maximum time spent retrying pending checks.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *waiterConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithInterval sets the delay between attempts.
//
// Returns an error if the duration is zero or negative.
func WithInterval(d time.Duration) Option {
	return func(cfg *waiterConfig) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// Waiter repeatedly evaluates a [CheckFunc] with fixed backoff.
//
// A Waiter holds no per-call state and is safe for concurrent use.
type Waiter struct {
	timeout  time.Duration
	interval time.Duration

	// overridable in tests
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New creates a [Waiter]. Defaults are [DefaultTimeout] and [DefaultInterval].
func New(opts ...Option) (*Waiter, error) {
	cfg := &waiterConfig{
		timeout:  DefaultTimeout,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return &Waiter{
		timeout:  cfg.timeout,
		interval: cfg.interval,
		now:      time.Now,
		after:    time.After,
	}, nil
}

// Timeout returns the configured maximum wait.
func (w *Waiter) Timeout() time.Duration {
	return w.timeout
}

// Interval returns the configured retry interval.
func (w *Waiter) Interval() time.Duration {
	return w.interval
}

// Until evaluates check until it succeeds, fails fatally, or the timeout
// elapses.
//
// A successful first attempt returns without sleeping. A fatal error is
// returned immediately and unchanged. Once the elapsed time exceeds the
// timeout, the most recent pending error is returned unchanged. Cancelling
// ctx while sleeping also returns the most recent pending error.
//
// Until never runs check concurrently with itself.
func (w *Waiter) Until(ctx context.Context, check CheckFunc) error {
	start := w.now()

	for {
		err := check(ctx)
		if err == nil {
			return nil
		}
		if !IsPending(err) {
			return err
		}
		if w.now().Sub(start) > w.timeout {
			return err
		}

		select {
		case <-ctx.Done():
			return err
		case <-w.after(w.interval):
		}
	}
}

var defaultWaiter = &Waiter{
	timeout:  DefaultTimeout,
	interval: DefaultInterval,
	now:      time.Now,
	after:    time.After,
}

// Until runs check with the default timeout and interval.
func Until(ctx context.Context, check CheckFunc) error {
	return defaultWaiter.Until(ctx, check)
}
