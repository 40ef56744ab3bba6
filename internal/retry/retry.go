// Package retry re-runs failing calls with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

// Policy bounds how often and how slowly a call is retried
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultPolicy returns the policy used for vector service calls
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
	}
}

// Delay returns the wait before retry number attempt, counting from zero
func (p Policy) Delay(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(mult, float64(attempt)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Options configures one call to Do
type Options struct {
	Policy Policy

	// Op names the call in logs and errors
	Op string

	// Clock paces the backoff. If nil, uses the real clock.
	Clock clockwork.Clock

	// Logger receives one debug line per retry. May be nil.
	Logger *slog.Logger
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error as is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// ExhaustedError is returned once every attempt has failed
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: gave up after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do calls fn until it returns nil or a Permanent error, with a backoff wait between attempts.
// Cancelling ctx stops the wait and returns ctx.Err().
func Do(ctx context.Context, opts Options, fn func(attempt int) error) error {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	maxRetries := max(opts.Policy.MaxRetries, 0)

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := opts.Policy.Delay(attempt - 1)
			if opts.Logger != nil {
				opts.Logger.Debug("retry: backing off",
					"op", opts.Op,
					"attempt", attempt+1,
					"delay", delay,
					"error", err,
				)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-clock.After(delay):
			}
		}

		err = fn(attempt)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctx.Err() != nil {
			return err
		}
	}

	return &ExhaustedError{Op: opts.Op, Attempts: maxRetries + 1, Err: err}
}
