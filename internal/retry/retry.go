// Package retry provides polling with capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds backoff configuration.
type Config struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Timeout bounds the whole poll. Zero means no deadline.
	Timeout time.Duration
}

// Option is a functional option for backoff configuration.
type Option func(*Config)

// DefaultConfig returns the backoff used for task polling.
func DefaultConfig() Config {
	return Config{
		InitialDelay: 350 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   1.5,
		Timeout:      10 * time.Minute,
	}
}

// WithInitialDelay sets the delay before the first attempt.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		c.InitialDelay = d
	}
}

// WithMaxDelay caps the delay between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = d
	}
}

// WithMultiplier sets the backoff multiplier.
func WithMultiplier(m float64) Option {
	return func(c *Config) {
		c.Multiplier = m
	}
}

// WithTimeout sets the overall deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// Backoff yields successive delays.
type Backoff struct {
	cfg  Config
	next time.Duration
}

// NewBackoff creates a Backoff starting at cfg.InitialDelay.
func NewBackoff(cfg Config) *Backoff {
	return &Backoff{cfg: cfg, next: cfg.InitialDelay}
}

// Next returns the current delay and advances to the following one.
func (b *Backoff) Next() time.Duration {
	d := b.next
	if b.cfg.Multiplier > 1 {
		b.next = time.Duration(float64(b.next) * b.cfg.Multiplier)
	}
	if b.cfg.MaxDelay > 0 && b.next > b.cfg.MaxDelay {
		b.next = b.cfg.MaxDelay
	}
	if d > b.cfg.MaxDelay && b.cfg.MaxDelay > 0 {
		d = b.cfg.MaxDelay
	}
	return d
}

// ErrTimeout is returned by Poll when the deadline expires first.
var ErrTimeout = errors.New("poll deadline exceeded")

// ConditionFunc is one poll attempt. It returns done=true to stop polling.
// An error wrapped with Fatal stops polling and is returned; any other error
// is treated as transient and polling continues.
type ConditionFunc func(ctx context.Context) (done bool, err error)

// Poll waits one backoff delay, runs condition, and repeats until condition
// reports done, returns a fatal error, the deadline expires, or ctx is done.
//
// On deadline expiry the returned error wraps ErrTimeout and the last
// transient error, if any.
func Poll(ctx context.Context, condition ConditionFunc, opts ...Option) error {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	backoff := NewBackoff(cfg)
	var lastErr error
	attempts := 0

	for {
		timer := time.NewTimer(backoff.Next())
		select {
		case <-ctx.Done():
			timer.Stop()
			return pollDone(ctx, attempts, lastErr)
		case <-timer.C:
		}

		attempts++
		done, err := condition(ctx)
		if err != nil {
			if IsFatal(err) {
				return err
			}
			lastErr = err
			continue
		}
		if done {
			return nil
		}
		lastErr = nil
	}
}

func pollDone(ctx context.Context, attempts int, lastErr error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if lastErr != nil {
			return fmt.Errorf("%w after %d attempts: %w", ErrTimeout, attempts, lastErr)
		}
		return fmt.Errorf("%w after %d attempts", ErrTimeout, attempts)
	}
	return fmt.Errorf("poll cancelled after %d attempts: %w", attempts, ctx.Err())
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
