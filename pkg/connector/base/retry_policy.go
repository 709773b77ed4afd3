package base

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/ajitpratap0/penguin/pkg/errors"
)

// RetryPolicy defines exponential backoff retry behavior
type RetryPolicy struct {
	MaxAttempts     int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialDelay    time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`
	MaxDelay        time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
	Multiplier      float64       `mapstructure:"multiplier" yaml:"multiplier"`
	RandomizeFactor float64       `mapstructure:"randomize_factor" yaml:"randomize_factor"`

	// ShouldRetry decides whether an error is worth another attempt. Nil means errors.IsRetryable.
	ShouldRetry func(error) bool `mapstructure:"-" yaml:"-"`
}

// DefaultRetryPolicy returns three attempts starting at one second
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     3,
		InitialDelay:    1 * time.Second,
		MaxDelay:        30 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.25,
	}
}

// NoRetryPolicy returns a policy that makes exactly one attempt
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 1}
}

// Execute runs fn until it succeeds, returns a non-retryable error, attempts run out or ctx ends.
func (rp *RetryPolicy) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if rp == nil {
		return fn(ctx)
	}
	attempts := rp.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	shouldRetry := rp.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = errors.IsRetryable
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) || attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(rp.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "retry cancelled")
		case <-timer.C:
		}
	}

	return lastErr
}

// delay calculates the backoff for a given attempt
func (rp *RetryPolicy) delay(attempt int) time.Duration {
	multiplier := rp.Multiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	d := float64(rp.InitialDelay) * math.Pow(multiplier, float64(attempt))

	if rp.MaxDelay > 0 && d > float64(rp.MaxDelay) {
		d = float64(rp.MaxDelay)
	}

	if rp.RandomizeFactor > 0 {
		delta := d * rp.RandomizeFactor
		d = d - delta + rand.Float64()*2*delta //nolint:gosec // jitter does not need crypto randomness
	}

	return time.Duration(d)
}
