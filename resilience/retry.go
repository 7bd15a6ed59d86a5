package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy selects how the delay grows between attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear grows the delay by the initial amount each attempt.
	BackoffLinear
	// BackoffConstant uses the same delay every attempt.
	BackoffConstant
)

// RetryConfig tunes retry behavior. Zero values take the defaults noted
// per field.
type RetryConfig struct {
	// MaxAttempts counts the initial call too. Default 3.
	MaxAttempts int

	// InitialDelay precedes the first retry. Default 100ms.
	InitialDelay time.Duration

	// MaxDelay caps the backoff. Default 30s.
	MaxDelay time.Duration

	// Multiplier drives exponential backoff. Default 2.0.
	Multiplier float64

	// Strategy picks the backoff curve. Default BackoffExponential.
	Strategy BackoffStrategy

	// Jitter randomizes delays by up to 25% to spread retry storms.
	// Default true when constructed through NewRetry with zero config.
	Jitter bool

	// RetryIf decides whether an error is worth retrying. Default
	// retries every non-nil error.
	RetryIf func(err error) bool

	// OnRetry observes each retry before its delay elapses.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry reruns a failing operation with backoff between attempts.
type Retry struct {
	config RetryConfig
}

// NewRetry builds a retry policy, filling defaults for zero fields.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}
	return &Retry{config: config}
}

// Execute runs op until it succeeds, exhausts attempts, or the context
// ends. The last error is returned when attempts run out.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}
		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.delayFor(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

func (r *Retry) delayFor(attempt int) time.Duration {
	var delay time.Duration
	switch r.config.Strategy {
	case BackoffConstant:
		delay = r.config.InitialDelay
	case BackoffLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)
	default:
		delay = time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1)))
	}
	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	if r.config.Jitter && delay > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int63n(int64(delay / 4)))
	}
	return delay
}

// Config returns the effective configuration after defaulting.
func (r *Retry) Config() RetryConfig {
	return r.config
}
