package resilience

import (
	"context"
	"time"
)

// Executor layers resilience patterns around one operation. From the
// outside in: circuit breaker, retry, timeout. The breaker sees the
// whole retried call so retry storms count as one failure.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor builds an executor from the given patterns. Patterns not
// supplied are skipped.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker sets the breaker.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.circuitBreaker = cb }
}

// WithRetry sets the retry policy.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithTimeout sets a per-attempt deadline.
func WithTimeout(limit time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = NewTimeout(limit) }
}

// Execute runs op through the configured patterns.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}
	if e.retry != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.retry.Execute(ctx, inner)
		}
	}
	if e.circuitBreaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.circuitBreaker.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}

// CircuitState reports the breaker's state, or StateClosed when no
// breaker is configured.
func (e *Executor) CircuitState() State {
	if e.circuitBreaker == nil {
		return StateClosed
	}
	return e.circuitBreaker.State()
}
