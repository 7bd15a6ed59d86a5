package cache

import (
	"context"
	"time"

	"github.com/chaos-world/actor-core/resilience"
)

// ResilientTier wraps a remote tier with timeout, retry, and circuit
// breaker protection. Memory tiers never need this; the network tier
// always gets it.
type ResilientTier struct {
	tier Tier
	exec *resilience.Executor
}

// ResilientConfig tunes the protection around one remote tier. Zero
// values take the defaults noted per field.
type ResilientConfig struct {
	// OpTimeout bounds a single attempt. Default 2s.
	OpTimeout time.Duration

	// MaxAttempts counts the initial call too. Default 3.
	MaxAttempts int

	// MaxFailures opens the circuit after that many consecutive failed
	// calls. Default 5.
	MaxFailures int

	// ResetTimeout is how long the circuit stays open. Default 30s.
	ResetTimeout time.Duration

	// OnStateChange observes circuit transitions, for logging.
	OnStateChange func(from, to resilience.State)
}

// NewResilientTier wraps tier. A nil tier returns ErrNilCache.
func NewResilientTier(tier Tier, cfg ResilientConfig) (*ResilientTier, error) {
	if tier == nil {
		return nil, ErrNilCache
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 2 * time.Second
	}

	exec := resilience.NewExecutor(
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:   cfg.MaxFailures,
			ResetTimeout:  cfg.ResetTimeout,
			OnStateChange: cfg.OnStateChange,
		})),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
			Jitter:       true,
		})),
		resilience.WithTimeout(cfg.OpTimeout),
	)
	return &ResilientTier{tier: tier, exec: exec}, nil
}

// Get reads through the protection layers. An open circuit or blown
// deadline surfaces as the tier error, which the manager logs and
// treats as a miss.
func (r *ResilientTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := r.exec.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		value, found, opErr = r.tier.Get(ctx, key)
		return opErr
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

func (r *ResilientTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.exec.Execute(ctx, func(ctx context.Context) error {
		return r.tier.Set(ctx, key, value, ttl)
	})
}

func (r *ResilientTier) Delete(ctx context.Context, key string) error {
	return r.exec.Execute(ctx, func(ctx context.Context) error {
		return r.tier.Delete(ctx, key)
	})
}

func (r *ResilientTier) Clear(ctx context.Context) error {
	return r.exec.Execute(ctx, func(ctx context.Context) error {
		return r.tier.Clear(ctx)
	})
}

// Stats passes through to the wrapped tier.
func (r *ResilientTier) Stats() Stats {
	return r.tier.Stats()
}

// Compact passes through when the wrapped tier supports compaction.
func (r *ResilientTier) Compact(ctx context.Context) (int, error) {
	compactor, ok := r.tier.(Compactor)
	if !ok {
		return 0, nil
	}
	var removed int
	err := r.exec.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		removed, opErr = compactor.Compact(ctx)
		return opErr
	})
	return removed, err
}

// CircuitState reports the protection circuit's state.
func (r *ResilientTier) CircuitState() resilience.State {
	return r.exec.CircuitState()
}

var (
	_ Tier      = (*ResilientTier)(nil)
	_ Compactor = (*ResilientTier)(nil)
)
