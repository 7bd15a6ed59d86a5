// Package resilience guards calls to remote cache tiers.
//
// The distributed L3 tier sits on the network, so every call through it
// carries timeout, retry, and circuit breaker protection. The patterns
// compose through an Executor:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	        MaxFailures:  5,
//	        ResetTimeout: 30 * time.Second,
//	    })),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithTimeout(2*time.Second),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return tier.Set(ctx, key, value, ttl)
//	})
package resilience
