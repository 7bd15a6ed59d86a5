package resilience

import "errors"

var (
	// ErrCircuitOpen means the breaker is rejecting calls outright.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrTimeout means an operation exceeded its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)
