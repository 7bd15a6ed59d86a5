package health

import "errors"

var (
	// ErrCheckFailed indicates a health check found a hard fault.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a check did not finish in time.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates no checker is registered under a name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
