package resilience

import (
	"context"
	"time"
)

// Timeout bounds the duration of one operation.
type Timeout struct {
	limit time.Duration
}

// NewTimeout builds a timeout wrapper. Non-positive limits default to 30s.
func NewTimeout(limit time.Duration) *Timeout {
	if limit <= 0 {
		limit = 30 * time.Second
	}
	return &Timeout{limit: limit}
}

// Execute runs op under a deadline. A blown deadline returns ErrTimeout;
// the abandoned op keeps its cancelled context.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.limit)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

// Limit returns the configured deadline.
func (t *Timeout) Limit() time.Duration {
	return t.limit
}
