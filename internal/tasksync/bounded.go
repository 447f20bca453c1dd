package tasksync

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// runBounded runs fn under a deadline. Deadline hits come back as
// ErrTimeout so callers can tell a slow network from a real rejection.
// Every network call in this package goes through it.
func runBounded[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	v, err := fn(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return v, err
}
