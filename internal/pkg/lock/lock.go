// Package lock serializes work on a named key, in-process or across
// processes through Redis.
package lock

import "context"

// Locker blocks until the named lock is held, runs fn and releases the
// lock when fn returns or panics.
type Locker interface {
	BlockingRun(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Run is BlockingRun for callbacks that produce a value.
func Run[T any](ctx context.Context, l Locker, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := l.BlockingRun(ctx, key, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
