package utils

import (
	"context"
	"errors"
	"time"
)

var ErrTimeout = errors.New("operation timed out")

// WithTimeout runs fn and returns ErrTimeout if the timer fires first.
// fn receives a context cancelled at the deadline so it can stop early;
// if it ignores the context its result is discarded.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	return WithTimeoutNotify(ctx, d, fn, nil)
}

// WithTimeoutNotify is WithTimeout with a hook for results that arrive after
// the caller already got ErrTimeout. late runs on its own goroutine.
func WithTimeoutNotify[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error), late func(T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := fn(ctx)
		done <- result{val: val, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return r.val, ErrTimeout
		}
		return r.val, r.err
	case <-ctx.Done():
		if late != nil {
			go func() {
				r := <-done
				late(r.val, r.err)
			}()
		}
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}
