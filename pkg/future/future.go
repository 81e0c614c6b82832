// Package future provides the deferred result returned by every data-access
// operation. A Future is returned before the backend has answered; it is
// settled exactly once with either a value or an error.
//
// Synchronous backends hand back futures that are already settled, so callers
// treat every backend the same way:
//
//	res, err := ds.Query(ctx, criterion, nil).Wait(ctx)
package future

import (
	"context"
	"sync"
)

// Future is a single-assignment result.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// New returns an unsettled future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f := New[T]()
	f.Resolve(v)
	return f
}

// Failed returns a future already settled with err.
func Failed[T any](err error) *Future[T] {
	f := New[T]()
	f.Reject(err)
	return f
}

// Settle stores v and err. Only the first call has any effect; it reports
// whether this call settled the future.
func (f *Future[T]) Settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.value = v
		f.err = err
		settled = true
		close(f.done)
	})
	return settled
}

// Resolve settles the future with a value.
func (f *Future[T]) Resolve(v T) bool {
	return f.Settle(v, nil)
}

// Reject settles the future with an error.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.Settle(zero, err)
}

// Done is closed once the future is settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsSettled reports whether a value or error is available.
func (f *Future[T]) IsSettled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the future settles or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the settled value and error without blocking. Before the
// future settles it returns the zero value and a nil error, which is the
// placeholder callers see from asynchronous backends.
func (f *Future[T]) Result() (T, error) {
	if !f.IsSettled() {
		var zero T
		return zero, nil
	}
	return f.value, f.err
}

// Then runs fn on its own goroutine once f settles.
func (f *Future[T]) Then(fn func(T, error)) {
	go func() {
		<-f.done
		fn(f.value, f.err)
	}()
}

// Observe runs fn once f settles. An already settled future runs fn on the
// calling goroutine, so synchronous backends stay synchronous.
func (f *Future[T]) Observe(fn func(T, error)) {
	if f.IsSettled() {
		fn(f.value, f.err)
		return
	}
	f.Then(fn)
}

// Map settles a new future with fn applied to the value of f. Errors pass
// through unchanged.
func Map[T, U any](f *Future[T], fn func(T) U) *Future[U] {
	out := New[U]()
	f.Observe(func(v T, err error) {
		if err != nil {
			out.Reject(err)
			return
		}
		out.Resolve(fn(v))
	})
	return out
}
