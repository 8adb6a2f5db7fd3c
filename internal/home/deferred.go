package home

import (
	"context"
	"sync"
)

// Status is the settlement state of a Deferred.
type Status int

const (
	StatusPending Status = iota
	StatusResolved
	StatusRejected
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// Deferred is a value that settles exactly once, either resolved or rejected.
type Deferred[T any] struct {
	once  sync.Once
	done  chan struct{}
	mu    sync.RWMutex
	value T
	err   error
	state Status
}

// NewDeferred returns a pending Deferred.
func NewDeferred[T any]() *Deferred[T] {
	return &Deferred[T]{done: make(chan struct{})}
}

// Go starts fn in a new goroutine and settles the Deferred with its result.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Deferred[T] {
	d := NewDeferred[T]()
	go func() {
		v, err := fn(ctx)
		if err != nil {
			d.Reject(err)
			return
		}
		d.Resolve(v)
	}()
	return d
}

// Resolved returns a Deferred already settled with v.
func Resolved[T any](v T) *Deferred[T] {
	d := NewDeferred[T]()
	d.Resolve(v)
	return d
}

// Rejected returns a Deferred already settled with err.
func Rejected[T any](err error) *Deferred[T] {
	d := NewDeferred[T]()
	d.Reject(err)
	return d
}

// Resolve settles with v. Calls after the first settlement are ignored.
func (d *Deferred[T]) Resolve(v T) {
	d.settle(v, nil, StatusResolved)
}

// Reject settles with err. Calls after the first settlement are ignored.
func (d *Deferred[T]) Reject(err error) {
	var zero T
	d.settle(zero, err, StatusRejected)
}

func (d *Deferred[T]) settle(v T, err error, st Status) {
	d.once.Do(func() {
		d.mu.Lock()
		d.value, d.err, d.state = v, err, st
		d.mu.Unlock()
		close(d.done)
	})
}

// Done is closed once the Deferred settles.
func (d *Deferred[T]) Done() <-chan struct{} { return d.done }

// Status reports the current settlement state without blocking.
func (d *Deferred[T]) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Peek returns the current state with its value or error without blocking.
func (d *Deferred[T]) Peek() (T, Status, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.value, d.state, d.err
}

// Await blocks until the Deferred settles or ctx is done.
// A ctx error leaves the Deferred pending.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		v, _, err := d.Peek()
		return v, err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
