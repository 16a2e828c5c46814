package app

import (
	"context"
	"errors"
	"sync"

	"review_insight/internal/domain"
)

// Lazy memoizes its loader's first success, or a domain.ErrNotFound, until
// Reset. Any other error is returned to that caller and the next Get retries.
type Lazy[T any] struct {
	mu    sync.Mutex
	load  func(context.Context) (T, error)
	done  bool
	val   T
	err   error
	loads int
}

func NewLazy[T any](load func(context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{load: load}
}

// Value wraps an already-built value, e.g. a test fake.
func Value[T any](v T) *Lazy[T] {
	return &Lazy[T]{
		load: func(context.Context) (T, error) { return v, nil },
		done: true,
		val:  v,
	}
}

func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return l.val, l.err
	}
	l.loads++
	v, err := l.load(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		var zero T
		return zero, err
	}
	l.val, l.err, l.done = v, err, true
	return l.val, l.err
}

// Reset drops the memoized result; the next Get reloads.
func (l *Lazy[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	var zero T
	l.val, l.err, l.done = zero, nil, false
}

// Loads reports how many times the loader ran.
func (l *Lazy[T]) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}
