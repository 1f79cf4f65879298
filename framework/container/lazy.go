package container

import (
	"fmt"
	"sync"
)

// Lazy is a single-shot cell used for late-bound properties. The container
// binds it to a resolver; the first successful Get computes the value and
// every later Get returns the same value without touching the container.
//
//	type Mailer struct {
//	    Logger container.Lazy[*Logger]
//	}
//
//	logger, err := m.Logger.Get()
//
// A Lazy must not be copied after it is bound.
type Lazy[T any] struct {
	mu      sync.Mutex
	resolve func() (any, error)
	done    bool
	value   T
}

// NewLazy returns a cell computed by init on first Get.
func NewLazy[T any](init func() (T, error)) *Lazy[T] {
	l := &Lazy[T]{}
	l.bind(func() (any, error) { return init() })
	return l
}

// Get returns the value, computing it on the first call. A failed
// computation is not memoised.
func (l *Lazy[T]) Get() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero T
	if l.done {
		return l.value, nil
	}
	if l.resolve == nil {
		return zero, ErrLazyUnbound
	}

	v, err := l.resolve()
	if err != nil {
		return zero, err
	}
	if v != nil {
		typed, ok := v.(T)
		if !ok {
			return zero, fmt.Errorf("container: late-bound value is %T, want %T", v, zero)
		}
		l.value = typed
	}
	l.done = true
	l.resolve = nil
	return l.value, nil
}

// MustGet is Get that panics on error.
func (l *Lazy[T]) MustGet() T {
	v, err := l.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Resolved reports whether the value has been computed.
func (l *Lazy[T]) Resolved() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Bound reports whether the cell has an initializer or a value.
func (l *Lazy[T]) Bound() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done || l.resolve != nil
}

func (l *Lazy[T]) bind(fn func() (any, error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var zero T
	l.resolve, l.done, l.value = fn, false, zero
}

// lateBinder is implemented by *Lazy[T] for every T.
type lateBinder interface {
	bind(fn func() (any, error))
}
