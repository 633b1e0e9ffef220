// Package lazy provides a value computed on first use.
package lazy

import "sync"

// Value holds a result computed at most once successfully. Failed
// computations are not cached, so a later Get retries.
type Value[T any] struct {
	mu   sync.Mutex
	done bool
	val  T
}

// Get returns the cached value or computes it with fn.
func (v *Value[T]) Get(fn func() (T, error)) (T, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.done {
		return v.val, nil
	}
	val, err := fn()
	if err != nil {
		var zero T
		return zero, err
	}
	v.val, v.done = val, true
	return val, nil
}

// Done reports whether the value has been computed.
func (v *Value[T]) Done() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.done
}
