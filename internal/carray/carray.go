// Package carray provides fixed-capacity, append-only, compactable arrays.
//
// An Array never reallocates: every element keeps its backing position until
// a range before it is erased. External views (see internal/view) depend on
// this; a reallocation would invalidate offsets held elsewhere. EraseRange
// physically shifts the tail left and leaves all view fixup to the caller.
package carray

import "errors"

// ErrFull is returned when an append would exceed the array's capacity.
var ErrFull = errors.New("carray: capacity exceeded")

// Array is a growable-but-capacity-bounded array of T.
type Array[T any] struct {
	items []T
}

// New creates an Array with the given fixed capacity.
func New[T any](capacity int) *Array[T] {
	return &Array[T]{items: make([]T, 0, capacity)}
}

// Push appends item at the tail and returns its index.
// Returns ErrFull when the array is at capacity; existing elements are
// never moved by an append.
func (a *Array[T]) Push(item T) (int, error) {
	if len(a.items) == cap(a.items) {
		return 0, ErrFull
	}
	a.items = append(a.items, item)
	return len(a.items) - 1, nil
}

// EraseRange removes n elements starting at off by shifting the tail left.
// Vacated slots are zeroed so element-held references are released.
// No view fixup happens here; that is the caller's responsibility.
func (a *Array[T]) EraseRange(off, n int) {
	if n <= 0 {
		return
	}
	oldLen := len(a.items)
	copy(a.items[off:], a.items[off+n:])
	newLen := oldLen - n
	clear(a.items[newLen:oldLen])
	a.items = a.items[:newLen]
}

// Len returns the current number of elements.
func (a *Array[T]) Len() int { return len(a.items) }

// Cap returns the fixed capacity.
func (a *Array[T]) Cap() int { return cap(a.items) }

// At returns a pointer to the element at index i.
func (a *Array[T]) At(i int) *T { return &a.items[i] }

// Items returns the live elements. The slice aliases internal storage and
// is invalidated by the next Push or EraseRange.
func (a *Array[T]) Items() []T { return a.items }

// Window returns the elements in [off, off+n). Same aliasing caveat as Items.
func (a *Array[T]) Window(off, n int) []T { return a.items[off : off+n] }

// Clear removes all elements, keeping capacity.
func (a *Array[T]) Clear() {
	clear(a.items)
	a.items = a.items[:0]
}
