package reorder

import "github.com/pkg/errors"

// ErrInvalidWindow is returned by NewBuffer when W is out of [1,128).
var ErrInvalidWindow = errors.New("reorder: window must satisfy 1 <= W < 128")

// Item is anything carrying a wrap-aware sequence number.
type Item[T any] struct {
	Seq   Seq
	Value T
}

// Buffer holds up to W items, always releasing the smallest sequence number
// under the wrap-aware comparator. It is not safe for concurrent use.
type Buffer[T any] struct {
	window int
	items  []Item[T]
}

// NewBuffer constructs an empty buffer with capacity W.
func NewBuffer[T any](w int) (*Buffer[T], error) {
	if w < 1 || w >= 128 {
		return nil, ErrInvalidWindow
	}
	return &Buffer[T]{window: w}, nil
}

// Len reports how many items are currently held.
func (b *Buffer[T]) Len() int { return len(b.items) }

// Full reports whether the buffer holds W items.
func (b *Buffer[T]) Full() bool { return len(b.items) >= b.window }

// Admit adds an item. Callers must not exceed W outstanding items between
// Pop calls.
func (b *Buffer[T]) Admit(seq Seq, v T) {
	b.items = append(b.items, Item[T]{Seq: seq, Value: v})
}

// Pop removes and returns the item with the smallest sequence number.
func (b *Buffer[T]) Pop() (T, bool) {
	var zero T
	if len(b.items) == 0 {
		return zero, false
	}
	minIdx := 0
	for i := 1; i < len(b.items); i++ {
		if less(b.items[i].Seq, b.items[minIdx].Seq) {
			minIdx = i
		}
	}
	item := b.items[minIdx]
	b.items = append(b.items[:minIdx], b.items[minIdx+1:]...)
	return item.Value, true
}
