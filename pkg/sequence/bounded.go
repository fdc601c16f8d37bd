package sequence

import (
	"iter"
	"slices"
)

// Bounded is a FIFO holding at most Cap values. Pushing onto a full queue
// evicts the oldest values first.
type Bounded[T any] struct {
	items []T
	limit int
}

// NewBounded returns an empty queue; a negative capacity is treated as zero.
func NewBounded[T any](capacity int) *Bounded[T] {
	return &Bounded[T]{limit: max(capacity, 0)}
}

func (b *Bounded[T]) Cap() int { return b.limit }
func (b *Bounded[T]) Len() int { return len(b.items) }

// Push appends v and returns whatever was evicted to stay within capacity.
// With zero capacity v itself is evicted.
func (b *Bounded[T]) Push(v T) []T {
	b.items = append(b.items, v)
	return b.trim()
}

// SetCap changes the capacity, evicting the oldest values that no longer fit.
func (b *Bounded[T]) SetCap(capacity int) []T {
	b.limit = max(capacity, 0)
	return b.trim()
}

func (b *Bounded[T]) trim() []T {
	n := len(b.items) - b.limit
	if n <= 0 {
		return nil
	}
	evicted := slices.Clone(b.items[:n])
	clear(b.items[:n])
	b.items = b.items[n:]
	return evicted
}

// RemoveFunc drops every value matching pred and returns them in order.
func (b *Bounded[T]) RemoveFunc(pred func(T) bool) []T {
	var removed []T
	kept := b.items[:0]
	for _, v := range b.items {
		if pred(v) {
			removed = append(removed, v)
			continue
		}
		kept = append(kept, v)
	}
	clear(b.items[len(kept):])
	b.items = kept
	return removed
}

// Items returns a copy of the queued values, oldest first.
func (b *Bounded[T]) Items() []T {
	return slices.Clone(b.items)
}

// All iterates over a snapshot of the queued values, oldest first.
func (b *Bounded[T]) All() iter.Seq[T] {
	return slices.Values(b.Items())
}
