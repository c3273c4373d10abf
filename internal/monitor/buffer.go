package monitor

// Rolling is a bounded list that keeps the most recent entries first.
// Ordering follows insertion, never entry content. It is not safe for
// concurrent use; the session loop is its only writer.
type Rolling[T any] struct {
	items    []T
	capacity int
}

// NewRolling creates a rolling list holding at most capacity entries.
// A capacity below one is treated as one.
func NewRolling[T any](capacity int) *Rolling[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Rolling[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push prepends v and drops the oldest entries beyond capacity.
func (r *Rolling[T]) Push(v T) {
	if len(r.items) < r.capacity {
		r.items = append(r.items, v)
	}
	// Shift right by one; the tail element falls off when full.
	copy(r.items[1:], r.items[:len(r.items)-1])
	r.items[0] = v
}

// Replace swaps the contents for items (already newest first),
// keeping at most capacity of them.
func (r *Rolling[T]) Replace(items []T) {
	if len(items) > r.capacity {
		items = items[:r.capacity]
	}
	r.items = append(r.items[:0], items...)
}

// Items returns a copy of the entries, newest first.
func (r *Rolling[T]) Items() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of entries held.
func (r *Rolling[T]) Len() int {
	return len(r.items)
}

// Cap returns the capacity.
func (r *Rolling[T]) Cap() int {
	return r.capacity
}
