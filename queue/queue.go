package queue

import (
	"sync/atomic"
)

type Queue[T any] struct {
	items atomic.Pointer[[]T]
}

func (q *Queue[T]) Len() int {
	return len(*q.items.Load())
}

func (q *Queue[T]) Pop() (T, bool) {
	var zero T
	items := *q.items.Load()
	if len(items) == 0 {
		return zero, false
	}
	item := items[0]
	items = items[1:]
	q.items.Store(&items)
	return item, true
}

func (q *Queue[T]) Push(item T) {
	items := *q.items.Load()
	items = append(items, item)
	q.items.Store(&items)
}

// Drain pops every queued item in order.
func (q *Queue[T]) Drain() []T {
	items := *q.items.Load()
	empty := []T{}
	q.items.Store(&empty)
	return items
}

func New[T any](maybeCapacity ...int) *Queue[T] {
	var items []T
	if len(maybeCapacity) > 0 {
		items = make([]T, 0, maybeCapacity[0])
	}
	q := &Queue[T]{}
	q.items.Store(&items)
	return q
}
