package events

import "sync"

// Feed is a minimal in-process change feed. Publishers hand each value to
// every registered subscriber synchronously, on the publishing goroutine.
// Subscribers must not assume any delivery order relative to each other.
type Feed[T any] struct {
	mu   sync.Mutex
	subs map[int]func(T)
	next int
}

// NewFeed creates an empty feed.
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[int]func(T))}
}

// Subscribe registers fn for future publishes and returns a cancel func.
// Cancelling is idempotent.
func (f *Feed[T]) Subscribe(fn func(T)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// Publish delivers v to every current subscriber. The subscriber list is
// snapshotted first so callbacks may subscribe or cancel without deadlocking.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	fns := make([]func(T), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Distinct returns a feed that republishes values from src, suppressing
// consecutive duplicates. The first value is always forwarded.
func Distinct[T comparable](src *Feed[T]) *Feed[T] {
	out := NewFeed[T]()

	var mu sync.Mutex
	var last T
	var seen bool
	src.Subscribe(func(v T) {
		mu.Lock()
		if seen && v == last {
			mu.Unlock()
			return
		}
		last, seen = v, true
		mu.Unlock()
		out.Publish(v)
	})

	return out
}
