// Package feed implements a small generic publish/subscribe primitive
// used for the engine's trade and L2 event streams.
package feed

import "sync"

// Callback receives a published event of type T.
type Callback[T any] func(event T)

// Feed is a typed, mutex-serialized publish/subscribe buffer. Subscribe
// and Publish are mutually exclusive: Publish holds the feed's mutex for
// the duration of the invocation sweep, so subscribers observe a total
// order consistent with the publish sequence.
type Feed[T any] struct {
	mu   sync.Mutex
	subs []Callback[T]
}

// New constructs an empty feed.
func New[T any]() *Feed[T] {
	return &Feed[T]{}
}

// Subscribe registers cb to be invoked on every future Publish, in
// registration order relative to other subscribers.
func (f *Feed[T]) Subscribe(cb Callback[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, cb)
}

// Publish invokes every registered callback with event, in registration
// order. A callback that panics is recovered and discarded; it never
// prevents subsequent callbacks from running, and never propagates to
// the caller of Publish.
func (f *Feed[T]) Publish(event T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cb := range f.subs {
		invokeSafely(cb, event)
	}
}

func invokeSafely[T any](cb Callback[T], event T) {
	defer func() {
		_ = recover()
	}()
	cb(event)
}
