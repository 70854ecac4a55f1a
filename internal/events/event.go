package events

import (
	"sync"
)

// Event is a typed pub/sub hub. Subscribers are either callbacks, invoked
// synchronously by Publish, or channels, which receive non-blocking sends.
type Event[T any] struct {
	mu          sync.RWMutex
	subscribers map[uint64]subscriber[T]
	nextID      uint64
	replayLast  bool
	last        T
	hasLast     bool
}

type subscriber[T any] struct {
	fn func(T)
	ch chan<- T
}

// New creates an Event.
// replayLast: if true, new subscribers immediately receive the most recently
// published value (when there is one)
func New[T any](replayLast bool) *Event[T] {
	return &Event[T]{
		subscribers: make(map[uint64]subscriber[T]),
		replayLast:  replayLast,
	}
}

// Subscribe registers a callback and returns its unsubscribe function
func (e *Event[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		panic("events: callback cannot be nil")
	}
	return e.add(subscriber[T]{fn: fn})
}

// SubscribeChan registers a channel and returns its unsubscribe function.
// A full channel misses values rather than blocking the publisher.
func (e *Event[T]) SubscribeChan(ch chan<- T) func() {
	if ch == nil {
		panic("events: channel cannot be nil")
	}
	return e.add(subscriber[T]{ch: ch})
}

func (e *Event[T]) add(sub subscriber[T]) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subscribers[id] = sub
	replay, value := e.replayLast && e.hasLast, e.last
	e.mu.Unlock()

	// outside the lock so the subscriber may call back into the event
	if replay {
		sub.deliver(value)
	}

	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}
}

// Publish delivers value to every current subscriber
func (e *Event[T]) Publish(value T) {
	e.mu.Lock()
	if e.replayLast {
		e.last = value
		e.hasLast = true
	}
	subs := make([]subscriber[T], 0, len(e.subscribers))
	for _, sub := range e.subscribers {
		subs = append(subs, sub)
	}
	e.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(value)
	}
}

// Last returns the most recently published value when replayLast is enabled
func (e *Event[T]) Last() (T, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last, e.hasLast
}

// SubscriberCount returns the number of registered subscribers
func (e *Event[T]) SubscriberCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subscribers)
}

func (s subscriber[T]) deliver(value T) {
	if s.fn != nil {
		s.fn(value)
		return
	}
	select {
	case s.ch <- value:
	default:
	}
}
