// Package events provides an in-process publish/subscribe bus that calls
// subscribers synchronously, in the order they subscribed.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// Handler receives one event.
type Handler[T any] func(T)

type subscription[T any] struct {
	id string
	fn Handler[T]
}

// Bus delivers events of type T to its subscribers. The zero value is ready
// to use.
type Bus[T any] struct {
	mu     sync.RWMutex
	subs   []subscription[T]
	closed bool
}

// New returns an empty bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{}
}

// Subscribe registers fn and returns its subscription ID. It returns "" on
// a closed bus.
func (b *Bus[T]) Subscribe(fn Handler[T]) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ""
	}
	id := uuid.New().String()
	b.subs = append(b.subs, subscription[T]{id: id, fn: fn})
	return id
}

// Unsubscribe removes the subscription with the given ID. Unknown IDs are
// ignored.
func (b *Bus[T]) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit calls every subscriber with ev, in registration order, on the
// caller's goroutine. Handlers may subscribe or unsubscribe; the change
// applies from the next Emit.
func (b *Bus[T]) Emit(ev T) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// Chan subscribes a buffered channel. Events are dropped when the channel
// is full. The returned cancel func unsubscribes and closes the channel.
func (b *Bus[T]) Chan(buffer int) (<-chan T, func()) {
	ch := make(chan T, buffer)
	var (
		mu   sync.Mutex
		done bool
	)
	id := b.Subscribe(func(ev T) {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return
		}
		select {
		case ch <- ev:
		default:
		}
	})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.Unsubscribe(id)
			mu.Lock()
			done = true
			close(ch)
			mu.Unlock()
		})
	}
	if id == "" {
		cancel()
	}
	return ch, cancel
}

// Close drops every subscriber. Later Emits and Subscribes do nothing.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
