package broadcast

import (
	"context"
	"sync"
)

// LatestBroadcaster keeps the most recent value and replays it to every new
// subscriber. Each subscriber buffers a single value; a newer value replaces
// one the consumer has not read yet, so Broadcast never blocks and never
// drops subscribers.
type LatestBroadcaster[T any] struct {
	value       T
	subscribers map[*subscriber[T]]struct{}
	closed      bool
	done        chan struct{}
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

// NewLatestBroadcaster creates a broadcaster holding initial as its current value.
func NewLatestBroadcaster[T any](initial T) *LatestBroadcaster[T] {
	return &LatestBroadcaster[T]{
		value:       initial,
		subscribers: make(map[*subscriber[T]]struct{}),
		done:        make(chan struct{}),
	}
}

// Subscribe returns a subscriber whose channel already holds the current value.
// The subscription ends when ctx is cancelled or the broadcaster is closed.
func (b *LatestBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscriber[T](1)
	if b.closed {
		_ = sub.Close()
		return sub
	}
	sub.replace(Message[T]{Data: b.value})
	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			select {
			case <-ctx.Done():
				b.unsubscribe(sub)
			case <-b.done:
			}
		}()
	}

	return sub
}

// Broadcast stores msg.Data as the current value and hands it to every subscriber.
func (b *LatestBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.value = msg.Data
	for sub := range b.subscribers {
		if !sub.replace(msg) {
			delete(b.subscribers, sub)
		}
	}
	return nil
}

// Publish is shorthand for Broadcast with a background context.
func (b *LatestBroadcaster[T]) Publish(v T) {
	_ = b.Broadcast(context.Background(), Message[T]{Data: v})
}

// Value returns the current value.
func (b *LatestBroadcaster[T]) Value() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

// Close closes every subscriber. The last value stays readable through Value.
func (b *LatestBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	b.mu.Unlock()

	b.cleanupWg.Wait()
	return nil
}

func (b *LatestBroadcaster[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	_ = sub.Close()
}
