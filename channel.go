package trafficlight

import (
	"context"
	"sync"
)

// Channel transfers values from a producer to one or more consumers.
//
// It is lossy: Receive returns the most recently sent value and discards
// anything else sent since the previous Receive. Use it where only the latest
// value matters, not as a message queue.
type Channel[T any] struct {
	mu      sync.Mutex
	pending []T
	notify  chan struct{}
}

func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{
		notify: make(chan struct{}, 1),
	}
}

// Send stores v and wakes at least one waiting receiver. It never blocks.
func (c *Channel[T]) Send(v T) {
	c.mu.Lock()
	c.pending = append(c.pending, v)
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
		// a wake-up is already pending
	}
}

// Receive blocks until a value is available and returns the latest one.
// It fails only when ctx is done.
func (c *Channel[T]) Receive(ctx context.Context) (T, error) {
	for {
		if v, ok := c.TryReceive(); ok {
			return v, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-c.notify:
		}
	}
}

// TryReceive returns the latest value without blocking.
func (c *Channel[T]) TryReceive() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		var zero T
		return zero, false
	}
	v := c.pending[len(c.pending)-1]
	clear(c.pending)
	c.pending = c.pending[:0]
	return v, true
}

// Len returns the number of values sent since the last receive.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
