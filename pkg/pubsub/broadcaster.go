package pubsub

import (
	"errors"
	"sync"
)

// ErrStopped is returned by Subscribe after the broadcaster has shut down.
var ErrStopped = errors.New("broadcaster is stopped")

// Broadcaster fans values out to any number of subscribers without ever
// blocking the publisher. Each subscriber channel holds one pending value;
// when a subscriber is slow, the stale value is dropped and replaced with
// the newest one. Consumers that need every value must drain promptly or
// read from a replay source instead.
type Broadcaster[T any] struct {
	intake chan T

	mu      sync.Mutex
	subs    map[chan T]struct{}
	stopped bool
}

// NewBroadcaster creates a broadcaster and starts its delivery goroutine.
func NewBroadcaster[T any]() *Broadcaster[T] {
	b := &Broadcaster[T]{
		intake: make(chan T, 1),
		subs:   make(map[chan T]struct{}),
	}
	go b.deliver()
	return b
}

func (b *Broadcaster[T]) deliver() {
	for {
		msg, ok := <-b.intake
		if !ok {
			b.mu.Lock()
			for ch := range b.subs {
				close(ch)
			}
			b.stopped = true
			b.mu.Unlock()
			return
		}

		// Delivery happens under the lock so Unsubscribe can never close a
		// channel mid-send. The sends cannot block: eviction guarantees room
		// and this goroutine is the only sender.
		b.mu.Lock()
		for ch := range b.subs {
			select {
			case ch <- msg:
			default:
				// Subscriber is behind: evict the stale value, keep the newest.
				select {
				case <-ch:
				default:
				}
				ch <- msg
			}
		}
		b.mu.Unlock()
	}
}

// Publish hands a value to the delivery goroutine. Non-blocking: if the
// intake buffer is full the oldest undelivered value is dropped.
func (b *Broadcaster[T]) Publish(msg T) {
	select {
	case b.intake <- msg:
	default:
		select {
		case <-b.intake:
		default:
		}
		b.intake <- msg
	}
}

// Subscribe registers a new subscriber channel. The channel is closed when
// the broadcaster stops.
func (b *Broadcaster[T]) Subscribe() (chan T, error) {
	ch := make(chan T, 1)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return nil, ErrStopped
	}
	b.subs[ch] = struct{}{}
	return ch, nil
}

// Unsubscribe removes and closes a subscriber channel. Safe to call after
// Stop, in which case the channel is already closed.
func (b *Broadcaster[T]) Unsubscribe(ch chan T) {
	b.mu.Lock()
	delete(b.subs, ch)
	stopped := b.stopped
	b.mu.Unlock()
	if !stopped {
		close(ch)
	}
}

// Stop closes all subscriber channels after in-flight values are delivered.
func (b *Broadcaster[T]) Stop() {
	close(b.intake)
}
