// Package eventbus fans out notifications from the session, process and
// watch managers to the UI.
//
// Publishing never blocks: a subscriber whose buffer is full misses the
// event. Events are advisory, so Publish returns the number of subscribers
// reached and producers are free to ignore it. Events from one goroutine
// reach each subscriber in publish order.
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/monitoring"
)

const defaultBufferSize = 256

// Publisher is the producer side of the bus.
type Publisher interface {
	Publish(topic Topic, payload interface{}) int
}

// Bus is a multi-producer, multi-subscriber event broker.
type Bus struct {
	subs       map[chan Event]struct{}
	mu         sync.RWMutex
	done       chan struct{}
	bufferSize int
	metrics    *monitoring.Metrics
}

// New creates a bus with the default subscriber buffer.
func New() *Bus {
	return NewWithBuffer(defaultBufferSize)
}

// NewWithBuffer creates a bus with a custom subscriber buffer size.
func NewWithBuffer(size int) *Bus {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Bus{
		subs:       make(map[chan Event]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// WithMetrics adds metrics tracking.
func (b *Bus) WithMetrics(metrics *monitoring.Metrics) *Bus {
	b.metrics = metrics
	return b
}

// Subscribe returns a channel of events. The channel is closed when ctx is
// cancelled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event)
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event, b.bufferSize)
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()

		select {
		case <-b.done:
			return
		default:
		}

		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish sends an event to every subscriber without blocking and returns
// how many received it.
func (b *Bus) Publish(topic Topic, payload interface{}) int {
	event := Event{
		ID:        uuid.NewString(),
		Type:      topic,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return 0
	default:
	}

	delivered := 0
	for sub := range b.subs {
		select {
		case sub <- event:
			delivered++
		default:
		}
	}

	b.metrics.RecordEvent(string(topic), len(b.subs)-delivered)
	return delivered
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
