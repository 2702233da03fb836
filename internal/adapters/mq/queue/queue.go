// Package queue buffers door messages between transport callbacks and the
// monitor tick loop.
//
// Producers never block: a full or closed buffer rejects the message and
// counts the drop. The consumer drains whatever is pending at the top of each
// tick without waiting.
package queue

import (
	"context"
	"sync"

	"github.com/okian/doorlog/internal/domain/model"
	"github.com/okian/doorlog/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Message is the payload type flowing through the queue.
type Message = model.Message

// Queue provides non-blocking enqueue and drain.
type Queue interface {
	// Enqueue adds a message. It returns ErrBufferFull or ErrClosed when the
	// message was dropped.
	Enqueue(ctx context.Context, m Message) error

	// Drain returns every pending message in arrival order, or nil.
	Drain(ctx context.Context) []Message

	// Len returns the number of pending messages.
	Len(ctx context.Context) int

	// Close stops accepting messages and discards pending ones.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events   chan Message
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan Message, q.capacity)
	metrics.UpdateEventBuffer(0, q.capacity)
	return q
}

// Enqueue adds a message without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, m Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordEventDropped("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordEventDropped("context_cancelled")
		return err
	}

	select {
	case q.events <- m:
		metrics.RecordEventReceived(m.Channel)
		metrics.UpdateEventBuffer(len(q.events), q.capacity)
		return nil
	default:
		metrics.RecordEventDropped("buffer_full")
		return ErrBufferFull
	}
}

// Drain empties the buffer without waiting for new messages.
func (q *InMemoryQueue) Drain(_ context.Context) []Message {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return nil
	}

	var out []Message
	for {
		select {
		case m := <-q.events:
			out = append(out, m)
		default:
			metrics.UpdateEventBuffer(len(q.events), q.capacity)
			return out
		}
	}
}

// Len returns the current number of queued messages.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.events)
}

// Cap returns the configured capacity.
func (q *InMemoryQueue) Cap() int {
	return q.capacity
}

// Close discards pending messages and rejects further enqueues.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	for dropped := len(q.events); dropped > 0; dropped-- {
		<-q.events
		metrics.RecordEventDropped("shutdown")
	}
	metrics.UpdateEventBuffer(0, q.capacity)
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
