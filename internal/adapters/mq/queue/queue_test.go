package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/doorlog/internal/domain/model"
)

func msg(channel, payload string) model.Message {
	return model.Message{Channel: channel, Payload: payload}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if got := q.Drain(ctx); got != nil {
		t.Errorf("expected nil drain on empty queue, got %v", got)
	}

	if err := q.Enqueue(ctx, msg("enter", "07/05/2023 14:00:00")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if err := q.Enqueue(ctx, msg("user", "MJ235AA")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}

	got := q.Drain(ctx)
	if len(got) != 2 {
		t.Fatalf("expected 2 drained messages, got %d", len(got))
	}
	if got[0].Channel != "enter" || got[1].Channel != "user" {
		t.Errorf("expected arrival order enter,user got %s,%s", got[0].Channel, got[1].Channel)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0 after drain, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	_ = q.Enqueue(ctx, msg("enter", "a"))
	_ = q.Enqueue(ctx, msg("exit", "b"))

	if err := q.Enqueue(ctx, msg("user", "c")); !errors.Is(err, ErrBufferFull) {
		t.Errorf("expected ErrBufferFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
	if q.Cap() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Cap())
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, msg("enter", "a")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 50
	q := NewInMemoryQueue(WithCapacity(producers * perProducer))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				if err := q.Enqueue(ctx, msg("user", fmt.Sprintf("u%d-%d", id, j))); err != nil {
					t.Errorf("unexpected enqueue error: %v", err)
				}
			}
		}(i)
	}

	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
		}
		total += len(q.Drain(ctx))
	}

	if total != producers*perProducer {
		t.Errorf("expected %d drained messages, got %d", producers*perProducer, total)
	}
}

func TestInMemoryQueue_CloseDropsPending(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	_ = q.Enqueue(ctx, msg("enter", "a"))
	_ = q.Enqueue(ctx, msg("exit", "b"))

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected pending messages to be dropped, got %d", l)
	}
	if got := q.Drain(ctx); got != nil {
		t.Errorf("expected nil drain after close, got %v", got)
	}
	if err := q.Enqueue(ctx, msg("user", "c")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
