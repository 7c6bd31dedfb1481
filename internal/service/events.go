package service

import (
	"context"
	"sync"

	"security_monitor/internal/domain"
	"security_monitor/pkg/logger"
)

// EventBus fans write events out to the monitoring pipeline. Publish is
// best-effort and never blocks the producing write: when the buffer is full
// the event is dropped and counted.
type EventBus struct {
	events  chan domain.WriteEvent
	handler func(ctx context.Context, event domain.WriteEvent)
	workers int
	log     logger.Logger

	mu      sync.Mutex
	dropped int64
	closed  bool
}

func NewEventBus(buffer, workers int, handler func(ctx context.Context, event domain.WriteEvent), log logger.Logger) *EventBus {
	if buffer <= 0 {
		buffer = 1024
	}
	if workers <= 0 {
		workers = 1
	}
	return &EventBus{
		events:  make(chan domain.WriteEvent, buffer),
		handler: handler,
		workers: workers,
		log:     log,
	}
}

// Publish enqueues an event. Returns false when the event was dropped.
func (b *EventBus) Publish(event domain.WriteEvent) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.mu.Unlock()

	select {
	case b.events <- event:
		return true
	default:
		b.mu.Lock()
		b.dropped++
		dropped := b.dropped
		b.mu.Unlock()
		b.log.Warn("Event bus full, dropping write event",
			"collection", event.Collection, "dropped_total", dropped)
		return false
	}
}

// Run consumes events until the context is cancelled. It blocks; callers
// run it in a goroutine.
func (b *EventBus) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case event := <-b.events:
					b.dispatch(ctx, event)
				}
			}
		}()
	}
	wg.Wait()

	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// dispatch isolates the handler so a panic on one event cannot take down
// the worker, let alone the process.
func (b *EventBus) dispatch(ctx context.Context, event domain.WriteEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Event handler panicked",
				"panic", r, "collection", event.Collection, "user_id", event.UserID)
		}
	}()
	b.handler(ctx, event)
}

// Dropped reports how many events were discarded on a full buffer.
func (b *EventBus) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
