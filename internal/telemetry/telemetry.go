// Package telemetry publishes pipeline progress events. Emission is
// fire-and-forget: a slow or full sink drops events rather than stalling
// the worker pool.
package telemetry

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is one progress notification.
type Event struct {
	Time   time.Time
	Name   string
	Batch  string
	Fields map[string]any
}

// Emitter receives pipeline events.
type Emitter interface {
	Emit(e Event)
	Close()
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(Event) {}
func (Nop) Close()     {}

// Log writes events through the global logger at debug level.
type Log struct{}

func (Log) Emit(e Event) {
	fields := make([]zap.Field, 0, len(e.Fields)+2)
	fields = append(fields, zap.String("event", e.Name), zap.String("batch", e.Batch))
	for k, v := range e.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	zap.L().Debug("telemetry", fields...)
}

func (Log) Close() {}

// Buffered decouples emitters from the hot path with a bounded queue.
// Events are dropped when the queue is full.
type Buffered struct {
	ch      chan Event
	next    Emitter
	wg      sync.WaitGroup
	dropped int
	mu      sync.Mutex
	closed  bool
}

// NewBuffered wraps next with a queue of the given size.
func NewBuffered(next Emitter, size int) *Buffered {
	if size <= 0 {
		size = 256
	}
	b := &Buffered{ch: make(chan Event, size), next: next}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for e := range b.ch {
			b.next.Emit(e)
		}
	}()
	return b
}

// Emit queues the event, dropping it when the buffer is full or the
// emitter is closed.
func (b *Buffered) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	select {
	case b.ch <- e:
	default:
		b.dropped++
	}
	b.mu.Unlock()
}

// Close drains the queue and stops the forwarding goroutine.
func (b *Buffered) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	dropped := b.dropped
	b.mu.Unlock()

	close(b.ch)
	b.wg.Wait()
	b.next.Close()

	if dropped > 0 {
		zap.L().Warn("telemetry: events dropped", zap.Int("count", dropped))
	}
}

// Dropped reports how many events were discarded because the queue was
// full.
func (b *Buffered) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
