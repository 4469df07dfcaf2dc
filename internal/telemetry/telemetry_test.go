package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (r *recordingEmitter) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *recordingEmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestBuffered_ForwardsAndCloses(t *testing.T) {
	rec := &recordingEmitter{}
	b := NewBuffered(rec, 16)

	for i := 0; i < 5; i++ {
		b.Emit(Event{Name: "row", Batch: "b1"})
	}
	b.Close()

	require.Equal(t, 5, rec.count())
	assert.True(t, rec.closed)
	assert.Zero(t, b.Dropped())
	assert.False(t, rec.events[0].Time.IsZero(), "timestamp is filled in")
}

func TestBuffered_EmitAfterCloseIsNoop(t *testing.T) {
	rec := &recordingEmitter{}
	b := NewBuffered(rec, 4)
	b.Close()

	assert.NotPanics(t, func() { b.Emit(Event{Name: "late"}) })
	assert.Equal(t, 0, rec.count())
}

func TestBuffered_DropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	slow := &blockingEmitter{release: block}
	b := NewBuffered(slow, 1)

	// one event in flight, one in the queue, the rest dropped
	for i := 0; i < 10; i++ {
		b.Emit(Event{Name: "burst"})
	}
	close(block)
	b.Close()

	assert.Positive(t, b.Dropped())
}

type blockingEmitter struct {
	release <-chan struct{}
	once    sync.Once
}

func (s *blockingEmitter) Emit(Event) {
	s.once.Do(func() { <-s.release })
}

func (s *blockingEmitter) Close() {}

func TestNop(t *testing.T) {
	var n Nop
	assert.NotPanics(t, func() {
		n.Emit(Event{Name: "x", Time: time.Now()})
		n.Close()
	})
}
