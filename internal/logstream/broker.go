package logstream

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// DoneMessage is published once after the last log line of a job.
const DoneMessage = "[DONE]"

// Subscriber delivers a job's log lines until the job ends or ctx is done.
// The returned cancel func must be called when the reader stops.
type Subscriber interface {
	Subscribe(ctx context.Context, jobID uuid.UUID) (<-chan string, func())
}

// Broker fans out log lines of in-process jobs to SSE subscribers.
type Broker struct {
	subscribers map[uuid.UUID]map[chan string]struct{}
	mu          sync.RWMutex
}

// NewBroker creates a new log broker
func NewBroker() *Broker {
	return &Broker{subscribers: make(map[uuid.UUID]map[chan string]struct{})}
}

// Subscribe implements Subscriber.
func (b *Broker) Subscribe(ctx context.Context, jobID uuid.UUID) (<-chan string, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan string, 100)
	if b.subscribers[jobID] == nil {
		b.subscribers[jobID] = make(map[chan string]struct{})
	}
	b.subscribers[jobID][ch] = struct{}{}

	var once sync.Once
	return ch, func() { once.Do(func() { b.unsubscribe(jobID, ch) }) }
}

func (b *Broker) unsubscribe(jobID uuid.UUID, ch chan string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[jobID]
	if !ok {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(b.subscribers, jobID)
	}
}

// Publish sends a line to every subscriber of the job. Slow subscribers drop lines.
func (b *Broker) Publish(jobID uuid.UUID, line string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[jobID] {
		select {
		case ch <- line:
		default:
		}
	}
}

// Close ends every subscription of the job.
func (b *Broker) Close(jobID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers[jobID] {
		close(ch)
	}
	delete(b.subscribers, jobID)
}

// HasSubscribers reports whether anyone is listening to the job.
func (b *Broker) HasSubscribers(jobID uuid.UUID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[jobID]) > 0
}
