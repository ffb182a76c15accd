package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AthlureSolutions/sitelure/internal/models"
	"github.com/google/uuid"
)

func TestMemoryQueueFIFO(t *testing.T) {
	q := NewMemoryQueue(10)
	defer q.Close()
	ctx := context.Background()

	first := &models.Job{ID: uuid.New()}
	second := &models.Job{ID: uuid.New()}
	for _, j := range []*models.Job{first, second} {
		if err := q.Enqueue(ctx, j); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	for _, want := range []*models.Job{first, second} {
		got, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}
		if got.ID != want.ID {
			t.Errorf("got job %s, want %s", got.ID, want.ID)
		}
	}
}

func TestMemoryQueueRejectsJobWithoutID(t *testing.T) {
	q := NewMemoryQueue(1)
	defer q.Close()
	if err := q.Enqueue(context.Background(), &models.Job{}); err == nil {
		t.Fatal("expected error for job without id")
	}
}

func TestMemoryQueueDequeueHonoursContext(t *testing.T) {
	q := NewMemoryQueue(1)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := q.Dequeue(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMemoryQueueClose(t *testing.T) {
	q := NewMemoryQueue(1)
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := q.Enqueue(context.Background(), &models.Job{ID: uuid.New()}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := q.Dequeue(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from drained queue, got %v", err)
	}
}
