package queue

import (
	"context"
	"errors"

	"github.com/AthlureSolutions/sitelure/internal/models"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("queue closed")

// ErrEmpty is returned by Dequeue when a blocking poll timed out without a job.
var ErrEmpty = errors.New("queue empty")

// Queue transports pending jobs to workers. The database stays the source
// of truth for job state; a queue only carries which job to run next.
type Queue interface {
	// Enqueue adds a persisted job to the queue
	Enqueue(ctx context.Context, job *models.Job) error

	// Dequeue blocks until a job is available, ctx is done or the poll times out
	Dequeue(ctx context.Context) (*models.Job, error)

	// Close releases resources
	Close() error
}
