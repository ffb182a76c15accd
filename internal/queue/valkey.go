package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/AthlureSolutions/sitelure/internal/models"
	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
	"gorm.io/gorm"
)

// DefaultValkeyKey is the list jobs are pushed to.
const DefaultValkeyKey = "sitelure:jobs"

// ValkeyQueue implements a distributed job queue using a Valkey list.
// Only job IDs travel through Valkey; the database holds the job itself.
type ValkeyQueue struct {
	client valkey.Client
	db     *gorm.DB
	key    string
}

// NewValkeyQueue connects to addr and verifies the connection.
func NewValkeyQueue(addr string, db *gorm.DB) (*ValkeyQueue, error) {
	if db == nil {
		return nil, fmt.Errorf("database instance is required for Valkey queue")
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	slog.Info("Initialized Valkey job queue", "address", addr, "queue_key", DefaultValkeyKey)
	return NewValkeyQueueWithClient(client, db, DefaultValkeyKey), nil
}

// NewValkeyQueueWithClient wraps an existing client.
func NewValkeyQueueWithClient(client valkey.Client, db *gorm.DB, key string) *ValkeyQueue {
	if key == "" {
		key = DefaultValkeyKey
	}
	return &ValkeyQueue{client: client, db: db, key: key}
}

type envelope struct {
	ID     string `json:"id"`
	SiteID string `json:"site_id"`
}

// Enqueue saves the job and pushes its ID (RPUSH, FIFO with BLPOP).
func (q *ValkeyQueue) Enqueue(ctx context.Context, job *models.Job) error {
	if job.ID == uuid.Nil {
		return fmt.Errorf("job must have an ID")
	}
	if err := q.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("failed to save job to database: %w", err)
	}

	data, err := json.Marshal(envelope{ID: job.ID.String(), SiteID: job.SiteID.String()})
	if err != nil {
		return fmt.Errorf("failed to marshal job data: %w", err)
	}
	cmd := q.client.B().Rpush().Key(q.key).Element(string(data)).Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to push job to Valkey: %w", err)
	}

	slog.Debug("Job enqueued", "job_id", job.ID, "queue_key", q.key)
	return nil
}

// Dequeue blocks up to five seconds for the next job ID and loads the job.
// A timeout returns ErrEmpty.
func (q *ValkeyQueue) Dequeue(ctx context.Context) (*models.Job, error) {
	cmd := q.client.B().Blpop().Key(q.key).Timeout(5).Build()
	values, err := q.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if valkey.IsValkeyNil(err) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("failed to pop job from Valkey: %w", err)
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("invalid BLPOP result: expected 2 values, got %d", len(values))
	}

	var env envelope
	if err := json.Unmarshal([]byte(values[1]), &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job data: %w", err)
	}
	jobID, err := uuid.Parse(env.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse job ID: %w", err)
	}

	var job models.Job
	if err := q.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch job from database: %w", err)
	}

	slog.Debug("Job dequeued", "job_id", job.ID, "site_id", job.SiteID)
	return &job, nil
}

// Client returns the underlying Valkey client for log streaming.
func (q *ValkeyQueue) Client() valkey.Client {
	return q.client
}

// Close closes the Valkey connection
func (q *ValkeyQueue) Close() error {
	q.client.Close()
	slog.Info("Valkey queue closed")
	return nil
}
