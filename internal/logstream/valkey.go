package logstream

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

// Channel is the pub/sub channel a job's log lines are published on.
func Channel(jobID uuid.UUID) string {
	return "sitelure:logs:" + jobID.String()
}

// ValkeyWriter publishes log lines to Valkey so API processes other than
// the worker can stream them.
type ValkeyWriter struct {
	client valkey.Client
	jobID  uuid.UUID
}

// NewValkeyWriter creates a publisher for one job
func NewValkeyWriter(client valkey.Client, jobID uuid.UUID) *ValkeyWriter {
	return &ValkeyWriter{client: client, jobID: jobID}
}

// Write implements io.Writer. Publish failures are logged and never fail the job.
func (w *ValkeyWriter) Write(p []byte) (int, error) {
	if err := w.Publish(string(p)); err != nil {
		slog.Warn("Failed to publish log line to Valkey", "job_id", w.jobID, "error", err)
	}
	return len(p), nil
}

// Publish sends one message on the job's channel.
func (w *ValkeyWriter) Publish(message string) error {
	cmd := w.client.B().Publish().Channel(Channel(w.jobID)).Message(message).Build()
	return w.client.Do(context.Background(), cmd).Error()
}

// ValkeySubscriber streams log lines published by workers in other processes.
type ValkeySubscriber struct {
	client valkey.Client
}

// NewValkeySubscriber creates a Subscriber over Valkey pub/sub.
func NewValkeySubscriber(client valkey.Client) *ValkeySubscriber {
	return &ValkeySubscriber{client: client}
}

// Subscribe implements Subscriber. The channel closes after DoneMessage or
// when ctx or the returned cancel func ends the subscription.
func (s *ValkeySubscriber) Subscribe(ctx context.Context, jobID uuid.UUID) (<-chan string, func()) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan string, 100)

	go func() {
		defer close(ch)
		cmd := s.client.B().Subscribe().Channel(Channel(jobID)).Build()
		err := s.client.Receive(ctx, cmd, func(msg valkey.PubSubMessage) {
			select {
			case ch <- msg.Message:
			default:
			}
			if msg.Message == DoneMessage {
				cancel()
			}
		})
		if err != nil && ctx.Err() == nil {
			slog.Warn("Valkey log subscription ended", "job_id", jobID, "error", err)
		}
	}()

	return ch, cancel
}
