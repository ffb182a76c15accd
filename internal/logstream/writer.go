package logstream

import (
	"io"

	"github.com/google/uuid"
)

// StreamWriter writes to a buffer and publishes each write to the broker.
type StreamWriter struct {
	jobID  uuid.UUID
	broker *Broker
	buffer io.Writer
}

// NewStreamWriter creates a writer that broadcasts to the broker and writes to buffer
func NewStreamWriter(jobID uuid.UUID, broker *Broker, buffer io.Writer) *StreamWriter {
	return &StreamWriter{jobID: jobID, broker: broker, buffer: buffer}
}

// Write implements io.Writer
func (w *StreamWriter) Write(p []byte) (int, error) {
	n, err := w.buffer.Write(p)
	if err != nil {
		return n, err
	}
	w.broker.Publish(w.jobID, string(p))
	return n, nil
}
