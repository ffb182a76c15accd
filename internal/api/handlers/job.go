package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/AthlureSolutions/sitelure/internal/logstream"
	"github.com/AthlureSolutions/sitelure/internal/models"
	"github.com/AthlureSolutions/sitelure/internal/service"
	"github.com/gin-gonic/gin"
)

// JobHandler exposes generation jobs and their logs
type JobHandler struct {
	svc  *service.SiteService
	logs logstream.Subscriber
}

// NewJobHandler creates a JobHandler
func NewJobHandler(svc *service.SiteService, logs logstream.Subscriber) *JobHandler {
	return &JobHandler{svc: svc, logs: logs}
}

// GetJob returns a job with the logs captured so far
func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := parseID(c, "job")
	if !ok {
		return
	}
	job, err := h.svc.GetJob(c.Request.Context(), id, getUserID(c))
	if err != nil {
		handleServiceError(c, err, "Failed to fetch job")
		return
	}
	c.JSON(http.StatusOK, job)
}

// StreamJobLogs streams job logs in real time via Server-Sent Events.
// Accepts ?token= for EventSource clients.
func (h *JobHandler) StreamJobLogs(c *gin.Context) {
	id, ok := parseID(c, "job")
	if !ok {
		return
	}
	userID := getUserID(c)
	ctx := c.Request.Context()

	job, err := h.svc.GetJob(ctx, id, userID)
	if err != nil {
		handleServiceError(c, err, "Failed to fetch job")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if isFinished(job) {
		writeEvent(c.Writer, "", job.Logs)
		writeEvent(c.Writer, "done", "Job already completed")
		c.Writer.Flush()
		return
	}

	logCh, cancel := h.logs.Subscribe(ctx, id)
	defer cancel()

	// The job may have finished between the first read and Subscribe.
	if latest, err := h.svc.GetJob(ctx, id, userID); err == nil {
		job = latest
	}
	writeEvent(c.Writer, "", job.Logs)
	if isFinished(job) {
		writeEvent(c.Writer, "done", "Job already completed")
		c.Writer.Flush()
		return
	}
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logCh:
			if !ok || line == logstream.DoneMessage {
				writeEvent(c.Writer, "done", "Stream ended")
				c.Writer.Flush()
				return
			}
			writeEvent(c.Writer, "", line)
			c.Writer.Flush()
		}
	}
}

func isFinished(job *models.Job) bool {
	return job.Status == models.JobStatusCompleted || job.Status == models.JobStatusFailed
}

// writeEvent writes one SSE event; every line of data gets its own data field.
func writeEvent(w io.Writer, event, data string) {
	data = strings.TrimRight(data, "\n")
	if data == "" && event == "" {
		return
	}
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}
