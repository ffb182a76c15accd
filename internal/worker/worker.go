package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/AthlureSolutions/sitelure/internal/logstream"
	"github.com/AthlureSolutions/sitelure/internal/models"
	"github.com/AthlureSolutions/sitelure/internal/queue"
	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
	"gorm.io/gorm"
)

// SiteRunner runs the pipeline for one stored site.
type SiteRunner interface {
	Run(ctx context.Context, site *models.Site, logWriter io.Writer) (*models.Site, error)
}

// SiteLoader loads the site a job refers to.
type SiteLoader interface {
	GetOne(ctx context.Context, id, owner uuid.UUID) (*models.Site, error)
	UpdateStage(ctx context.Context, id, owner uuid.UUID, stage models.SiteStage, reason string) error
}

const interruptedReason = "The run was interrupted before it finished"

// Worker processes generation jobs from the queue
type Worker struct {
	db           *gorm.DB
	queue        queue.Queue
	sites        SiteLoader
	runner       SiteRunner
	logger       *slog.Logger
	broker       *logstream.Broker
	valkeyClient valkey.Client // distributed log streaming, nil in single-process mode
	maxWorkers   int
	semaphore    chan struct{}
	flushEvery   time.Duration
	wg           sync.WaitGroup
}

// New creates a worker running at most concurrency jobs at once.
func New(db *gorm.DB, q queue.Queue, sites SiteLoader, runner SiteRunner, concurrency int, logger *slog.Logger, valkeyClient valkey.Client) *Worker {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		db:           db,
		queue:        q,
		sites:        sites,
		runner:       runner,
		logger:       logger,
		broker:       logstream.NewBroker(),
		valkeyClient: valkeyClient,
		maxWorkers:   concurrency,
		semaphore:    make(chan struct{}, concurrency),
		flushEvery:   2 * time.Second,
	}
}

// Broker returns the log broker for SSE endpoints
func (w *Worker) Broker() *logstream.Broker {
	return w.broker
}

// RecoverInterrupted fails jobs left running by a previous process, along
// with their sites. Failed runs are never resumed. includePending also fails
// pending jobs, for queues that do not outlive the process.
func (w *Worker) RecoverInterrupted(ctx context.Context, includePending bool) error {
	statuses := []models.JobStatus{models.JobStatusRunning}
	if includePending {
		statuses = append(statuses, models.JobStatusPending)
	}

	var jobs []models.Job
	err := w.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Find(&jobs).Error
	if err != nil {
		return fmt.Errorf("find interrupted jobs: %w", err)
	}

	for i := range jobs {
		if err := w.interrupt(ctx, &jobs[i]); err != nil {
			return err
		}
	}
	return nil
}

// interrupt fails a job that will never run, and its site.
func (w *Worker) interrupt(ctx context.Context, job *models.Job) error {
	now := time.Now()
	job.Status = models.JobStatusFailed
	job.Error = interruptedReason
	job.CompletedAt = &now
	if err := w.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("fail job %s: %w", job.ID, err)
	}
	if err := w.sites.UpdateStage(ctx, job.SiteID, job.OwnerID, models.StageFailed, interruptedReason); err != nil {
		w.logger.Warn("Failed to mark interrupted site", "site_id", job.SiteID, "error", err)
	}
	w.logger.Warn("Marked interrupted job as failed", "job_id", job.ID, "site_id", job.SiteID)
	return nil
}

// Start processes jobs until ctx is done or the queue is closed, then waits
// for in-flight jobs.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Worker started", "max_concurrent_jobs", w.maxWorkers)
	defer func() {
		w.wg.Wait()
		w.logger.Info("Worker stopped")
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		job, err := w.queue.Dequeue(ctx)
		switch {
		case errors.Is(err, queue.ErrEmpty):
			continue
		case errors.Is(err, queue.ErrClosed):
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			w.logger.Error("Failed to dequeue job", "error", err)
			time.Sleep(time.Second)
			continue
		}

		select {
		case w.semaphore <- struct{}{}:
			w.wg.Add(1)
			go func(j *models.Job) {
				defer w.wg.Done()
				defer func() { <-w.semaphore }()
				w.processJob(ctx, j)
			}(job)
		case <-ctx.Done():
			// Already off the queue, so nothing else will ever run it.
			if err := w.interrupt(context.WithoutCancel(ctx), job); err != nil {
				w.logger.Error("Failed to mark dropped job", "job_id", job.ID, "error", err)
			}
			return ctx.Err()
		}
	}
}

func (w *Worker) processJob(ctx context.Context, job *models.Job) {
	log := w.logger.With("job_id", job.ID, "site_id", job.SiteID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic recovered in processJob", "panic", r)
			now := time.Now()
			job.CompletedAt = &now
			job.Status = models.JobStatusFailed
			job.Error = fmt.Sprintf("job panicked: %v", r)
			w.db.Save(job)
			if err := w.sites.UpdateStage(context.WithoutCancel(ctx), job.SiteID, job.OwnerID, models.StageFailed, interruptedReason); err != nil {
				log.Error("Failed to mark site failed after panic", "error", err)
			}
		}
	}()

	log.Info("Processing job")
	now := time.Now()
	job.Status = models.JobStatusRunning
	job.StartedAt = &now
	w.db.Save(job)

	var logBuf bytes.Buffer
	var logMu sync.Mutex
	stopFlushing := make(chan struct{})
	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		w.flushLogs(job.ID, &logBuf, &logMu, stopFlushing)
	}()
	stopFlush := sync.OnceFunc(func() {
		close(stopFlushing)
		<-flushed
	})
	defer stopFlush()
	defer w.broker.Close(job.ID)

	safe := &threadSafeWriter{writer: &logBuf, mu: &logMu}
	var logWriter io.Writer = logstream.NewStreamWriter(job.ID, w.broker, safe)
	var valkeyWriter *logstream.ValkeyWriter
	if w.valkeyClient != nil {
		valkeyWriter = logstream.NewValkeyWriter(w.valkeyClient, job.ID)
		logWriter = io.MultiWriter(logWriter, valkeyWriter)
	}

	err := w.runJob(ctx, job, logWriter)
	stopFlush()

	logMu.Lock()
	job.Logs = logBuf.String()
	logMu.Unlock()
	completed := time.Now()
	job.CompletedAt = &completed

	if err != nil {
		log.Error("Job failed", "error", err)
		job.Status = models.JobStatusFailed
		job.Error = err.Error()
		w.publish(job.ID, valkeyWriter, fmt.Sprintf("[ERROR] %v\n", err))
	} else {
		log.Info("Job completed")
		job.Status = models.JobStatusCompleted
	}
	w.publish(job.ID, valkeyWriter, logstream.DoneMessage)

	if err := w.db.Save(job).Error; err != nil {
		log.Error("Failed to save job", "error", err)
	}
}

func (w *Worker) runJob(ctx context.Context, job *models.Job, logWriter io.Writer) error {
	if job.Type != models.JobTypeGenerate {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	site, err := w.sites.GetOne(ctx, job.SiteID, job.OwnerID)
	if err != nil {
		return fmt.Errorf("load site: %w", err)
	}

	out, err := w.runner.Run(ctx, site, logWriter)
	if out != nil {
		job.Stage = out.Stage
	}
	return err
}

func (w *Worker) publish(jobID uuid.UUID, vw *logstream.ValkeyWriter, msg string) {
	w.broker.Publish(jobID, msg)
	if vw != nil {
		if err := vw.Publish(msg); err != nil {
			w.logger.Warn("Failed to publish to Valkey", "job_id", jobID, "error", err)
		}
	}
}

// flushLogs periodically saves accumulated logs so GET /jobs/:id shows progress.
func (w *Worker) flushLogs(jobID uuid.UUID, logBuf *bytes.Buffer, mu *sync.Mutex, stop chan struct{}) {
	ticker := time.NewTicker(w.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mu.Lock()
			current := logBuf.String()
			mu.Unlock()
			if err := w.db.Model(&models.Job{}).Where("id = ?", jobID).Update("logs", current).Error; err != nil {
				w.logger.Error("Failed to flush logs to database", "job_id", jobID, "error", err)
			}
		case <-stop:
			return
		}
	}
}

// threadSafeWriter wraps an io.Writer with a mutex for concurrent access
type threadSafeWriter struct {
	writer io.Writer
	mu     *sync.Mutex
}

func (w *threadSafeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writer.Write(p)
}
