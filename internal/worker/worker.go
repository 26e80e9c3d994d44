package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/labforge/estudo-insights-back/internal/domain"
	"github.com/labforge/estudo-insights-back/internal/indexer"
	"github.com/labforge/estudo-insights-back/internal/metrics"
	"github.com/labforge/estudo-insights-back/internal/queue"
	"github.com/labforge/estudo-insights-back/internal/repository"
)

// DefaultBatchSize bounds one invocation when the caller does not choose.
const DefaultBatchSize = 5

// JobOutcome reports how one claimed job ended.
type JobOutcome struct {
	JobID  string           `json:"job_id"`
	Status domain.JobStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// BatchResult aggregates one RunBatch invocation.
type BatchResult struct {
	Processed int          `json:"processed"`
	Succeeded int          `json:"success"`
	Failed    int          `json:"errors"`
	Outcomes  []JobOutcome `json:"outcomes"`
}

// Worker claims queued indexing jobs and dispatches them to the content
// indexer. Multiple instances may run concurrently; exclusivity comes from
// the repository's conditional claim, not from coordination here.
type Worker struct {
	jobs    repository.JobsRepository
	indexer indexer.ContentIndexer
	logger  *log.Logger
}

func New(jobs repository.JobsRepository, contentIndexer indexer.ContentIndexer, logger *log.Logger) *Worker {
	return &Worker{
		jobs:    jobs,
		indexer: contentIndexer,
		logger:  logger,
	}
}

// RunBatch claims up to batchSize jobs and processes them sequentially in
// claim order. One job failing never aborts the rest of the batch; an
// empty queue is a successful no-op.
func (w *Worker) RunBatch(ctx context.Context, batchSize int) (BatchResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	started := time.Now()
	defer func() {
		metrics.BatchDuration.Observe(time.Since(started).Seconds())
	}()

	claimed, err := w.jobs.ClaimBatch(ctx, batchSize)
	if err != nil {
		return BatchResult{}, fmt.Errorf("claim batch: %w", err)
	}

	result := BatchResult{Outcomes: make([]JobOutcome, 0, len(claimed))}
	for _, job := range claimed {
		outcome := w.process(ctx, job)
		result.Processed++
		if outcome.Status == domain.JobStatusDone {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

func (w *Worker) process(ctx context.Context, job *domain.IndexingJob) JobOutcome {
	indexErr := w.indexer.Index(ctx, indexer.IndexRequest{
		JobID:      job.ID,
		SourceType: string(job.SourceType),
		SourceID:   job.SourceID,
		ProjectID:  job.ProjectID,
	})

	if indexErr == nil {
		if err := w.jobs.MarkDone(ctx, job.ID); err != nil {
			// The indexing itself succeeded; surface the bookkeeping
			// failure on the outcome without retrying the content work.
			if w.logger != nil {
				w.logger.Printf("mark done failed job_id=%s err=%v", job.ID, err)
			}
			return JobOutcome{JobID: job.ID, Status: job.Status, Error: err.Error()}
		}
		metrics.JobsProcessed.WithLabelValues(string(domain.JobStatusDone)).Inc()
		return JobOutcome{JobID: job.ID, Status: domain.JobStatusDone}
	}

	message := indexErr.Error()
	if err := w.jobs.MarkFailed(ctx, job.ID, message); err != nil {
		if w.logger != nil {
			w.logger.Printf("mark failed failed job_id=%s err=%v", job.ID, err)
		}
		return JobOutcome{JobID: job.ID, Status: job.Status, Error: message}
	}

	failed, err := w.jobs.GetJob(ctx, job.ID)
	status := domain.JobStatusQueued
	if err == nil {
		status = failed.Status
	}
	if status == domain.JobStatusError {
		metrics.JobsProcessed.WithLabelValues(string(domain.JobStatusError)).Inc()
	} else {
		metrics.JobRetries.Inc()
	}
	if w.logger != nil {
		w.logger.Printf("index job failed job_id=%s status=%s err=%v", job.ID, status, indexErr)
	}
	return JobOutcome{JobID: job.ID, Status: status, Error: message}
}

// Start polls for work until ctx is cancelled, waking early when the
// notifier fires. Batches keep running back to back while the queue still
// has claimable jobs.
func (w *Worker) Start(ctx context.Context, notifier queue.Notifier, batchSize int, pollInterval time.Duration) {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	for {
		if ctx.Err() != nil {
			return
		}

		result, err := w.RunBatch(ctx, batchSize)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if w.logger != nil {
				w.logger.Printf("worker batch error: %v", err)
			}
		} else if result.Processed > 0 {
			if w.logger != nil {
				w.logger.Printf(
					"worker batch processed=%d success=%d errors=%d",
					result.Processed,
					result.Succeeded,
					result.Failed,
				)
			}
			// Drained a full batch; the queue may hold more.
			if result.Processed == batchSize {
				continue
			}
		}

		notifier.Wait(ctx, pollInterval)
	}
}
