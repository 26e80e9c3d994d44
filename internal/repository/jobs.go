package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/labforge/estudo-insights-back/internal/domain"
)

var ErrNotFound = errors.New("resource not found")

// CancelMessage is recorded on queued jobs swept aside by a reindex.
const CancelMessage = "reindexação solicitada: job cancelado"

// JobsRepository is the persistent state machine for indexing work.
// Claim and cancel are conditional updates: they only touch rows still in
// the expected status at the moment of the update, so two concurrent
// workers never own the same job.
type JobsRepository interface {
	EnqueueJobs(ctx context.Context, jobs []*domain.IndexingJob) error
	ClaimBatch(ctx context.Context, limit int) ([]*domain.IndexingJob, error)
	MarkDone(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, errorMessage string) error
	CancelQueued(ctx context.Context, projectID string) (int, error)
	GetJob(ctx context.Context, jobID string) (*domain.IndexingJob, error)
	CountByStatus(ctx context.Context, projectID string) (domain.JobStatusCounts, error)
}

// MemoryJobsRepository keeps jobs in memory for local development and tests.
type MemoryJobsRepository struct {
	mu   sync.Mutex
	jobs map[string]*domain.IndexingJob
}

func NewMemoryJobsRepository() *MemoryJobsRepository {
	return &MemoryJobsRepository{
		jobs: make(map[string]*domain.IndexingJob),
	}
}

func (r *MemoryJobsRepository) EnqueueJobs(_ context.Context, jobs []*domain.IndexingJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate the whole batch before touching state, matching the
	// all-or-nothing transaction of the Postgres repository. A repeated id
	// is rejected like a primary key conflict instead of silently putting
	// an existing job back to queued.
	seen := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		if job.ID == "" {
			return errors.New("job id is required")
		}
		if _, dup := seen[job.ID]; dup {
			return fmt.Errorf("duplicate job id %q", job.ID)
		}
		if _, exists := r.jobs[job.ID]; exists {
			return fmt.Errorf("duplicate job id %q", job.ID)
		}
		seen[job.ID] = struct{}{}
	}
	for _, job := range jobs {
		clone := cloneJob(job)
		clone.Status = domain.JobStatusQueued
		r.jobs[job.ID] = clone
	}
	return nil
}

func (r *MemoryJobsRepository) ClaimBatch(_ context.Context, limit int) ([]*domain.IndexingJob, error) {
	if limit <= 0 {
		return []*domain.IndexingJob{}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	candidates := make([]*domain.IndexingJob, 0)
	for _, job := range r.jobs {
		if job.Status == domain.JobStatusQueued {
			candidates = append(candidates, job)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	now := time.Now().UTC()
	claimed := make([]*domain.IndexingJob, 0, len(candidates))
	for _, job := range candidates {
		job.Status = domain.JobStatusRunning
		started := now
		job.StartedAt = &started
		claimed = append(claimed, cloneJob(job))
	}
	return claimed, nil
}

func (r *MemoryJobsRepository) MarkDone(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	job.Status = domain.JobStatusDone
	job.FinishedAt = &now
	return nil
}

func (r *MemoryJobsRepository) MarkFailed(_ context.Context, jobID string, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return ErrNotFound
	}

	job.RetryCount++
	job.ErrorMessage = errorMessage
	if job.RetryCount >= domain.MaxJobRetries {
		now := time.Now().UTC()
		job.Status = domain.JobStatusError
		job.FinishedAt = &now
		return nil
	}
	job.Status = domain.JobStatusQueued
	job.FinishedAt = nil
	return nil
}

func (r *MemoryJobsRepository) CancelQueued(_ context.Context, projectID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancelled := 0
	now := time.Now().UTC()
	for _, job := range r.jobs {
		if job.ProjectID != projectID || job.Status != domain.JobStatusQueued {
			continue
		}
		job.Status = domain.JobStatusError
		job.ErrorMessage = CancelMessage
		finished := now
		job.FinishedAt = &finished
		cancelled++
	}
	return cancelled, nil
}

func (r *MemoryJobsRepository) GetJob(_ context.Context, jobID string) (*domain.IndexingJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneJob(job), nil
}

func (r *MemoryJobsRepository) CountByStatus(_ context.Context, projectID string) (domain.JobStatusCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := domain.JobStatusCounts{}
	for _, job := range r.jobs {
		if job.ProjectID != projectID {
			continue
		}
		switch job.Status {
		case domain.JobStatusQueued:
			counts.Queued++
		case domain.JobStatusRunning:
			counts.Running++
		case domain.JobStatusDone:
			counts.Done++
		case domain.JobStatusError:
			counts.Error++
		}
	}
	return counts, nil
}

func cloneJob(job *domain.IndexingJob) *domain.IndexingJob {
	if job == nil {
		return nil
	}
	clone := *job
	if job.StartedAt != nil {
		started := *job.StartedAt
		clone.StartedAt = &started
	}
	if job.FinishedAt != nil {
		finished := *job.FinishedAt
		clone.FinishedAt = &finished
	}
	return &clone
}
