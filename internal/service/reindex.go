package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/labforge/estudo-insights-back/internal/domain"
	"github.com/labforge/estudo-insights-back/internal/indexer"
	"github.com/labforge/estudo-insights-back/internal/metrics"
	"github.com/labforge/estudo-insights-back/internal/queue"
	"github.com/labforge/estudo-insights-back/internal/repository"
)

// ReindexResult reports how many jobs a reindex created, by source type.
type ReindexResult struct {
	ProjectID   string `json:"project_id"`
	JobsCreated int    `json:"jobs_created"`
	Reports     int    `json:"reports"`
	Tasks       int    `json:"tasks"`
	Insights    int    `json:"insights"`
	Cancelled   int    `json:"cancelled"`
}

// ReindexService rebuilds a project's search index from scratch: wipe the
// stored fragments, sweep still-queued jobs aside and enqueue one job per
// live entity. The caller must already hold manager capability on the
// project; that gate is checked upstream, never here.
type ReindexService struct {
	jobs     repository.JobsRepository
	entities repository.EntitiesRepository
	storage  indexer.IndexStorage
	notifier queue.Notifier
	logger   *log.Logger
}

func NewReindexService(
	jobs repository.JobsRepository,
	entities repository.EntitiesRepository,
	storage indexer.IndexStorage,
	notifier queue.Notifier,
	logger *log.Logger,
) *ReindexService {
	return &ReindexService{
		jobs:     jobs,
		entities: entities,
		storage:  storage,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *ReindexService) Reindex(ctx context.Context, projectID string) (ReindexResult, error) {
	// Stale fragments only cause duplicate search hits until the rebuilt
	// jobs overwrite them, so a wipe failure is not fatal.
	if err := s.storage.DeleteProjectFragments(ctx, projectID); err != nil {
		if s.logger != nil {
			s.logger.Printf("fragment wipe failed project=%s err=%v", projectID, err)
		}
	}

	cancelled, err := s.jobs.CancelQueued(ctx, projectID)
	if err != nil {
		return ReindexResult{}, fmt.Errorf("cancel queued jobs: %w", err)
	}

	refs, err := s.entities.ListIndexableEntities(ctx, projectID)
	if err != nil {
		return ReindexResult{}, fmt.Errorf("list indexable entities: %w", err)
	}

	result := ReindexResult{ProjectID: projectID, Cancelled: cancelled}
	now := time.Now().UTC()
	jobs := make([]*domain.IndexingJob, 0, len(refs))
	for i, ref := range refs {
		jobs = append(jobs, &domain.IndexingJob{
			ID:         uuid.NewString(),
			Type:       domain.JobTypeFor(ref.SourceType),
			SourceType: ref.SourceType,
			SourceID:   ref.SourceID,
			ProjectID:  projectID,
			Status:     domain.JobStatusQueued,
			Priority:   domain.PriorityFor(ref.SourceType),
			// Per-job offsets keep enqueue timestamps distinct, so the
			// created_at tie-break stays FIFO inside a priority class.
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		})
		switch ref.SourceType {
		case domain.SourceTypeReport:
			result.Reports++
		case domain.SourceTypeTask:
			result.Tasks++
		case domain.SourceTypeInsight:
			result.Insights++
		}
	}
	result.JobsCreated = len(jobs)

	// An empty project is a successful no-op.
	if len(jobs) == 0 {
		return result, nil
	}

	if err := s.jobs.EnqueueJobs(ctx, jobs); err != nil {
		return ReindexResult{}, fmt.Errorf("enqueue reindex jobs: %w", err)
	}

	metrics.ReindexJobsCreated.WithLabelValues(string(domain.SourceTypeReport)).Add(float64(result.Reports))
	metrics.ReindexJobsCreated.WithLabelValues(string(domain.SourceTypeTask)).Add(float64(result.Tasks))
	metrics.ReindexJobsCreated.WithLabelValues(string(domain.SourceTypeInsight)).Add(float64(result.Insights))

	if err := s.notifier.Notify(ctx, projectID, len(jobs)); err != nil && s.logger != nil {
		s.logger.Printf("worker notify failed project=%s err=%v", projectID, err)
	}

	if s.logger != nil {
		s.logger.Printf(
			"reindex project=%s jobs=%d reports=%d tasks=%d insights=%d cancelled=%d",
			projectID,
			result.JobsCreated,
			result.Reports,
			result.Tasks,
			result.Insights,
			cancelled,
		)
	}
	return result, nil
}
