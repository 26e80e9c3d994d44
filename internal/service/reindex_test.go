package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labforge/estudo-insights-back/internal/domain"
	"github.com/labforge/estudo-insights-back/internal/queue"
	"github.com/labforge/estudo-insights-back/internal/repository"
)

type recordingStorage struct {
	deleted []string
	fail    bool
}

func (s *recordingStorage) DeleteProjectFragments(_ context.Context, projectID string) error {
	s.deleted = append(s.deleted, projectID)
	if s.fail {
		return errors.New("storage indisponível")
	}
	return nil
}

func TestReindexCreatesJobsWithPriorities(t *testing.T) {
	ctx := context.Background()
	jobs := repository.NewMemoryJobsRepository()
	entities := repository.NewMemoryEntitiesRepository()
	entities.SeedReport("p1", "r1")
	entities.SeedReport("p1", "r2")
	entities.SeedTask("p1", "t1")
	entities.SeedKnowledgeItem(&domain.KnowledgeItem{ID: "k1", ProjectID: "p1"})

	storage := &recordingStorage{}
	svc := NewReindexService(jobs, entities, storage, queue.NewLocalNotifier(), nil)

	result, err := svc.Reindex(ctx, "p1")
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if result.JobsCreated != 4 {
		t.Fatalf("jobs created = %d, want 4", result.JobsCreated)
	}
	if result.Reports != 2 || result.Tasks != 1 || result.Insights != 1 {
		t.Fatalf("breakdown = %+v, want 2/1/1", result)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != "p1" {
		t.Fatalf("fragment wipe calls = %v, want one for p1", storage.deleted)
	}

	// Reports claim first, then the insight, then the task.
	claimed, err := jobs.ClaimBatch(ctx, 4)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(claimed) != 4 {
		t.Fatalf("claimed %d, want 4", len(claimed))
	}
	if claimed[0].SourceType != domain.SourceTypeReport || claimed[1].SourceType != domain.SourceTypeReport {
		t.Errorf("first two claims should be reports, got %s/%s", claimed[0].SourceType, claimed[1].SourceType)
	}
	if claimed[2].SourceType != domain.SourceTypeInsight {
		t.Errorf("third claim = %s, want insight", claimed[2].SourceType)
	}
	if claimed[3].SourceType != domain.SourceTypeTask {
		t.Errorf("fourth claim = %s, want task", claimed[3].SourceType)
	}
	for _, job := range claimed {
		if job.Type != domain.JobTypeFor(job.SourceType) {
			t.Errorf("job %s type = %s, inconsistent with source %s", job.ID, job.Type, job.SourceType)
		}
	}
}

func TestReindexKeepsFIFOOrderWithinPriorityClass(t *testing.T) {
	ctx := context.Background()
	jobs := repository.NewMemoryJobsRepository()
	entities := repository.NewMemoryEntitiesRepository()
	reportIDs := []string{"r1", "r2", "r3", "r4"}
	for _, id := range reportIDs {
		entities.SeedReport("p1", id)
	}

	svc := NewReindexService(jobs, entities, &recordingStorage{}, queue.NewLocalNotifier(), nil)
	if _, err := svc.Reindex(ctx, "p1"); err != nil {
		t.Fatalf("reindex: %v", err)
	}

	claimed, err := jobs.ClaimBatch(ctx, len(reportIDs))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(claimed) != len(reportIDs) {
		t.Fatalf("claimed %d, want %d", len(claimed), len(reportIDs))
	}
	for i, want := range reportIDs {
		if claimed[i].SourceID != want {
			t.Errorf("claimed[%d] source = %s, want %s", i, claimed[i].SourceID, want)
		}
	}
	for i := 1; i < len(claimed); i++ {
		if !claimed[i-1].CreatedAt.Before(claimed[i].CreatedAt) {
			t.Errorf("jobs %s and %s share or invert enqueue timestamps", claimed[i-1].SourceID, claimed[i].SourceID)
		}
	}
}

func TestReindexEmptyProjectSucceedsWithZeroJobs(t *testing.T) {
	svc := NewReindexService(
		repository.NewMemoryJobsRepository(),
		repository.NewMemoryEntitiesRepository(),
		&recordingStorage{},
		queue.NewLocalNotifier(),
		nil,
	)

	result, err := svc.Reindex(context.Background(), "vazio")
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if result.JobsCreated != 0 {
		t.Fatalf("jobs created = %d, want 0", result.JobsCreated)
	}
}

func TestReindexSurvivesFragmentWipeFailure(t *testing.T) {
	entities := repository.NewMemoryEntitiesRepository()
	entities.SeedReport("p1", "r1")

	svc := NewReindexService(
		repository.NewMemoryJobsRepository(),
		entities,
		&recordingStorage{fail: true},
		queue.NewLocalNotifier(),
		nil,
	)

	result, err := svc.Reindex(context.Background(), "p1")
	if err != nil {
		t.Fatalf("wipe failure must not abort reindex: %v", err)
	}
	if result.JobsCreated != 1 {
		t.Fatalf("jobs created = %d, want 1", result.JobsCreated)
	}
}

func TestReindexCancelsQueuedJobsFirst(t *testing.T) {
	ctx := context.Background()
	jobs := repository.NewMemoryJobsRepository()
	if err := jobs.EnqueueJobs(ctx, []*domain.IndexingJob{{
		ID:         "stale",
		Type:       domain.JobTypeIndexTask,
		SourceType: domain.SourceTypeTask,
		SourceID:   "t-old",
		ProjectID:  "p1",
		Status:     domain.JobStatusQueued,
		Priority:   domain.PriorityTask,
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
	}}); err != nil {
		t.Fatalf("seed stale job: %v", err)
	}

	entities := repository.NewMemoryEntitiesRepository()
	entities.SeedTask("p1", "t-new")

	svc := NewReindexService(jobs, entities, &recordingStorage{}, queue.NewLocalNotifier(), nil)
	result, err := svc.Reindex(ctx, "p1")
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if result.Cancelled != 1 {
		t.Fatalf("cancelled = %d, want 1", result.Cancelled)
	}

	stale, err := jobs.GetJob(ctx, "stale")
	if err != nil {
		t.Fatalf("get stale: %v", err)
	}
	if stale.Status != domain.JobStatusError || stale.ErrorMessage != repository.CancelMessage {
		t.Fatalf("stale job = %+v, want cancelled with fixed message", stale)
	}
}
