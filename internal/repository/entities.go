package repository

import (
	"context"
	"sync"
	"time"

	"github.com/labforge/estudo-insights-back/internal/domain"
)

// EntitiesRepository reads project entities owned by the surrounding app
// and writes knowledge items derived by the trend engine.
type EntitiesRepository interface {
	// ListIndexableEntities returns refs for every non-deleted report,
	// task and knowledge item of the project.
	ListIndexableEntities(ctx context.Context, projectID string) ([]domain.EntityRef, error)
	ListMeasurements(ctx context.Context, projectID string) ([]domain.Measurement, error)
	ListConditions(ctx context.Context, experimentIDs []string) ([]domain.ExperimentCondition, error)
	// ReplaceTrendItems soft-deletes every live auto-generated trend item
	// of the project and inserts the new batch. Stores that support it do
	// both inside one transaction.
	ReplaceTrendItems(ctx context.Context, projectID string, items []*domain.KnowledgeItem) error
	ListTrendItems(ctx context.Context, projectID string) ([]*domain.KnowledgeItem, error)
}

// MemoryEntitiesRepository backs tests and local runs without Postgres.
type MemoryEntitiesRepository struct {
	mu           sync.Mutex
	reports      map[string][]string
	tasks        map[string][]string
	items        []*domain.KnowledgeItem
	measurements map[string][]domain.Measurement
	conditions   map[string][]domain.ExperimentCondition
	experiments  map[string]string
}

func NewMemoryEntitiesRepository() *MemoryEntitiesRepository {
	return &MemoryEntitiesRepository{
		reports:      make(map[string][]string),
		tasks:        make(map[string][]string),
		measurements: make(map[string][]domain.Measurement),
		conditions:   make(map[string][]domain.ExperimentCondition),
		experiments:  make(map[string]string),
	}
}

func (r *MemoryEntitiesRepository) SeedReport(projectID, reportID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[projectID] = append(r.reports[projectID], reportID)
}

func (r *MemoryEntitiesRepository) SeedTask(projectID, taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[projectID] = append(r.tasks[projectID], taskID)
}

func (r *MemoryEntitiesRepository) SeedKnowledgeItem(item *domain.KnowledgeItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, cloneItem(item))
}

// SeedMeasurement registers a measurement and ties its experiment to the
// project so ListMeasurements can resolve it.
func (r *MemoryEntitiesRepository) SeedMeasurement(projectID string, m domain.Measurement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.measurements[projectID] = append(r.measurements[projectID], m)
	r.experiments[m.ExperimentID] = projectID
}

func (r *MemoryEntitiesRepository) SeedCondition(c domain.ExperimentCondition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditions[c.ExperimentID] = append(r.conditions[c.ExperimentID], c)
}

func (r *MemoryEntitiesRepository) ListIndexableEntities(_ context.Context, projectID string) ([]domain.EntityRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	refs := make([]domain.EntityRef, 0)
	for _, id := range r.reports[projectID] {
		refs = append(refs, domain.EntityRef{SourceType: domain.SourceTypeReport, SourceID: id})
	}
	for _, id := range r.tasks[projectID] {
		refs = append(refs, domain.EntityRef{SourceType: domain.SourceTypeTask, SourceID: id})
	}
	for _, item := range r.items {
		if item.ProjectID != projectID || item.DeletedAt != nil {
			continue
		}
		refs = append(refs, domain.EntityRef{SourceType: domain.SourceTypeInsight, SourceID: item.ID})
	}
	return refs, nil
}

func (r *MemoryEntitiesRepository) ListMeasurements(_ context.Context, projectID string) ([]domain.Measurement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Measurement(nil), r.measurements[projectID]...), nil
}

func (r *MemoryEntitiesRepository) ListConditions(_ context.Context, experimentIDs []string) ([]domain.ExperimentCondition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conditions := make([]domain.ExperimentCondition, 0)
	for _, id := range experimentIDs {
		conditions = append(conditions, r.conditions[id]...)
	}
	return conditions, nil
}

// ReplaceTrendItems holds the lock across delete and insert so a reader
// never observes the empty in-between state.
func (r *MemoryEntitiesRepository) ReplaceTrendItems(_ context.Context, projectID string, items []*domain.KnowledgeItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, item := range r.items {
		if item.ProjectID != projectID || item.DeletedAt != nil {
			continue
		}
		if !item.AutoValidated || item.ValidationReason != domain.ValidationReasonStatEngine {
			continue
		}
		deleted := now
		item.DeletedAt = &deleted
	}
	for _, item := range items {
		r.items = append(r.items, cloneItem(item))
	}
	return nil
}

func (r *MemoryEntitiesRepository) ListTrendItems(_ context.Context, projectID string) ([]*domain.KnowledgeItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := make([]*domain.KnowledgeItem, 0)
	for _, item := range r.items {
		if item.ProjectID != projectID || item.DeletedAt != nil {
			continue
		}
		if !item.AutoValidated || item.ValidationReason != domain.ValidationReasonStatEngine {
			continue
		}
		live = append(live, cloneItem(item))
	}
	return live, nil
}

func cloneItem(item *domain.KnowledgeItem) *domain.KnowledgeItem {
	if item == nil {
		return nil
	}
	clone := *item
	if item.DeletedAt != nil {
		deleted := *item.DeletedAt
		clone.DeletedAt = &deleted
	}
	return &clone
}
