package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labforge/estudo-insights-back/internal/domain"
)

type PostgresEntitiesRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresEntitiesRepository(pool *pgxpool.Pool) *PostgresEntitiesRepository {
	return &PostgresEntitiesRepository{pool: pool}
}

func (r *PostgresEntitiesRepository) ListIndexableEntities(ctx context.Context, projectID string) ([]domain.EntityRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT 'report' AS source_type, id FROM reports
		WHERE project_id = $1 AND deleted_at IS NULL
		UNION ALL
		SELECT 'task', id FROM tasks
		WHERE project_id = $1 AND deleted_at IS NULL
		UNION ALL
		SELECT 'insight', id FROM knowledge_items
		WHERE project_id = $1 AND deleted_at IS NULL
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list indexable entities: %w", err)
	}
	defer rows.Close()

	refs := make([]domain.EntityRef, 0)
	for rows.Next() {
		var (
			sourceType string
			sourceID   string
		)
		if err := rows.Scan(&sourceType, &sourceID); err != nil {
			return nil, fmt.Errorf("scan entity ref: %w", err)
		}
		refs = append(refs, domain.EntityRef{
			SourceType: domain.SourceType(sourceType),
			SourceID:   sourceID,
		})
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate entity refs: %w", rows.Err())
	}
	return refs, nil
}

func (r *PostgresEntitiesRepository) ListMeasurements(ctx context.Context, projectID string) ([]domain.Measurement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.experiment_id, m.metric, m.raw_name, m.value, m.unit, m.method, m.confidence
		FROM measurements m
		JOIN experiments e ON e.id = m.experiment_id
		WHERE e.project_id = $1
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer rows.Close()

	measurements := make([]domain.Measurement, 0)
	for rows.Next() {
		var m domain.Measurement
		if err := rows.Scan(&m.ExperimentID, &m.Metric, &m.RawName, &m.Value, &m.Unit, &m.Method, &m.Confidence); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		measurements = append(measurements, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate measurements: %w", rows.Err())
	}
	return measurements, nil
}

func (r *PostgresEntitiesRepository) ListConditions(ctx context.Context, experimentIDs []string) ([]domain.ExperimentCondition, error) {
	if len(experimentIDs) == 0 {
		return []domain.ExperimentCondition{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT experiment_id, condition_key, condition_value
		FROM experiment_conditions
		WHERE experiment_id = ANY($1)
	`, experimentIDs)
	if err != nil {
		return nil, fmt.Errorf("list conditions: %w", err)
	}
	defer rows.Close()

	conditions := make([]domain.ExperimentCondition, 0)
	for rows.Next() {
		var c domain.ExperimentCondition
		if err := rows.Scan(&c.ExperimentID, &c.Key, &c.Value); err != nil {
			return nil, fmt.Errorf("scan condition: %w", err)
		}
		conditions = append(conditions, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate conditions: %w", rows.Err())
	}
	return conditions, nil
}

// ReplaceTrendItems runs the soft-delete and the inserts in one
// transaction, so consumers either see the old batch or the new one.
func (r *PostgresEntitiesRepository) ReplaceTrendItems(ctx context.Context, projectID string, items []*domain.KnowledgeItem) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE knowledge_items
			SET deleted_at = now()
			WHERE project_id = $1
			  AND deleted_at IS NULL
			  AND auto_validated = TRUE
			  AND validation_reason = $2
		`, projectID, domain.ValidationReasonStatEngine)
		if err != nil {
			return fmt.Errorf("soft delete trend items: %w", err)
		}

		batch := &pgx.Batch{}
		for _, item := range items {
			batch.Queue(`
				INSERT INTO knowledge_items (
					id,
					project_id,
					category,
					title,
					content,
					evidence,
					confidence,
					auto_validated,
					validation_reason,
					created_at
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			`,
				item.ID,
				item.ProjectID,
				item.Category,
				item.Title,
				item.Content,
				item.Evidence,
				item.Confidence,
				item.AutoValidated,
				item.ValidationReason,
				item.CreatedAt,
			)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range items {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("insert trend item: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresEntitiesRepository) ListTrendItems(ctx context.Context, projectID string) ([]*domain.KnowledgeItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, category, title, content, evidence, confidence, auto_validated, validation_reason, created_at, deleted_at
		FROM knowledge_items
		WHERE project_id = $1
		  AND deleted_at IS NULL
		  AND auto_validated = TRUE
		  AND validation_reason = $2
		ORDER BY created_at DESC, title ASC
	`, projectID, domain.ValidationReasonStatEngine)
	if err != nil {
		return nil, fmt.Errorf("list trend items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.KnowledgeItem, 0)
	for rows.Next() {
		var item domain.KnowledgeItem
		if err := rows.Scan(
			&item.ID,
			&item.ProjectID,
			&item.Category,
			&item.Title,
			&item.Content,
			&item.Evidence,
			&item.Confidence,
			&item.AutoValidated,
			&item.ValidationReason,
			&item.CreatedAt,
			&item.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan trend item: %w", err)
		}
		items = append(items, &item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate trend items: %w", rows.Err())
	}
	return items, nil
}
