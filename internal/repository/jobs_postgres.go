package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labforge/estudo-insights-back/internal/domain"
)

type PostgresJobsRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresJobsRepository(pool *pgxpool.Pool) *PostgresJobsRepository {
	return &PostgresJobsRepository{pool: pool}
}

// NewPostgresPool builds the shared connection pool used by the Postgres
// repositories.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return pool, nil
}

// EnqueueJobs inserts the whole batch inside one transaction: either every
// job lands in the queue or none does.
func (r *PostgresJobsRepository) EnqueueJobs(ctx context.Context, jobs []*domain.IndexingJob) error {
	if len(jobs) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, job := range jobs {
			batch.Queue(`
				INSERT INTO indexing_jobs (
					id,
					job_type,
					source_type,
					source_id,
					project_id,
					status,
					priority,
					retry_count,
					error_message,
					created_at
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			`,
				job.ID,
				string(job.Type),
				string(job.SourceType),
				job.SourceID,
				job.ProjectID,
				string(domain.JobStatusQueued),
				job.Priority,
				0,
				"",
				job.CreatedAt,
			)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range jobs {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("insert indexing job: %w", err)
			}
		}
		return nil
	})
}

// ClaimBatch flips queued rows to running in a single conditional update.
// SKIP LOCKED keeps concurrent claimers from ever selecting the same row.
func (r *PostgresJobsRepository) ClaimBatch(ctx context.Context, limit int) ([]*domain.IndexingJob, error) {
	if limit <= 0 {
		return []*domain.IndexingJob{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		UPDATE indexing_jobs
		SET status = 'running',
			started_at = now()
		WHERE id IN (
			SELECT id
			FROM indexing_jobs
			WHERE status = 'queued'
			ORDER BY priority DESC, created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, job_type, source_type, source_id, project_id, status, priority, retry_count, error_message, created_at, started_at, finished_at
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}
	defer rows.Close()

	claimed := make([]*domain.IndexingJob, 0, limit)
	for rows.Next() {
		job, scanErr := scanIndexingJob(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		claimed = append(claimed, job)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate claimed jobs: %w", rows.Err())
	}

	// RETURNING does not guarantee the selection order.
	sort.Slice(claimed, func(i, j int) bool {
		if claimed[i].Priority != claimed[j].Priority {
			return claimed[i].Priority > claimed[j].Priority
		}
		return claimed[i].CreatedAt.Before(claimed[j].CreatedAt)
	})
	return claimed, nil
}

func (r *PostgresJobsRepository) MarkDone(ctx context.Context, jobID string) error {
	command, err := r.pool.Exec(ctx, `
		UPDATE indexing_jobs
		SET status = 'done',
			finished_at = now()
		WHERE id = $1
	`, jobID)
	if err != nil {
		return fmt.Errorf("mark job done: %w", err)
	}
	if command.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed bumps the retry counter and either requeues the job or, once
// the counter reaches the limit, parks it as terminal error. One statement
// so the status decision and the increment cannot interleave.
func (r *PostgresJobsRepository) MarkFailed(ctx context.Context, jobID string, errorMessage string) error {
	command, err := r.pool.Exec(ctx, `
		UPDATE indexing_jobs
		SET retry_count = retry_count + 1,
			error_message = $2,
			status = CASE WHEN retry_count + 1 >= $3 THEN 'error' ELSE 'queued' END,
			finished_at = CASE WHEN retry_count + 1 >= $3 THEN now() ELSE NULL END
		WHERE id = $1
	`, jobID, errorMessage, domain.MaxJobRetries)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	if command.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelQueued only matches rows still queued at update time; a job that a
// worker claimed concurrently is left to finish or fail on its own.
func (r *PostgresJobsRepository) CancelQueued(ctx context.Context, projectID string) (int, error) {
	command, err := r.pool.Exec(ctx, `
		UPDATE indexing_jobs
		SET status = 'error',
			error_message = $2,
			finished_at = now()
		WHERE project_id = $1
		  AND status = 'queued'
	`, projectID, CancelMessage)
	if err != nil {
		return 0, fmt.Errorf("cancel queued jobs: %w", err)
	}
	return int(command.RowsAffected()), nil
}

func (r *PostgresJobsRepository) GetJob(ctx context.Context, jobID string) (*domain.IndexingJob, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, job_type, source_type, source_id, project_id, status, priority, retry_count, error_message, created_at, started_at, finished_at
		FROM indexing_jobs
		WHERE id = $1
	`, jobID)

	job, err := scanIndexingJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query job: %w", err)
	}
	return job, nil
}

func (r *PostgresJobsRepository) CountByStatus(ctx context.Context, projectID string) (domain.JobStatusCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM indexing_jobs
		WHERE project_id = $1
		GROUP BY status
	`, projectID)
	if err != nil {
		return domain.JobStatusCounts{}, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	counts := domain.JobStatusCounts{}
	for rows.Next() {
		var (
			status string
			total  int
		)
		if err := rows.Scan(&status, &total); err != nil {
			return domain.JobStatusCounts{}, fmt.Errorf("scan job count: %w", err)
		}
		switch domain.JobStatus(status) {
		case domain.JobStatusQueued:
			counts.Queued = total
		case domain.JobStatusRunning:
			counts.Running = total
		case domain.JobStatusDone:
			counts.Done = total
		case domain.JobStatusError:
			counts.Error = total
		}
	}
	if rows.Err() != nil {
		return domain.JobStatusCounts{}, fmt.Errorf("iterate job counts: %w", rows.Err())
	}
	return counts, nil
}

func scanIndexingJob(row pgx.Row) (*domain.IndexingJob, error) {
	var (
		job        domain.IndexingJob
		jobType    string
		sourceType string
		status     string
	)
	err := row.Scan(
		&job.ID,
		&jobType,
		&sourceType,
		&job.SourceID,
		&job.ProjectID,
		&status,
		&job.Priority,
		&job.RetryCount,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.StartedAt,
		&job.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Type = domain.JobType(jobType)
	job.SourceType = domain.SourceType(sourceType)
	job.Status = domain.JobStatus(status)
	return &job, nil
}
