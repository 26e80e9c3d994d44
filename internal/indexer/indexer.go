package indexer

import (
	"context"
	"log"
)

// IndexRequest identifies the entity a job wants indexed.
type IndexRequest struct {
	JobID      string `json:"job_id"`
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
	ProjectID  string `json:"project_id"`
}

// ContentIndexer extracts and indexes the content behind one entity. The
// implementation must be safe to re-invoke for the same request on retry.
type ContentIndexer interface {
	Index(ctx context.Context, request IndexRequest) error
}

// IndexStorage owns the persisted search-index fragments.
type IndexStorage interface {
	DeleteProjectFragments(ctx context.Context, projectID string) error
}

// NoopIndexer keeps the pipeline runnable when no indexing service is
// configured: every call succeeds after a log line.
type NoopIndexer struct {
	logger *log.Logger
}

func NewNoopIndexer(logger *log.Logger) *NoopIndexer {
	return &NoopIndexer{logger: logger}
}

func (n *NoopIndexer) Index(_ context.Context, request IndexRequest) error {
	if n.logger != nil {
		n.logger.Printf(
			"noop indexer: job_id=%s source=%s/%s project=%s",
			request.JobID,
			request.SourceType,
			request.SourceID,
			request.ProjectID,
		)
	}
	return nil
}

func (n *NoopIndexer) DeleteProjectFragments(_ context.Context, projectID string) error {
	if n.logger != nil {
		n.logger.Printf("noop indexer: delete fragments project=%s", projectID)
	}
	return nil
}
