package domain

import "time"

type JobType string

const (
	JobTypeIndexReport  JobType = "index_report"
	JobTypeIndexTask    JobType = "index_task"
	JobTypeIndexInsight JobType = "index_insight"
)

type SourceType string

const (
	SourceTypeReport  SourceType = "report"
	SourceTypeTask    SourceType = "task"
	SourceTypeInsight SourceType = "insight"
)

type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusError   JobStatus = "error"
)

// MaxJobRetries is the total number of attempts before a job becomes terminal.
const MaxJobRetries = 3

// Priority weights used when rebuilding a project index. Ties are broken
// oldest-first by the claim query.
const (
	PriorityReport  = 10
	PriorityInsight = 9
	PriorityTask    = 8
)

// IndexingJob is a unit of search-indexing work tied to one source entity.
// It carries both job type and source type explicitly; neither one is
// derived from the other by string parsing.
type IndexingJob struct {
	ID           string
	Type         JobType
	SourceType   SourceType
	SourceID     string
	ProjectID    string
	Status       JobStatus
	Priority     int
	RetryCount   int
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// JobTypeFor maps a source entity type to the job type that indexes it.
func JobTypeFor(source SourceType) JobType {
	switch source {
	case SourceTypeReport:
		return JobTypeIndexReport
	case SourceTypeTask:
		return JobTypeIndexTask
	case SourceTypeInsight:
		return JobTypeIndexInsight
	default:
		return ""
	}
}

// PriorityFor maps a source entity type to its reindex priority weight.
func PriorityFor(source SourceType) int {
	switch source {
	case SourceTypeReport:
		return PriorityReport
	case SourceTypeInsight:
		return PriorityInsight
	case SourceTypeTask:
		return PriorityTask
	default:
		return 0
	}
}

// EntityRef identifies one indexable entity of a project.
type EntityRef struct {
	SourceType SourceType
	SourceID   string
}

// JobStatusCounts summarizes a project's job table for ops visibility.
type JobStatusCounts struct {
	Queued  int
	Running int
	Done    int
	Error   int
}
