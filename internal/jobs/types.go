// Package jobs defines the async ingestion job model used by the API's
// non-blocking trigger. The queue abstraction allows replacing the in-memory
// implementation with an external broker without touching handlers.
package jobs

import (
	"context"
	"time"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// IngestJob requests ingestion of one message window. Ingestion is naturally
// idempotent (the store upserts by timestamp), so retrying a failed job is
// always safe.
type IngestJob struct {
	JobID string `json:"job_id"`

	// Window selector; zero Year means the current year.
	Year  int         `json:"year,omitempty"`
	Month *time.Month `json:"month,omitempty"`
	Day   *int        `json:"day,omitempty"`

	Status JobStatus `json:"status"`

	// Stored is the number of transactions the run persisted, set on
	// completion.
	Stored int    `json:"stored"`
	Error  string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Handler processes one ingestion job, returning the stored-transaction
// count. A returned error marks the job failed and, while retries remain,
// re-enqueues it.
type Handler func(ctx context.Context, job *IngestJob) (int, error)

// Publisher enqueues ingestion jobs.
type Publisher interface {
	PublishIngest(ctx context.Context, job *IngestJob) error
	Close() error
}

// Consumer drains the queue with a pool of workers.
type Consumer interface {
	Start(ctx context.Context, handler Handler) error
	Stop(ctx context.Context) error
}

// Store tracks job state for the status endpoints.
type Store interface {
	SaveJob(ctx context.Context, job *IngestJob) error
	GetJob(ctx context.Context, jobID string) (*IngestJob, error)
	ListJobs(ctx context.Context, filter Filter) ([]*IngestJob, error)
}

// Filter narrows ListJobs results.
type Filter struct {
	Status JobStatus
	Limit  int
}
