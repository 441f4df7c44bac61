package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rmalhotra/smsledger/internal/jobs"
)

// Store is an in-memory job store, safe for concurrent use. Job state is
// lost on restart, which is acceptable for a single-user ingestion trigger;
// re-running a window is idempotent anyway.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.IngestJob
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*jobs.IngestJob)}
}

// SaveJob saves or updates a job. A copy is stored so later mutations by the
// caller do not leak in.
func (s *Store) SaveJob(ctx context.Context, job *jobs.IngestJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	saved := *job
	s.jobs[job.JobID] = &saved
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.IngestJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("GetJob: job not found: %s", jobID)
	}
	out := *job
	return &out, nil
}

// ListJobs returns jobs matching the filter, newest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.Filter) ([]*jobs.IngestJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*jobs.IngestJob
	for _, job := range s.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		j := *job
		out = append(out, &j)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

var _ jobs.Store = (*Store)(nil)
