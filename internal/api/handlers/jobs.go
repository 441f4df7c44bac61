package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rmalhotra/smsledger/internal/api/middleware"
	"github.com/rmalhotra/smsledger/internal/jobs"
)

// JobsHandler serves ingestion job status.
type JobsHandler struct {
	store jobs.Store
	log   zerolog.Logger
}

// NewJobsHandler creates the handler.
func NewJobsHandler(store jobs.Store, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// ListJobs handles GET /api/jobs with an optional ?status= filter.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.Filter{Status: jobs.JobStatus(r.URL.Query().Get("status"))}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJob handles GET /api/jobs/{jobId}.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}
