package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmalhotra/smsledger/internal/api/middleware"
	"github.com/rmalhotra/smsledger/internal/jobs"
	"github.com/rmalhotra/smsledger/internal/pipeline"
	"github.com/rmalhotra/smsledger/internal/source"
)

// IngestHandler exposes the ingestion trigger. The synchronous form runs the
// window to completion and reports the stored count; the async form enqueues
// a job and returns its ID for polling via the jobs endpoints.
type IngestHandler struct {
	svc       *pipeline.Service
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewIngestHandler creates the handler.
func NewIngestHandler(svc *pipeline.Service, publisher jobs.Publisher, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{svc: svc, publisher: publisher, log: log}
}

type ingestRequest struct {
	Year  int  `json:"year,omitempty"`
	Month *int `json:"month,omitempty"`
	Day   *int `json:"day,omitempty"`
	Async bool `json:"async,omitempty"`
}

func (req ingestRequest) window() (source.Window, error) {
	w := source.Window{Year: req.Year, Day: req.Day}
	if req.Month != nil {
		if *req.Month < 1 || *req.Month > 12 {
			return w, fmt.Errorf("month must be 1-12, got %d", *req.Month)
		}
		m := time.Month(*req.Month)
		w.Month = &m
	}
	if req.Day != nil {
		if *req.Day < 1 || *req.Day > 31 {
			return w, fmt.Errorf("day must be 1-31, got %d", *req.Day)
		}
		if req.Month == nil {
			return w, fmt.Errorf("day requires month")
		}
	}
	return w, nil
}

// Ingest handles POST /api/ingest. An empty body ingests the current year.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	window, err := req.window()
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Async {
		job := &jobs.IngestJob{Year: window.Year, Month: window.Month, Day: window.Day}
		if err := h.publisher.PublishIngest(r.Context(), job); err != nil {
			h.log.Error().Err(err).Msg("Failed to enqueue ingestion job")
			middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue ingestion job")
			return
		}
		middleware.WriteJSON(w, http.StatusAccepted, map[string]string{"job_id": job.JobID})
		return
	}

	stored, err := h.svc.IngestWindow(r.Context(), window)
	if err != nil {
		h.log.Error().Err(err).Msg("Ingestion run failed")
		status := http.StatusInternalServerError
		if errors.Is(err, source.ErrUnavailable) {
			status = http.StatusBadGateway
		}
		middleware.WriteError(w, status, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]int{"stored": stored})
}
