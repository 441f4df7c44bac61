// Package handlers implements the HTTP surface exposed to UI and automation
// collaborators: the transaction persistence API, account registry editing,
// the ingestion trigger, and job status.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmalhotra/smsledger/internal/api/middleware"
	"github.com/rmalhotra/smsledger/internal/domain"
	"github.com/rmalhotra/smsledger/internal/ledger"
)

// TransactionsHandler serves the transaction persistence API.
type TransactionsHandler struct {
	store *ledger.Store
	log   zerolog.Logger
}

// NewTransactionsHandler creates the handler.
func NewTransactionsHandler(store *ledger.Store, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, log: log}
}

// query reflects the optional filters shared by list and stream endpoints:
// either a [start, end] time range (epoch millis, inclusive) or a category.
type query struct {
	start, end *int64
	category   string
}

func parseQuery(r *http.Request) (query, error) {
	var q query
	q.category = r.URL.Query().Get("category")

	for _, key := range []string{"start", "end"} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, fmt.Errorf("invalid %s: %q", key, raw)
		}
		if key == "start" {
			q.start = &v
		} else {
			q.end = &v
		}
	}

	if (q.start == nil) != (q.end == nil) {
		return q, fmt.Errorf("start and end must be provided together")
	}
	if q.start != nil && q.category != "" {
		return q, fmt.Errorf("time range and category filters are mutually exclusive")
	}
	return q, nil
}

// ListTransactions handles GET /api/transactions with optional
// ?start=&end= or ?category= filters.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	var txs []domain.Transaction
	switch {
	case q.start != nil:
		txs = h.store.ListByTimeRange(ctx, *q.start, *q.end)
	case q.category != "":
		txs = h.store.ListByCategory(ctx, q.category)
	default:
		txs = h.store.ListAll(ctx)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// CreateTransaction handles POST /api/transactions. Insert is an upsert by
// timestamp, so re-posting the same record is harmless.
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.store.Upsert(r.Context(), tx); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// UpdateTransaction handles PUT /api/transactions/{timestamp}. Updating a
// missing row is a no-op by store policy.
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, timestamp int64) {
	var tx domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tx.Timestamp = timestamp

	if err := h.store.Update(r.Context(), tx); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{timestamp}.
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, timestamp int64) {
	if err := h.store.Delete(r.Context(), timestamp); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StreamTransactions handles GET /api/transactions/stream: a Server-Sent
// Events feed of the matching set, pushing a fresh snapshot on every
// committed write. This is the live-updating query surface UI collaborators
// consume instead of polling.
func (h *TransactionsHandler) StreamTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.WriteError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	// The stream stays open indefinitely, so the server-wide write deadline
	// must not apply to this connection.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.log.Warn().Err(err).Msg("Failed to clear stream write deadline")
	}

	var sub *ledger.Subscription
	switch {
	case q.start != nil:
		sub = h.store.WatchTimeRange(*q.start, *q.end)
	case q.category != "":
		sub = h.store.WatchCategory(q.category)
	default:
		sub = h.store.WatchAll()
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-sub.Updates():
			if !ok {
				return
			}
			payload, err := json.Marshal(snapshot)
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to encode snapshot")
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
