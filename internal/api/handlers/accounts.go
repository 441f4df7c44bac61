package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rmalhotra/smsledger/internal/accounts"
	"github.com/rmalhotra/smsledger/internal/api/middleware"
	"github.com/rmalhotra/smsledger/internal/domain"
)

// AccountRegistry is the combined read/write surface the accounts endpoints
// need.
type AccountRegistry interface {
	accounts.Registry
	accounts.Editor
}

// AccountsHandler serves the user-curated account registry. These endpoints
// belong to the UI collaborator; the ingestion pipeline only ever reads.
type AccountsHandler struct {
	registry AccountRegistry
	log      zerolog.Logger
}

// NewAccountsHandler creates the handler.
func NewAccountsHandler(registry AccountRegistry, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{registry: registry, log: log}
}

// ListAccounts handles GET /api/accounts.
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	all, err := h.registry.ListAccounts(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": all,
		"count":    len(all),
	})
}

// PutAccount handles PUT /api/accounts/{accountId}: create or replace a
// profile.
func (h *AccountsHandler) PutAccount(w http.ResponseWriter, r *http.Request, accountID string) {
	var account domain.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	account.AccountID = accountID

	if err := h.registry.PutAccount(r.Context(), account); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, account)
}

// DeleteAccount handles DELETE /api/accounts/{accountId}.
func (h *AccountsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request, accountID string) {
	if err := h.registry.DeleteAccount(r.Context(), accountID); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /api/categories: the built-in category tags the
// UI offers for account profiles.
func (h *AccountsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": domain.DefaultCategories,
	})
}
