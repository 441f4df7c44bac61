// Package accounts holds the user-curated registry of known counterparty
// accounts and the resolver that maps extracted account reference tokens to
// registered profiles.
package accounts

import (
	"context"
	"fmt"
	"sync"

	"github.com/rmalhotra/smsledger/internal/domain"
)

// Registry is the read surface the ingestion pipeline consumes. Absence of a
// match is a valid, expected outcome, never an error.
type Registry interface {
	// GetAccountByAccountID returns the registered profile for the given
	// reference token. The boolean reports whether a profile exists.
	GetAccountByAccountID(ctx context.Context, accountID string) (domain.Account, bool, error)

	// ListAccounts returns every registered profile.
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// Editor is the write surface owned by UI collaborators. The pipeline never
// writes; during an ingestion run the registry is effectively read-only.
type Editor interface {
	PutAccount(ctx context.Context, account domain.Account) error
	DeleteAccount(ctx context.Context, accountID string) error
}

// MemoryRegistry is a mutex-guarded in-memory registry. It is safe for
// concurrent use and returns copies, never internal state.
type MemoryRegistry struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{accounts: make(map[string]domain.Account)}
}

// GetAccountByAccountID implements Registry.
func (r *MemoryRegistry) GetAccountByAccountID(ctx context.Context, accountID string) (domain.Account, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[accountID]
	return account, ok, nil
}

// ListAccounts implements Registry.
func (r *MemoryRegistry) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, a)
	}
	return out, nil
}

// PutAccount implements Editor. AccountID is the unique key; a repeated put
// replaces the stored profile.
func (r *MemoryRegistry) PutAccount(ctx context.Context, account domain.Account) error {
	if account.AccountID == "" {
		return fmt.Errorf("PutAccount: account_id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.AccountID] = account
	return nil
}

// DeleteAccount implements Editor. Removing an unknown ID is a no-op.
func (r *MemoryRegistry) DeleteAccount(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, accountID)
	return nil
}

var (
	_ Registry = (*MemoryRegistry)(nil)
	_ Editor   = (*MemoryRegistry)(nil)
)
