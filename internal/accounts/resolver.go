package accounts

import (
	"context"
	"fmt"

	"github.com/rmalhotra/smsledger/internal/domain"
)

// Resolution is the explicit two-variant result of an account lookup. The
// transaction builder branches on Resolved exactly once instead of threading
// nil checks through every field.
type Resolution struct {
	Account  domain.Account
	Resolved bool
}

// Resolver maps extracted account reference tokens to registered profiles.
type Resolver struct {
	registry Registry
}

// NewResolver creates a resolver over the given registry.
func NewResolver(registry Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve performs an exact-key lookup. An empty reference short-circuits to
// Unresolved without touching the registry, and an unknown reference is an
// expected outcome, not an error; the error return covers registry access
// failures only.
func (r *Resolver) Resolve(ctx context.Context, accountRef string) (Resolution, error) {
	if accountRef == "" {
		return Resolution{}, nil
	}

	account, ok, err := r.registry.GetAccountByAccountID(ctx, accountRef)
	if err != nil {
		return Resolution{}, fmt.Errorf("Resolve: lookup %q: %w", accountRef, err)
	}
	if !ok {
		return Resolution{}, nil
	}

	return Resolution{Account: account, Resolved: true}, nil
}
