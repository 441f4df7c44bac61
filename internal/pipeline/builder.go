package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/rmalhotra/smsledger/internal/accounts"
	"github.com/rmalhotra/smsledger/internal/domain"
	"github.com/rmalhotra/smsledger/internal/extract"
	"github.com/rmalhotra/smsledger/internal/source"
)

// buildTransaction combines extractor and resolver output into a canonical
// transaction ready for persistence. It never persists itself.
//
// When the account resolved, title, category and counterparty are copied from
// the profile verbatim. Otherwise the direction-aware placeholder policy
// applies: the record stores prompt strings the UI can surface, plus the raw
// account reference (if any) for later re-resolution.
func buildTransaction(msg source.Message, ex extract.Extraction, res accounts.Resolution) domain.Transaction {
	txType := domain.TypeIncome
	if ex.IsExpense {
		txType = domain.TypeExpense
	}

	// An extraction miss is not an error state: absence of a parseable
	// amount stores as zero so the rest of the record is kept.
	amount := decimal.Zero
	if ex.AmountFound {
		amount = ex.Amount
	}

	tx := domain.Transaction{
		Timestamp: msg.Time,
		Amount:    amount,
		Type:      txType,
		AccountID: ex.AccountRef,
	}

	if res.Resolved {
		tx.Title = res.Account.DefaultTitle
		tx.CounterpartyName = res.Account.Name
		tx.CategoryName = res.Account.DefaultCategoryName
	} else {
		tx.Title = domain.PlaceholderTitle
		tx.CounterpartyName = domain.CounterpartyPlaceholder(txType)
		tx.CategoryName = domain.CategoryOthers
	}

	return tx
}
