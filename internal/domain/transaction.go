package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies the direction of a transaction.
type TransactionType string

const (
	// TypeExpense marks money leaving the user (debit vocabulary).
	TypeExpense TransactionType = "Expense"
	// TypeIncome marks money reaching the user (credit vocabulary).
	TypeIncome TransactionType = "Income"
)

// Placeholder values applied when a message yields no matching account.
// They are visible in the stored data itself and double as prompts for the
// UI layer to ask the user to fill in the blanks.
const (
	PlaceholderTitle       = "What was the payment for?"
	PlaceholderExpenseName = "To Whom?"
	PlaceholderIncomeName  = "From Whom?"
)

// Transaction is one categorized financial record recovered from a
// notification message. Timestamp (epoch milliseconds of the originating
// message) is the identity key: the store never holds two rows with the same
// timestamp, and re-ingesting the same message replaces rather than
// duplicates.
type Transaction struct {
	Timestamp        int64           `json:"timestamp"`
	Title            string          `json:"title"`
	CounterpartyName string          `json:"counterparty_name"`
	Amount           decimal.Decimal `json:"amount"`
	Type             TransactionType `json:"type"`
	CategoryName     string          `json:"category_name"`

	// AccountID holds the raw account reference token extracted from the
	// message ("XX1234"), kept even when it matched no registered account so
	// the record can be re-resolved after the user registers the account.
	AccountID string `json:"account_id,omitempty"`
}

// Time returns the transaction identity as a time.Time.
func (t Transaction) Time() time.Time {
	return time.UnixMilli(t.Timestamp)
}

// CounterpartyPlaceholder returns the direction-appropriate prompt used when
// no account matched.
func CounterpartyPlaceholder(tt TransactionType) string {
	if tt == TypeExpense {
		return PlaceholderExpenseName
	}
	return PlaceholderIncomeName
}
