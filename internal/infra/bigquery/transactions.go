// Package bigquery is the durable archive behind the in-memory ledger. The
// live store serves the UI; this package journals committed transactions to
// a BigQuery table so other processes (reporting, the Notion sync) can read
// them after the service restarts.
package bigquery

import (
	"math/big"
	"strconv"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/rmalhotra/smsledger/internal/domain"
)

const (
	datasetID         = "smsledger"
	transactionsTable = "transactions"

	// numericScale matches BigQuery NUMERIC.
	numericScale = 9
)

// TransactionRow is the archived shape of a transaction.
type TransactionRow struct {
	TimestampMS      int64               `bigquery:"timestamp_ms"`      // REQUIRED, identity key
	TransactionDate  civil.Date          `bigquery:"transaction_date"`  // REQUIRED, partition column
	Title            string              `bigquery:"title"`             // REQUIRED
	CounterpartyName string              `bigquery:"counterparty_name"` // REQUIRED
	Amount           *big.Rat            `bigquery:"amount"`            // REQUIRED NUMERIC
	Type             string              `bigquery:"type"`              // REQUIRED
	CategoryName     string              `bigquery:"category_name"`     // REQUIRED
	AccountID        bigquery.NullString `bigquery:"account_id"`        // NULLABLE
	ArchivedTS       time.Time           `bigquery:"archived_ts"`       // REQUIRED
}

// Save implements bigquery.ValueSaver. The InsertID is the transaction
// identity, so the streaming inserter deduplicates retried rows and the
// archive upsert stays idempotent.
func (r *TransactionRow) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"timestamp_ms":      r.TimestampMS,
		"transaction_date":  r.TransactionDate,
		"title":             r.Title,
		"counterparty_name": r.CounterpartyName,
		"amount":            r.Amount,
		"type":              r.Type,
		"category_name":     r.CategoryName,
		"account_id":        r.AccountID,
		"archived_ts":       r.ArchivedTS,
	}, strconv.FormatInt(r.TimestampMS, 10), nil
}

func rowFromTransaction(tx domain.Transaction, now time.Time) *TransactionRow {
	return &TransactionRow{
		TimestampMS:      tx.Timestamp,
		TransactionDate:  civil.DateOf(tx.Time().UTC()),
		Title:            tx.Title,
		CounterpartyName: tx.CounterpartyName,
		Amount:           tx.Amount.Rat(),
		Type:             string(tx.Type),
		CategoryName:     tx.CategoryName,
		AccountID:        bigquery.NullString{StringVal: tx.AccountID, Valid: tx.AccountID != ""},
		ArchivedTS:       now,
	}
}

func (r *TransactionRow) toTransaction() domain.Transaction {
	amount := decimal.Zero
	if r.Amount != nil {
		amount = decimal.NewFromBigRat(r.Amount, numericScale)
	}
	return domain.Transaction{
		Timestamp:        r.TimestampMS,
		Title:            r.Title,
		CounterpartyName: r.CounterpartyName,
		Amount:           amount,
		Type:             domain.TransactionType(r.Type),
		CategoryName:     r.CategoryName,
		AccountID:        r.AccountID.StringVal,
	}
}
