package bigquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/rmalhotra/smsledger/internal/domain"
)

// ErrIntegrity marks a persisted row that no longer matches the expected
// schema. The archive surfaces it to the caller instead of attempting a
// silent repair.
var ErrIntegrity = errors.New("malformed archived transaction")

const (
	insertAttempts = 3
	insertBackoff  = 2 * time.Second
)

// Archive journals transactions to the BigQuery table and reads them back
// for downstream consumers.
type Archive struct {
	client *bigquery.Client
}

// NewArchive creates an archive for the given project.
func NewArchive(ctx context.Context, projectID string) (*Archive, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewArchive: bigquery client: %w", err)
	}
	return &Archive{client: client}, nil
}

// Close releases the underlying client.
func (a *Archive) Close() error {
	return a.client.Close()
}

// InsertTransactions streams a batch into the archive table. Each row carries
// its timestamp as InsertID, so retries cannot duplicate rows; transient
// failures are retried here for the same reason.
func (a *Archive) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, rowFromTransaction(tx, now))
	}

	inserter := a.client.Dataset(datasetID).Table(transactionsTable).Inserter()

	var err error
	for attempt := 1; attempt <= insertAttempts; attempt++ {
		if err = inserter.Put(ctx, rows); err == nil {
			return nil
		}
		if attempt < insertAttempts {
			select {
			case <-time.After(time.Duration(attempt) * insertBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("InsertTransactions: inserting %d rows: %w", len(rows), err)
}

// QueryTransactionsByTimeRange returns archived transactions with
// start <= timestamp_ms <= end, ordered by timestamp. A row that fails to
// scan surfaces as a data-integrity error.
func (a *Archive) QueryTransactionsByTimeRange(ctx context.Context, start, end int64) ([]domain.Transaction, error) {
	q := a.client.Query(fmt.Sprintf(`
		SELECT
			timestamp_ms,
			transaction_date,
			title,
			counterparty_name,
			amount,
			type,
			category_name,
			account_id,
			archived_ts
		FROM %s.%s
		WHERE timestamp_ms >= @start
		  AND timestamp_ms <= @end
		ORDER BY timestamp_ms
	`, datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start", Value: start},
		{Name: "end", Value: end},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByTimeRange: query read: %w", err)
	}

	var out []domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByTimeRange: %w: %v", ErrIntegrity, err)
		}
		out = append(out, row.toTransaction())
	}

	return out, nil
}
