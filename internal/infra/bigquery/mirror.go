package bigquery

import (
	"context"
	"time"

	"github.com/rmalhotra/smsledger/internal/domain"
	"github.com/rmalhotra/smsledger/internal/ledger"
	"github.com/rmalhotra/smsledger/internal/logger"
)

const defaultRetryInterval = 5 * time.Second

// Inserter is the slice of the archive the mirror needs; tests substitute a
// fake.
type Inserter interface {
	InsertTransactions(ctx context.Context, txs []domain.Transaction) error
}

// Mirror tails a ledger subscription and journals new or changed rows to the
// archive. Deletes are not mirrored: the archive is an append-only journal
// and the dedupe InsertIDs keep replays harmless.
type Mirror struct {
	archive Inserter
	retry   time.Duration

	seen    map[int64]domain.Transaction
	backlog map[int64]domain.Transaction
}

// NewMirror creates a mirror writing to the given archive.
func NewMirror(archive Inserter) *Mirror {
	return &Mirror{
		archive: archive,
		retry:   defaultRetryInterval,
		seen:    make(map[int64]domain.Transaction),
		backlog: make(map[int64]domain.Transaction),
	}
}

// Run consumes snapshots until the subscription closes or the context ends.
// Rows that fail to archive stay in a backlog retried on a timer, so a
// failure on the last write before quiescence is still flushed eventually.
// A row edited while backlogged is replaced by its newer version.
func (m *Mirror) Run(ctx context.Context, sub *ledger.Subscription) {
	log := logger.FromContext(ctx)
	var retry <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-retry:
			retry = nil
		case snapshot, ok := <-sub.Updates():
			if !ok {
				return
			}
			m.stage(snapshot)
		}

		if len(m.backlog) == 0 {
			continue
		}
		if err := m.flush(ctx); err != nil {
			log.Error().Err(err).Int("rows", len(m.backlog)).Msg("Archive write failed")
			if retry == nil {
				retry = time.After(m.retry)
			}
		}
	}
}

// stage moves rows added or modified since the last snapshot into the
// backlog.
func (m *Mirror) stage(snapshot []domain.Transaction) {
	for _, tx := range snapshot {
		prev, ok := m.seen[tx.Timestamp]
		if ok && equal(prev, tx) {
			continue
		}
		m.seen[tx.Timestamp] = tx
		m.backlog[tx.Timestamp] = tx
	}
}

// flush writes the whole backlog and clears it on success.
func (m *Mirror) flush(ctx context.Context) error {
	batch := make([]domain.Transaction, 0, len(m.backlog))
	for _, tx := range m.backlog {
		batch = append(batch, tx)
	}
	if err := m.archive.InsertTransactions(ctx, batch); err != nil {
		return err
	}
	m.backlog = make(map[int64]domain.Transaction)
	return nil
}

func equal(a, b domain.Transaction) bool {
	return a.Timestamp == b.Timestamp &&
		a.Title == b.Title &&
		a.CounterpartyName == b.CounterpartyName &&
		a.Amount.Equal(b.Amount) &&
		a.Type == b.Type &&
		a.CategoryName == b.CategoryName &&
		a.AccountID == b.AccountID
}
