package bigquery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmalhotra/smsledger/internal/domain"
	"github.com/rmalhotra/smsledger/internal/ledger"
)

type fakeInserter struct {
	mu      sync.Mutex
	batches [][]domain.Transaction
	fail    int // fail this many calls before succeeding
}

func (f *fakeInserter) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 {
		f.fail--
		return errors.New("transient")
	}
	f.batches = append(f.batches, txs)
	return nil
}

func (f *fakeInserter) rows(t *testing.T, want int) []domain.Transaction {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		f.mu.Lock()
		var all []domain.Transaction
		for _, b := range f.batches {
			all = append(all, b...)
		}
		f.mu.Unlock()
		if len(all) >= want {
			return all
		}
		select {
		case <-deadline:
			t.Fatalf("archive received %d rows, want %d", len(all), want)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func tx(ts int64, title string) domain.Transaction {
	return domain.Transaction{
		Timestamp:        ts,
		Title:            title,
		CounterpartyName: "x",
		Amount:           decimal.New(1, 0),
		Type:             domain.TypeExpense,
		CategoryName:     domain.CategoryOthers,
	}
}

func TestMirror_ArchivesNewAndChangedRows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := ledger.NewStore()
	archive := &fakeInserter{}
	mirror := NewMirror(archive)

	sub := store.WatchAll()
	go mirror.Run(ctx, sub)
	defer sub.Cancel()

	if err := store.Upsert(ctx, tx(1, "a")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	archive.rows(t, 1)

	// Re-upserting an identical row must not archive again, an edit must.
	if err := store.Upsert(ctx, tx(1, "a")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, tx(1, "edited")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	all := archive.rows(t, 2)
	if all[len(all)-1].Title != "edited" {
		t.Errorf("last archived row = %+v, want the edit", all[len(all)-1])
	}
}

func TestMirror_RetriesFailedBatchWithoutFurtherWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := ledger.NewStore()
	archive := &fakeInserter{fail: 1}
	mirror := NewMirror(archive)
	mirror.retry = 20 * time.Millisecond

	sub := store.WatchAll()
	go mirror.Run(ctx, sub)
	defer sub.Cancel()

	// The archive rejects the first attempt. No other ledger write follows,
	// so delivery depends entirely on the backlog retry timer.
	if err := store.Upsert(ctx, tx(1, "a")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	all := archive.rows(t, 1)
	if all[0].Timestamp != 1 {
		t.Errorf("archived row = %+v, want timestamp 1", all[0])
	}
}

func TestTransactionRow_RoundTrip(t *testing.T) {
	orig := domain.Transaction{
		Timestamp:        1736060400000,
		Title:            "Rent",
		CounterpartyName: "Landlord",
		Amount:           decimal.RequireFromString("500.25"),
		Type:             domain.TypeExpense,
		CategoryName:     "Housing",
		AccountID:        "XX1234",
	}

	row := rowFromTransaction(orig, time.Now())
	if !row.AccountID.Valid {
		t.Error("account_id should be valid when set")
	}

	back := row.toTransaction()
	if back.Timestamp != orig.Timestamp || back.Title != orig.Title ||
		back.CounterpartyName != orig.CounterpartyName || !back.Amount.Equal(orig.Amount) ||
		back.Type != orig.Type || back.CategoryName != orig.CategoryName ||
		back.AccountID != orig.AccountID {
		t.Errorf("round trip mismatch: got %+v, want %+v", back, orig)
	}
}

func TestTransactionRow_SaveUsesTimestampAsInsertID(t *testing.T) {
	row := rowFromTransaction(tx(1736060400000, "a"), time.Now())
	_, insertID, err := row.Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if insertID != "1736060400000" {
		t.Errorf("InsertID = %q, want timestamp string", insertID)
	}
}
