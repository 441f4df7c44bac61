// Package ledger is the transaction store: an in-memory, mutex-guarded table
// keyed by timestamp with idempotent upserts and live-updating query
// subscriptions for UI collaborators. Durable archival is layered on top via
// the watch API (see internal/infra/bigquery).
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rmalhotra/smsledger/internal/domain"
)

// Store holds transactions keyed by their epoch-millisecond timestamp. All
// writes are serialized by the store mutex, so no two concurrent upserts for
// the same timestamp can interleave partially. Reads and snapshots return
// copies, never internal state.
type Store struct {
	mu        sync.RWMutex
	rows      map[int64]domain.Transaction
	subs      map[uint64]*Subscription
	nextSubID uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		rows: make(map[int64]domain.Transaction),
		subs: make(map[uint64]*Subscription),
	}
}

func validate(tx domain.Transaction) error {
	if tx.Timestamp == 0 {
		return fmt.Errorf("transaction has no timestamp")
	}
	if tx.Amount.IsNegative() {
		return fmt.Errorf("transaction %d has negative amount %s", tx.Timestamp, tx.Amount)
	}
	return nil
}

// Upsert inserts the transaction, replacing any stored row with the same
// timestamp. Re-ingesting an overlapping message window is therefore
// idempotent: the second pass rewrites identical rows instead of duplicating
// them.
func (s *Store) Upsert(ctx context.Context, tx domain.Transaction) error {
	if err := validate(tx); err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[tx.Timestamp] = tx
	s.notifyLocked()
	return nil
}

// Update replaces the stored row with the same timestamp. A missing row is a
// silent no-op: for this use case availability beats strict not-found
// reporting, since the UI may race a delete with an edit.
func (s *Store) Update(ctx context.Context, tx domain.Transaction) error {
	if err := validate(tx); err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[tx.Timestamp]; !exists {
		return nil
	}
	s.rows[tx.Timestamp] = tx
	s.notifyLocked()
	return nil
}

// Delete removes the row with the given timestamp. A missing row is a silent
// no-op.
func (s *Store) Delete(ctx context.Context, timestamp int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[timestamp]; !exists {
		return nil
	}
	delete(s.rows, timestamp)
	s.notifyLocked()
	return nil
}

// Count returns the number of stored transactions.
func (s *Store) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// ListAll returns every transaction ordered by timestamp.
func (s *Store) ListAll(ctx context.Context) []domain.Transaction {
	return s.list(func(domain.Transaction) bool { return true })
}

// ListByTimeRange returns transactions with start <= timestamp <= end,
// ordered by timestamp. Both bounds are epoch milliseconds, inclusive.
func (s *Store) ListByTimeRange(ctx context.Context, start, end int64) []domain.Transaction {
	return s.list(timeRangeFilter(start, end))
}

// ListByCategory returns transactions tagged with the given category name,
// ordered by timestamp.
func (s *Store) ListByCategory(ctx context.Context, name string) []domain.Transaction {
	return s.list(categoryFilter(name))
}

func (s *Store) list(match func(domain.Transaction) bool) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(match)
}

// snapshotLocked builds an ordered copy of the matching set. Callers must
// hold at least the read lock.
func (s *Store) snapshotLocked(match func(domain.Transaction) bool) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(s.rows))
	for _, tx := range s.rows {
		if match(tx) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// notifyLocked queues a fresh snapshot for every live subscription. Snapshots
// are queued in commit order while the write lock is held, so each subscriber
// observes every write in the order it committed.
func (s *Store) notifyLocked() {
	for _, sub := range s.subs {
		sub.enqueue(s.snapshotLocked(sub.match))
	}
}

func timeRangeFilter(start, end int64) func(domain.Transaction) bool {
	return func(tx domain.Transaction) bool {
		return tx.Timestamp >= start && tx.Timestamp <= end
	}
}

func categoryFilter(name string) func(domain.Transaction) bool {
	return func(tx domain.Transaction) bool {
		return tx.CategoryName == name
	}
}
