package ledger

import (
	"sync"

	"github.com/rmalhotra/smsledger/internal/domain"
)

// Subscription is a cancellable registration against the store. It receives
// the current matching snapshot immediately and a new snapshot after every
// committed write, in commit order. The store never blocks on a slow
// subscriber: snapshots are buffered in a per-subscription queue drained by a
// pump goroutine.
type Subscription struct {
	match  func(domain.Transaction) bool
	ch     chan []domain.Transaction
	cancel func()

	mu      sync.Mutex
	pending [][]domain.Transaction
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Updates is the stream of snapshots. The channel is closed after Cancel.
func (sub *Subscription) Updates() <-chan []domain.Transaction {
	return sub.ch
}

// Cancel detaches the subscription from the store and closes the update
// channel. Safe to call more than once.
func (sub *Subscription) Cancel() {
	sub.once.Do(func() {
		sub.cancel()
		close(sub.done)
	})
}

func (sub *Subscription) enqueue(snapshot []domain.Transaction) {
	sub.mu.Lock()
	sub.pending = append(sub.pending, snapshot)
	sub.mu.Unlock()

	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

// pump delivers queued snapshots to the update channel in order.
func (sub *Subscription) pump() {
	defer close(sub.ch)
	for {
		sub.mu.Lock()
		if len(sub.pending) == 0 {
			sub.mu.Unlock()
			select {
			case <-sub.wake:
				continue
			case <-sub.done:
				return
			}
		}
		next := sub.pending[0]
		sub.pending = sub.pending[1:]
		sub.mu.Unlock()

		select {
		case sub.ch <- next:
		case <-sub.done:
			return
		}
	}
}

// WatchAll subscribes to the full transaction set.
func (s *Store) WatchAll() *Subscription {
	return s.watch(func(domain.Transaction) bool { return true })
}

// WatchTimeRange subscribes to transactions with start <= timestamp <= end.
func (s *Store) WatchTimeRange(start, end int64) *Subscription {
	return s.watch(timeRangeFilter(start, end))
}

// WatchCategory subscribes to transactions tagged with the given category.
func (s *Store) WatchCategory(name string) *Subscription {
	return s.watch(categoryFilter(name))
}

func (s *Store) watch(match func(domain.Transaction) bool) *Subscription {
	sub := &Subscription{
		match: match,
		ch:    make(chan []domain.Transaction),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = sub
	// Seed with the current value so subscribers need not wait for the next
	// write.
	sub.enqueue(s.snapshotLocked(match))
	s.mu.Unlock()

	sub.cancel = func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}

	go sub.pump()
	return sub
}
