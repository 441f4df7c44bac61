// Package pipeline drives ingestion end to end: fetch messages for a window,
// extract fields, resolve accounts, build canonical transactions, persist.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rmalhotra/smsledger/internal/accounts"
	"github.com/rmalhotra/smsledger/internal/extract"
	"github.com/rmalhotra/smsledger/internal/ledger"
	"github.com/rmalhotra/smsledger/internal/logger"
	"github.com/rmalhotra/smsledger/internal/source"
)

const defaultWorkers = 4

// Service wires the pipeline stages together.
type Service struct {
	source   source.Source
	resolver *accounts.Resolver
	store    *ledger.Store
	workers  int
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers sets the number of concurrent extraction workers.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewService creates the ingestion orchestrator.
func NewService(src source.Source, registry accounts.Registry, store *ledger.Store, opts ...Option) *Service {
	s := &Service{
		source:   src,
		resolver: accounts.NewResolver(registry),
		store:    store,
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestWindow fetches every message in the window and runs each one through
// extract → resolve → build → upsert. Messages are data-independent, so the
// per-message stages run on a worker pool; store writes are serialized by the
// store itself. One message's extraction or storage failure never aborts the
// rest of the batch. The whole run fails only when the source itself is
// unavailable.
//
// Returns the number of transactions stored. Cancellation is checkpointed
// between messages: on a cancelled context the count of already-stored
// transactions is returned alongside the context error.
func (s *Service) IngestWindow(ctx context.Context, window source.Window) (int, error) {
	log := logger.FromContext(ctx).With().
		Str("run_id", uuid.NewString()).
		Logger()

	window = window.Normalize(time.Now())

	grouped, err := s.source.GroupedMessages(ctx, window)
	if err != nil {
		ingestRuns.WithLabelValues("source_error").Inc()
		return 0, fmt.Errorf("IngestWindow: fetch messages: %w", err)
	}

	var messages []source.Message
	for _, msgs := range grouped {
		messages = append(messages, msgs...)
	}

	log.Info().
		Int("year", window.Year).
		Int("senders", len(grouped)).
		Int("messages", len(messages)).
		Msg("Starting ingestion run")

	feed := make(chan source.Message)
	var stored atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range feed {
				if err := s.processMessage(ctx, msg); err != nil {
					log.Warn().Err(err).
						Str("sender", msg.Sender).
						Int64("time", msg.Time).
						Msg("Message skipped")
					continue
				}
				stored.Add(1)
			}
		}()
	}

dispatch:
	for _, msg := range messages {
		select {
		case <-ctx.Done():
			break dispatch
		case feed <- msg:
		}
	}
	close(feed)
	wg.Wait()

	count := int(stored.Load())

	if err := ctx.Err(); err != nil {
		ingestRuns.WithLabelValues("cancelled").Inc()
		log.Warn().Int("stored", count).Msg("Ingestion run cancelled")
		return count, err
	}

	ingestRuns.WithLabelValues("success").Inc()
	log.Info().Int("stored", count).Msg("Ingestion run completed")
	return count, nil
}

// processMessage runs the per-message stages. Extraction misses degrade to
// defaults; only a store rejection surfaces as an error.
func (s *Service) processMessage(ctx context.Context, msg source.Message) error {
	messagesProcessed.Inc()

	ex := extract.Extract(msg.Body)
	if !ex.AmountFound {
		amountMisses.Inc()
	}

	res, err := s.resolver.Resolve(ctx, ex.AccountRef)
	if err != nil {
		// Registry access failed; fall back to the unresolved defaults so
		// the message still stores, and keep the raw reference for later
		// re-resolution.
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Account resolution failed, applying defaults")
		res = accounts.Resolution{}
	}
	if res.Resolved {
		accountLookups.WithLabelValues("resolved").Inc()
	} else {
		accountLookups.WithLabelValues("unresolved").Inc()
	}

	tx := buildTransaction(msg, ex, res)
	if err := s.store.Upsert(ctx, tx); err != nil {
		return fmt.Errorf("processMessage: %w", err)
	}
	return nil
}
