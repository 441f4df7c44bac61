package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smsledger_ingest_runs_total",
		Help: "Completed ingestion runs by outcome",
	}, []string{"outcome"})

	messagesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smsledger_messages_processed_total",
		Help: "Messages run through the extraction pipeline",
	})

	amountMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smsledger_amount_misses_total",
		Help: "Messages with no recognizable amount pattern",
	})

	accountLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smsledger_account_lookups_total",
		Help: "Account reference resolutions by result",
	}, []string{"result"})
)
