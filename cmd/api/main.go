package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmalhotra/smsledger/internal/accounts"
	"github.com/rmalhotra/smsledger/internal/api/handlers"
	"github.com/rmalhotra/smsledger/internal/api/middleware"
	infraBQ "github.com/rmalhotra/smsledger/internal/infra/bigquery"
	"github.com/rmalhotra/smsledger/internal/jobs"
	"github.com/rmalhotra/smsledger/internal/jobs/inmemory"
	"github.com/rmalhotra/smsledger/internal/ledger"
	"github.com/rmalhotra/smsledger/internal/logger"
	"github.com/rmalhotra/smsledger/internal/pipeline"
	"github.com/rmalhotra/smsledger/internal/source"
)

func main() {
	// Load .env for local development; missing file is fine.
	_ = godotenv.Load()

	// Parse command-line flags
	var (
		port         = flag.String("port", envOr("PORT", "8080"), "HTTP server port")
		accountsFile = flag.String("accounts-file", os.Getenv("ACCOUNTS_FILE"), "Path to the YAML account registry (or set ACCOUNTS_FILE env)")
		exportFile   = flag.String("export-file", os.Getenv("SMS_EXPORT_FILE"), "Path to a local SMS export JSON file (or set SMS_EXPORT_FILE env)")
		gcsBucket    = flag.String("gcs-bucket", os.Getenv("GCS_BUCKET"), "GCS bucket holding the SMS export (or set GCS_BUCKET env)")
		gcsObject    = flag.String("gcs-object", os.Getenv("GCS_OBJECT"), "GCS object name of the SMS export (or set GCS_OBJECT env)")
		projectID    = flag.String("project-id", os.Getenv("GCP_PROJECT_ID"), "GCP project for the BigQuery archive; empty disables archiving")
		workers      = flag.Int("workers", 4, "Number of ingestion workers")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	// Account registry: loaded from file when configured, empty otherwise.
	var registry *accounts.MemoryRegistry
	if *accountsFile != "" {
		loaded, err := accounts.LoadRegistryFile(*accountsFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", *accountsFile).Msg("Failed to load account registry")
		}
		registry = loaded
	} else {
		log.Warn().Msg("No account registry configured - all account refs will resolve to defaults")
		registry = accounts.NewMemoryRegistry()
	}

	// Message source: local export file or a GCS object.
	var src source.Source
	switch {
	case *exportFile != "":
		src = source.NewFileSource(*exportFile)
	case *gcsBucket != "" && *gcsObject != "":
		src = source.NewGCSSource(*gcsBucket, *gcsObject)
	default:
		log.Fatal().Msg("No message source configured - set --export-file or --gcs-bucket/--gcs-object")
	}

	store := ledger.NewStore()
	svc := pipeline.NewService(src, registry, store, pipeline.WithWorkers(*workers))

	// Optional BigQuery archive: mirror committed ledger rows to a durable
	// journal in the background.
	mirrorCtx, cancelMirror := context.WithCancel(ctx)
	defer cancelMirror()
	if *projectID != "" {
		archive, err := infraBQ.NewArchive(ctx, *projectID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery archive")
		}
		defer archive.Close()

		sub := store.WatchAll()
		defer sub.Cancel()
		go infraBQ.NewMirror(archive).Run(mirrorCtx, sub)
		log.Info().Str("project_id", *projectID).Msg("BigQuery archive mirror enabled")
	} else {
		log.Warn().Msg("No GCP project configured - transactions will not be archived")
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 2, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Job handler runs one ingestion window per job.
	jobHandler := func(ctx context.Context, job *jobs.IngestJob) (int, error) {
		window := source.Window{Year: job.Year, Month: job.Month, Day: job.Day}

		log.Info().
			Str("job_id", job.JobID).
			Int("year", window.Year).
			Msg("Processing ingest job")

		stored, err := svc.IngestWindow(ctx, window)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", job.JobID).
				Msg("Ingestion run failed")
			return stored, err
		}

		log.Info().
			Str("job_id", job.JobID).
			Int("stored", stored).
			Msg("Ingestion run completed")
		return stored, nil
	}

	// Start job consumer in background
	go func() {
		log.Info().Msg("Starting job workers")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job workers stopped with error")
		}
	}()

	// Initialize handlers
	transactionsHandler := handlers.NewTransactionsHandler(store, log)
	accountsHandler := handlers.NewAccountsHandler(registry, log)
	ingestHandler := handlers.NewIngestHandler(svc, jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			transactionsHandler.CreateTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/stream", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.StreamTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		// Extract transaction timestamp from path
		raw := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		timestamp, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction timestamp is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			transactionsHandler.UpdateTransaction(w, r, timestamp)
		case http.MethodDelete:
			transactionsHandler.DeleteTransaction(w, r, timestamp)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Accounts endpoints
	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			accountsHandler.ListAccounts(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/accounts/", func(w http.ResponseWriter, r *http.Request) {
		// Extract account ID from path
		accountID := strings.TrimPrefix(r.URL.Path, "/api/accounts/")
		if accountID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Account ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			accountsHandler.PutAccount(w, r, accountID)
		case http.MethodDelete:
			accountsHandler.DeleteAccount(w, r, accountID)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Categories endpoints
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			accountsHandler.ListCategories(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Ingest endpoint
	mux.HandleFunc("/api/ingest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ingestHandler.Ingest(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Extract job ID from path
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.Metrics(
					middleware.CORS(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()
	cancelMirror()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
