package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/rmalhotra/smsledger/internal/accounts"
	"github.com/rmalhotra/smsledger/internal/ledger"
	"github.com/rmalhotra/smsledger/internal/logger"
	"github.com/rmalhotra/smsledger/internal/pipeline"
	"github.com/rmalhotra/smsledger/internal/source"
)

func main() {
	_ = godotenv.Load()

	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	exportFile := flag.String("export-file", "", "Path to a local SMS export JSON file")
	gcsBucket := flag.String("gcs-bucket", "", "GCS bucket holding the SMS export")
	gcsObject := flag.String("gcs-object", "", "GCS object name of the SMS export")
	accountsFile := flag.String("accounts-file", "", "Path to the YAML account registry (optional)")
	year := flag.Int("year", 0, "Year to ingest (defaults to the current year)")
	month := flag.Int("month", 0, "Month to ingest, 1-12 (optional, requires --year)")
	day := flag.Int("day", 0, "Day of month to ingest (optional, requires --month)")
	flag.Parse()

	// Validate source selection
	var src source.Source
	switch {
	case *exportFile != "":
		src = source.NewFileSource(*exportFile)
	case *gcsBucket != "" && *gcsObject != "":
		src = source.NewGCSSource(*gcsBucket, *gcsObject)
	default:
		log.Fatal().Msg("Error: --export-file or --gcs-bucket/--gcs-object is required")
	}

	if *month < 0 || *month > 12 {
		log.Fatal().Int("month", *month).Msg("Error: --month must be between 1 and 12")
	}
	if *day < 0 || *day > 31 {
		log.Fatal().Int("day", *day).Msg("Error: --day must be between 1 and 31")
	}
	if *day != 0 && *month == 0 {
		log.Fatal().Msg("Error: --day requires --month")
	}

	window := source.Window{Year: *year}
	if *month != 0 {
		m := time.Month(*month)
		window.Month = &m
	}
	if *day != 0 {
		window.Day = day
	}

	// Account registry: loaded from file when configured, empty otherwise.
	registry := accounts.NewMemoryRegistry()
	if *accountsFile != "" {
		loaded, err := accounts.LoadRegistryFile(*accountsFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", *accountsFile).Msg("Failed to load account registry")
		}
		registry = loaded
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Int("year", window.Year).
		Int("month", *month).
		Int("day", *day).
		Msg("Starting ingestion")

	store := ledger.NewStore()
	svc := pipeline.NewService(src, registry, store)

	stored, err := svc.IngestWindow(ctx, window)
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	fmt.Printf("Ingestion completed successfully: %d transactions stored.\n", stored)
}
