package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/rmalhotra/smsledger/internal/infra/bigquery"
	"github.com/rmalhotra/smsledger/internal/logger"
	"github.com/rmalhotra/smsledger/internal/notionsync"
)

func main() {
	_ = godotenv.Load()

	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	startDateStr := flag.String("start-date", "", "Start date in YYYY-MM-DD format (required)")
	endDateStr := flag.String("end-date", "", "End date in YYYY-MM-DD format (required)")
	projectID := flag.String("project-id", os.Getenv("GCP_PROJECT_ID"), "GCP project of the BigQuery archive (or set GCP_PROJECT_ID env)")
	notionToken := flag.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token (or set NOTION_TOKEN env)")
	notionDBID := flag.String("notion-db-id", os.Getenv("NOTION_DB_ID"), "Notion database ID (or set NOTION_DB_ID env)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *startDateStr == "" {
		log.Fatal().Msg("Error: --start-date is required")
	}
	if *endDateStr == "" {
		log.Fatal().Msg("Error: --end-date is required")
	}
	if *projectID == "" {
		log.Fatal().Msg("Error: --project-id is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	// Parse dates
	startDate, err := time.Parse("2006-01-02", *startDateStr)
	if err != nil {
		log.Fatal().Err(err).Str("start_date", *startDateStr).Msg("Error: invalid start-date format, expected YYYY-MM-DD")
	}

	endDate, err := time.Parse("2006-01-02", *endDateStr)
	if err != nil {
		log.Fatal().Err(err).Str("end_date", *endDateStr).Msg("Error: invalid end-date format, expected YYYY-MM-DD")
	}

	// Validate date range
	if endDate.Before(startDate) {
		log.Fatal().
			Time("start_date", startDate).
			Time("end_date", endDate).
			Msg("Error: end-date must be after start-date")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("start_date", *startDateStr).
		Str("end_date", *endDateStr).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	// Initialize the BigQuery archive reader
	archive, err := bigquery.NewArchive(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery archive")
	}
	defer archive.Close()

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(*notionToken)

	// Sync transactions
	if err := notionsync.SyncTransactions(ctx, archive, notionClient, *notionDBID, startDate, endDate, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}
