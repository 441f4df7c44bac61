package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/rmalhotra/smsledger/internal/logger"
)

const (
	// BatchSize defines the number of transactions to process in a single batch
	BatchSize = 100
)

// SyncTransactions syncs transactions from the archive to Notion within the
// specified time range. It queries the archive, batches the rows, and
// creates or updates corresponding Notion pages. The Transaction ID title
// property (the millisecond timestamp) is what existing pages are matched on,
// so re-running the sync over the same range is idempotent.
func SyncTransactions(ctx context.Context, reader TransactionReader, notionClient NotionService, notionDBID string, startDate, endDate time.Time, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Time("start_date", startDate).
		Time("end_date", endDate).
		Bool("dry_run", dryRun).
		Msg("Starting transaction sync to Notion")

	transactions, err := reader.QueryTransactionsByTimeRange(ctx, startDate.UnixMilli(), endDate.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to query transactions: %w", err)
	}

	log.Info().Int("transaction_count", len(transactions)).Msg("Retrieved transactions from archive")

	// Query all existing transactions from Notion
	log.Info().Msg("Querying existing transactions from Notion")
	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	// Map existing transaction IDs in Notion to their page IDs so edited
	// rows update in place instead of duplicating.
	existingPages := make(map[string]string)
	for _, page := range notionPages {
		txID := extractTransactionID(page)
		if txID != "" {
			existingPages[txID] = string(page.ID)
		}
	}

	// Process transactions in batches
	var created, updated int
	for i := 0; i < len(transactions); i += BatchSize {
		end := i + BatchSize
		if end > len(transactions) {
			end = len(transactions)
		}

		batch := transactions[i:end]
		log.Info().
			Int("batch_start", i).
			Int("batch_end", end).
			Int("batch_size", len(batch)).
			Msg("Processing batch")

		for _, tx := range batch {
			txID := fmt.Sprintf("%d", tx.Timestamp)
			existingPageID := existingPages[txID]

			if dryRun {
				if existingPageID != "" {
					log.Info().
						Str("transaction_id", txID).
						Str("existing_page_id", existingPageID).
						Msg("[DRY RUN] Would update existing Notion page")
					updated++
				} else {
					log.Info().
						Str("transaction_id", txID).
						Msg("[DRY RUN] Would create new Notion page")
					created++
				}
				continue
			}

			props := TransactionToNotionProperties(tx)

			if existingPageID != "" {
				_, err := notionClient.UpdatePage(ctx, existingPageID, props)
				if err != nil {
					log.Warn().
						Err(err).
						Str("transaction_id", txID).
						Str("page_id", existingPageID).
						Msg("Failed to update Notion page")
					// Continue processing other transactions
					continue
				}
				log.Info().
					Str("transaction_id", txID).
					Str("page_id", existingPageID).
					Msg("Updated Notion page")
				updated++
			} else {
				page, err := notionClient.CreatePage(ctx, notionDBID, props)
				if err != nil {
					log.Warn().
						Err(err).
						Str("transaction_id", txID).
						Msg("Failed to create Notion page")
					// Continue processing other transactions
					continue
				}
				log.Info().
					Str("transaction_id", txID).
					Str("page_id", string(page.ID)).
					Msg("Created Notion page")
				created++
			}
		}
	}

	log.Info().
		Int("created", created).
		Int("updated", updated).
		Int("total", len(transactions)).
		Msg("Transaction sync completed")

	return nil
}

func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}

		// Only set StartCursor if we have a cursor value
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}

// extractTransactionID extracts the transaction ID from a Notion page's properties.
// Returns empty string if not found.
func extractTransactionID(page notionapi.Page) string {
	if prop, ok := page.Properties["Transaction ID"]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
