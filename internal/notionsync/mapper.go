package notionsync

import (
	"strconv"

	"github.com/jomei/notionapi"

	"github.com/rmalhotra/smsledger/internal/domain"
)

// TransactionToNotionProperties converts a ledger transaction to Notion properties.
// Maps fields according to the Notion transaction database schema:
// Transaction ID, Title, Counterparty, Date, Amount, Type, Category, Account.
// The Transaction ID title property carries the millisecond timestamp and is
// what the sync matches on for idempotency.
func TransactionToNotionProperties(tx domain.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		"Transaction ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: strconv.FormatInt(tx.Timestamp, 10),
					},
				},
			},
		},
		"Title": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.Title,
					},
				},
			},
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(tx.Time().UTC())
					return &d
				}(),
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: tx.Amount.InexactFloat64(),
		},
		"Type": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(tx.Type),
			},
		},
	}

	// Counterparty
	if tx.CounterpartyName != "" {
		props["Counterparty"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.CounterpartyName,
					},
				},
			},
		}
	}

	// Category
	if tx.CategoryName != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.CategoryName,
			},
		}
	}

	// Account
	if tx.AccountID != "" {
		props["Account"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.AccountID,
					},
				},
			},
		}
	}

	return props
}
