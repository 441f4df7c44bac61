package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rmalhotra/smsledger/internal/accounts"
	"github.com/rmalhotra/smsledger/internal/domain"
	"github.com/rmalhotra/smsledger/internal/extract"
	"github.com/rmalhotra/smsledger/internal/source"
)

func TestBuildTransaction_DirectionAwareDefaults(t *testing.T) {
	msg := source.Message{Sender: "X", Body: "irrelevant", Time: 99}

	expense := buildTransaction(msg, extract.Extraction{IsExpense: true}, accounts.Resolution{})
	if expense.CounterpartyName != domain.PlaceholderExpenseName {
		t.Errorf("expense counterparty = %q, want %q", expense.CounterpartyName, domain.PlaceholderExpenseName)
	}

	income := buildTransaction(msg, extract.Extraction{IsExpense: false}, accounts.Resolution{})
	if income.CounterpartyName != domain.PlaceholderIncomeName {
		t.Errorf("income counterparty = %q, want %q", income.CounterpartyName, domain.PlaceholderIncomeName)
	}

	for _, tx := range []domain.Transaction{expense, income} {
		if tx.Title != domain.PlaceholderTitle {
			t.Errorf("Title = %q, want placeholder", tx.Title)
		}
		if tx.CategoryName != domain.CategoryOthers {
			t.Errorf("CategoryName = %q, want Others", tx.CategoryName)
		}
		if !tx.Amount.IsZero() {
			t.Errorf("Amount = %s, want 0 on extraction miss", tx.Amount)
		}
		if tx.Timestamp != 99 {
			t.Errorf("Timestamp = %d, want message time", tx.Timestamp)
		}
	}
}

func TestBuildTransaction_ResolvedProfileOverridesDefaults(t *testing.T) {
	msg := source.Message{Sender: "X", Body: "irrelevant", Time: 7}
	ex := extract.Extraction{
		Amount:      decimal.RequireFromString("42.50"),
		AmountFound: true,
		IsExpense:   true,
		AccountRef:  "XX1",
	}
	res := accounts.Resolution{
		Account: domain.Account{
			AccountID:           "XX1",
			Name:                "Grocer",
			DefaultTitle:        "Groceries",
			DefaultCategoryName: "Food",
		},
		Resolved: true,
	}

	tx := buildTransaction(msg, ex, res)
	if tx.Title != "Groceries" || tx.CounterpartyName != "Grocer" || tx.CategoryName != "Food" {
		t.Errorf("profile fields not copied verbatim: %+v", tx)
	}
	if tx.AccountID != "XX1" {
		t.Errorf("AccountID = %q, want raw reference", tx.AccountID)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("Amount = %s, want 42.50", tx.Amount)
	}
}
