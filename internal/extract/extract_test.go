package extract

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestExtract_Amount(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      string
		wantFound bool
	}{
		{
			name:      "rupee marker with dot",
			body:      "Rs.500 debited from A/c XX1234 on 05-Jan",
			want:      "500",
			wantFound: true,
		},
		{
			name:      "marker with space and decimals",
			body:      "INR 1,250.75 spent on your card",
			want:      "1250.75",
			wantFound: true,
		},
		{
			name:      "indian thousands grouping",
			body:      "Rs 1,50,000 credited to your account",
			want:      "150000",
			wantFound: true,
		},
		{
			name:      "unicode rupee sign",
			body:      "₹99.50 paid to merchant",
			want:      "99.5",
			wantFound: true,
		},
		{
			name:      "trailing marker",
			body:      "You received 750 INR from UPI transfer",
			want:      "750",
			wantFound: true,
		},
		{
			name:      "first match wins",
			body:      "Rs.200 debited, balance Rs.9,800",
			want:      "200",
			wantFound: true,
		},
		{
			name:      "no currency marker",
			body:      "Your OTP is 482913. Do not share it.",
			wantFound: false,
		},
		{
			name:      "promotional message",
			body:      "Get 50% off on your next recharge!",
			wantFound: false,
		},
		{
			name:      "empty body",
			body:      "",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := Extract(tt.body)
			if ex.AmountFound != tt.wantFound {
				t.Fatalf("AmountFound = %v, want %v", ex.AmountFound, tt.wantFound)
			}
			if !tt.wantFound {
				if !ex.Amount.IsZero() {
					t.Errorf("Amount = %s, want zero for miss", ex.Amount)
				}
				return
			}
			want := decimal.RequireFromString(tt.want)
			if !ex.Amount.Equal(want) {
				t.Errorf("Amount = %s, want %s", ex.Amount, want)
			}
		})
	}
}

func TestExtract_Direction(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantExpense bool
	}{
		{"debit vocabulary", "Rs.500 debited from A/c XX1234", true},
		{"credit vocabulary", "Rs.500 credited to A/c XX1234", false},
		{"received", "You received Rs.200 from a friend", false},
		{"refund", "Refund of Rs.99 processed", false},
		{"spent", "You spent INR 45.00 at a store", true},
		// Documented tie-break: when both debit and credit signals appear,
		// the message classifies as an expense.
		{"both signals favor expense", "Rs.500 debited and Rs.100 credited to A/c XX1234", true},
		{"paid beats cashback", "Paid Rs.300, cashback of Rs.30 credited", true},
		{"no signals default to expense", "Rs.500 A/c XX1234 transaction alert", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.body).IsExpense; got != tt.wantExpense {
				t.Errorf("IsExpense = %v, want %v", got, tt.wantExpense)
			}
		})
	}
}

func TestExtract_AccountRef(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"masked a/c", "Rs.500 debited from A/c XX1234 on 05-Jan", "XX1234"},
		{"account no", "credited to account no. 98765", "98765"},
		{"card ending", "spent on card ending 4321", "4321"},
		{"star mask", "debited from Acct **8811", "**8811"},
		{"first ref wins", "from A/c XX1111 to A/c XX2222", "XX1111"},
		{"no reference", "Rs.500 debited towards bill payment", ""},
		{"empty body", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.body).AccountRef; got != tt.want {
				t.Errorf("AccountRef = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_FieldsDegradeIndependently(t *testing.T) {
	// A message can yield a direction and an account ref without an amount;
	// no field miss poisons the others.
	ex := Extract("Payment attempt on card ending 9900 failed")
	if ex.AmountFound {
		t.Error("expected amount miss")
	}
	if !ex.IsExpense {
		t.Error("expected expense classification")
	}
	if ex.AccountRef != "9900" {
		t.Errorf("AccountRef = %q, want %q", ex.AccountRef, "9900")
	}
}
