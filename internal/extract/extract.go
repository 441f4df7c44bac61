// Package extract recovers structured transaction fields from free-text bank
// and payment notification messages. Extraction is pure and never fails:
// every field independently degrades to its zero value when no pattern
// matches, so malformed or promotional messages flow through the pipeline
// instead of aborting it.
package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Extraction is the result of scanning one message body.
type Extraction struct {
	// Amount is the first monetary figure found, zero when AmountFound is
	// false.
	Amount decimal.Decimal
	// AmountFound distinguishes a parsed zero from "no amount pattern in the
	// text" so callers can test the default-application path.
	AmountFound bool
	// IsExpense is the direction classification. When both debit and credit
	// vocabulary appear in one message, debit wins: overstating expenses is
	// the safer default for a budgeting tool.
	IsExpense bool
	// AccountRef is the first account/card reference token in the text
	// ("XX1234"), empty when none matched.
	AccountRef string
}

var (
	// A currency marker adjacent to a numeric token with optional thousands
	// separators and up to two decimal digits. Marker-first is the common
	// form ("Rs.500", "INR 1,50,000.00"); the trailing form ("500 INR")
	// appears in some senders' templates.
	amountLeading  = regexp.MustCompile(`(?i)(?:\brs\.?|\binr\b|₹)\s*([0-9]+(?:,[0-9]+)*(?:\.[0-9]{1,2})?)`)
	amountTrailing = regexp.MustCompile(`(?i)([0-9]+(?:,[0-9]+)*(?:\.[0-9]{1,2})?)\s*(?:rs\b\.?|inr\b|₹)`)

	// Masked account/card identifiers: "A/c XX1234", "account no. *5678",
	// "card ending 1234".
	accountRef = regexp.MustCompile(`(?i)\b(?:a/c|acct|account|card)\b\.?(?:\s+(?:no\.?|number|ending(?:\s+(?:in|with))?))?\s*[:#-]?\s*([xX*]*[0-9]{3,8})`)

	debitWords  = regexp.MustCompile(`(?i)\b(?:debited|debit|spent|paid|payment|purchase|withdrawn|sent|deducted)\b`)
	creditWords = regexp.MustCompile(`(?i)\b(?:credited|credit|received|deposited|refund|refunded|cashback)\b`)
)

// Extract scans one message body and returns whatever fields it can recover.
func Extract(body string) Extraction {
	ex := Extraction{IsExpense: classifyDirection(body)}

	if raw, ok := findAmount(body); ok {
		if amt, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "")); err == nil {
			ex.Amount = amt
			ex.AmountFound = true
		}
	}

	if m := accountRef.FindStringSubmatch(body); m != nil {
		ex.AccountRef = m[1]
	}

	return ex
}

// findAmount returns the first currency-amount token. First unambiguous match
// wins; the leading-marker form is checked before the trailing form because
// it is by far the more common template.
func findAmount(body string) (string, bool) {
	if m := amountLeading.FindStringSubmatch(body); m != nil {
		return m[1], true
	}
	if m := amountTrailing.FindStringSubmatch(body); m != nil {
		return m[1], true
	}
	return "", false
}

// classifyDirection applies the debit/credit vocabulary rule sets. Debit
// signals take precedence when both are present. A message with no signals at
// all classifies as an expense for the same reason the tie-break does.
func classifyDirection(body string) bool {
	if debitWords.MatchString(body) {
		return true
	}
	if creditWords.MatchString(body) {
		return false
	}
	return true
}
