// Package source adapts raw notification-message stores to the ingestion
// pipeline. A source yields message bodies with timestamps and sender
// identifiers, optionally filtered by year/month/day; the pipeline treats it
// as read-only.
package source

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrUnavailable wraps any failure to reach the underlying message store
// (missing export file, denied bucket access). It is fatal to the ingestion
// run that hit it and is reported to the caller as a distinct failure reason.
var ErrUnavailable = errors.New("message source unavailable")

// Message is one raw notification message.
type Message struct {
	// Sender is the originating identifier (e.g. "AX-HDFCBK").
	Sender string `json:"sender"`
	// Body is the free-text content used as extraction input.
	Body string `json:"body"`
	// Time is the receive time in epoch milliseconds. It becomes the
	// identity key of the transaction built from this message.
	Time int64 `json:"time"`
}

// Window selects messages by calendar date (UTC). Month and Day are optional
// refinements; a zero Year means the current year.
type Window struct {
	Year  int
	Month *time.Month
	Day   *int
}

// Normalize fills in the default year.
func (w Window) Normalize(now time.Time) Window {
	if w.Year == 0 {
		w.Year = now.UTC().Year()
	}
	return w
}

// Contains reports whether a message timestamp falls inside the window.
func (w Window) Contains(epochMillis int64) bool {
	t := time.UnixMilli(epochMillis).UTC()
	if t.Year() != w.Year {
		return false
	}
	if w.Month != nil && t.Month() != *w.Month {
		return false
	}
	if w.Day != nil && t.Day() != *w.Day {
		return false
	}
	return true
}

// Source yields messages grouped by sender for a window. Grouping mirrors how
// message stores expose conversations; the pipeline processes every message
// independently regardless of group.
type Source interface {
	GroupedMessages(ctx context.Context, window Window) (map[string][]Message, error)
}

// group buckets messages by sender, each bucket ordered by time.
func group(messages []Message, window Window) map[string][]Message {
	out := make(map[string][]Message)
	for _, m := range messages {
		if !window.Contains(m.Time) {
			continue
		}
		out[m.Sender] = append(out[m.Sender], m)
	}
	for _, msgs := range out {
		sort.Slice(msgs, func(i, j int) bool { return msgs[i].Time < msgs[j].Time })
	}
	return out
}
