package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rmalhotra/smsledger/internal/api/middleware"
	"github.com/rmalhotra/smsledger/internal/domain"
	"github.com/rmalhotra/smsledger/internal/ledger"
)

// readEvent consumes one SSE event and returns its data payload.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return data
		}
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestStreamTransactions_OutlivesServerWriteTimeout(t *testing.T) {
	store := ledger.NewStore()
	log := zerolog.Nop()
	h := NewTransactionsHandler(store, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/transactions/stream", h.StreamTransactions)
	handler := middleware.Recovery(log)(middleware.Logger(log)(mux))

	// A deliberately short server-wide write deadline: the stream must clear
	// it per connection or every write committed after it is lost.
	srv := httptest.NewUnstartedServer(handler)
	srv.Config.WriteTimeout = 200 * time.Millisecond
	srv.Start()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/transactions/stream")
	if err != nil {
		t.Fatalf("GET stream failed: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	reader := bufio.NewReader(resp.Body)
	if initial := readEvent(t, reader); initial != "[]" {
		t.Errorf("initial snapshot = %q, want empty set", initial)
	}

	// Commit a write well after the server deadline would have fired.
	time.Sleep(500 * time.Millisecond)
	tx := domain.Transaction{
		Timestamp:        1000,
		Title:            "Rent",
		CounterpartyName: "Landlord",
		Amount:           decimal.RequireFromString("500"),
		Type:             domain.TypeExpense,
		CategoryName:     "Housing",
	}
	if err := store.Upsert(context.Background(), tx); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	update := readEvent(t, reader)
	if !strings.Contains(update, `"timestamp":1000`) {
		t.Errorf("update snapshot = %q, want the committed row", update)
	}
}
