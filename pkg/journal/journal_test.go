package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"orderbot/pkg/order"
)

func sampleOrder(phone string) *order.ExtractedOrder {
	return &order.ExtractedOrder{
		OrderDate:     time.Date(2025, time.August, 6, 0, 0, 0, 0, time.UTC),
		CustomerName:  "THAN SIEW PHENG",
		PhoneNumber:   phone,
		LineItems:     []order.LineItem{{Product: order.Wash, Quantity: 1}},
		ProductCode:   "1w",
		TotalPaid:     decimal.NewFromInt(256),
		PaymentMethod: order.PaymentCOD,
		Address:       order.Address{Postcode: "14300", State: "Penang", Country: order.CountryMalaysia},
		Format:        order.FormatMultiline,
	}
}

func TestResolveRootExpandsHomeAndCreatesDirectory(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	root, err := ResolveRoot("~/orders")
	if err != nil {
		t.Fatalf("ResolveRoot error: %v", err)
	}
	if root != filepath.Join(homeDir, "orders") {
		t.Fatalf("ResolveRoot root = %q, want %q", root, filepath.Join(homeDir, "orders"))
	}
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		t.Fatalf("journal directory missing: %v", statErr)
	}
}

func TestWriteAndReplay(t *testing.T) {
	j, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer j.Close()

	ctx := context.Background()
	msg := order.MessageContext{SenderPhone: "60123456789", MessageID: "42"}
	for _, phone := range []string{"60194419638", "60127370668"} {
		if err := j.Write(ctx, sampleOrder(phone), msg); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}

	var entries []Entry
	if err := j.Replay(func(entry Entry) error {
		entries = append(entries, entry)
		return nil
	}); err != nil {
		t.Fatalf("Replay error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	first := entries[0]
	if first.ID == "" || first.ID == entries[1].ID {
		t.Fatalf("entry ids = %q, %q", first.ID, entries[1].ID)
	}
	if first.Order.PhoneNumber != "60194419638" {
		t.Fatalf("phone = %q", first.Order.PhoneNumber)
	}
	if !first.Order.TotalPaid.Equal(decimal.NewFromInt(256)) {
		t.Fatalf("total = %s", first.Order.TotalPaid)
	}
	if first.Message.MessageID != "42" {
		t.Fatalf("message id = %q", first.Message.MessageID)
	}
	if first.Row["TOTAL PAID (rm)"] != "256.00" || first.Row["state"] != "Penang" {
		t.Fatalf("row = %#v", first.Row)
	}
}

func TestReplayMissingFileIsEmpty(t *testing.T) {
	calls := 0
	err := Replay(filepath.Join(t.TempDir(), "absent.jsonl"), func(Entry) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Replay error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0", calls)
	}
}

func TestReplayReportsCorruptEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.jsonl")
	if err := os.WriteFile(path, []byte("{\"id\":\"a\"}\n\nnot json\n"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	err := Replay(path, func(Entry) error { return nil })
	if CategoryFromError(err) != ErrorCorruptEntry {
		t.Fatalf("error category = %q, want %q", CategoryFromError(err), ErrorCorruptEntry)
	}
}

func TestReplayStopsOnCallbackError(t *testing.T) {
	j, err := Open(t.TempDir(), []string{"phone number"})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer j.Close()

	for i := 0; i < 3; i++ {
		if err := j.Write(context.Background(), sampleOrder("60194419638"), order.MessageContext{}); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}

	stop := errors.New("stop")
	calls := 0
	err = j.Replay(func(entry Entry) error {
		calls++
		if len(entry.Row) != 1 {
			t.Fatalf("row = %#v, want only the configured header", entry.Row)
		}
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("Replay = %v after %d calls", err, calls)
	}
}

func TestWriteAfterClose(t *testing.T) {
	j, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	err = j.Write(context.Background(), sampleOrder("60194419638"), order.MessageContext{})
	if CategoryFromError(err) != ErrorClosed {
		t.Fatalf("error category = %q, want %q", CategoryFromError(err), ErrorClosed)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
}

func TestConcurrentWrites(t *testing.T) {
	j, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer j.Close()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if err := j.Write(context.Background(), sampleOrder("60127370668"), order.MessageContext{}); err != nil {
				t.Errorf("Write error: %v", err)
			}
		}()
	}
	wg.Wait()

	count := 0
	if err := j.Replay(func(Entry) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("Replay error: %v", err)
	}
	if count != n {
		t.Fatalf("entries = %d, want %d", count, n)
	}
}
