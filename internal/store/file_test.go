package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obinstory-alt/kkh/internal/domain"
	"github.com/obinstory-alt/kkh/internal/snapshot"
)

func TestFilePersister_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "kkh.json")
	p := NewFilePersister(path)

	doc := snapshot.Export(
		[]domain.Item{{ID: uuid.New(), Name: "Fried Chicken"}},
		[]domain.Channel{{ID: uuid.New(), Name: "Baemin", FeePercent: decimal.NewFromFloat(6.8)}},
		[]domain.SaleRecord{{
			ID:               uuid.New(),
			Timestamp:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			ChannelID:        uuid.New(),
			ItemID:           uuid.New(),
			Quantity:         2,
			GrossAmount:      decimal.NewFromInt(20000),
			SettlementAmount: decimal.NewFromInt(18640),
		}},
		nil,
		[]domain.DailyMemo{{Date: "2024-03-01", Content: "note"}},
		time.Now(),
	)

	if err := p.Persist(context.Background(), doc); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded, err := p.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil for an existing file")
	}
	if len(loaded.Items) != 1 || loaded.Items[0].Name != "Fried Chicken" {
		t.Errorf("loaded items = %v", loaded.Items)
	}
	if len(loaded.Ledger) != 1 || !loaded.Ledger[0].GrossAmount.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("loaded ledger = %v", loaded.Ledger)
	}
	if len(loaded.Memos) != 1 || loaded.Memos[0].Content != "note" {
		t.Errorf("loaded memos = %v", loaded.Memos)
	}
}

func TestFilePersister_LoadMissingFile(t *testing.T) {
	p := NewFilePersister(filepath.Join(t.TempDir(), "absent.json"))
	doc, err := p.Load()
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if doc != nil {
		t.Errorf("doc = %v, want nil for fresh install", doc)
	}
}

func TestFilePersister_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFilePersister(path).Load(); err == nil {
		t.Error("Load corrupt file: expected error")
	}
}
