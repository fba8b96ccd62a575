package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obinstory-alt/kkh/internal/domain"
	"github.com/obinstory-alt/kkh/internal/enum"
	"github.com/obinstory-alt/kkh/internal/snapshot"
)

// --- Mocks ---

type mockPersister struct {
	calls int
	last  *snapshot.Document
	err   error
}

func (m *mockPersister) Persist(_ context.Context, doc *snapshot.Document) error {
	m.calls++
	m.last = doc
	return m.err
}

type mockSink struct {
	events []string
}

func (m *mockSink) Publish(event string) {
	m.events = append(m.events, event)
}

func ctx() context.Context { return context.Background() }

func TestStore_ItemCRUD(t *testing.T) {
	persister := &mockPersister{}
	sink := &mockSink{}
	s := New(nil, persister, sink)

	item, err := s.CreateItem(ctx(), "Fried Chicken")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Name != "Fried Chicken" || item.ID == uuid.Nil {
		t.Errorf("created item = %+v", item)
	}

	if _, err := s.CreateItem(ctx(), ""); err != ErrNameRequired {
		t.Errorf("CreateItem(\"\") error = %v, want ErrNameRequired", err)
	}

	renamed, err := s.UpdateItem(ctx(), item.ID, "Spicy Chicken")
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if renamed.Name != "Spicy Chicken" {
		t.Errorf("renamed item = %+v", renamed)
	}

	if _, err := s.UpdateItem(ctx(), uuid.New(), "x"); err != ErrNotFound {
		t.Errorf("UpdateItem unknown id error = %v, want ErrNotFound", err)
	}

	if err := s.DeleteItem(ctx(), item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if len(s.Items()) != 0 {
		t.Errorf("items after delete = %d, want 0", len(s.Items()))
	}

	if persister.calls != 3 {
		t.Errorf("persister calls = %d, want 3", persister.calls)
	}
	want := []string{enum.EventItemsChanged, enum.EventItemsChanged, enum.EventItemsChanged}
	if len(sink.events) != len(want) {
		t.Errorf("events = %v, want %v", sink.events, want)
	}
}

func TestStore_DeleteItemKeepsHistoricalSales(t *testing.T) {
	s := New(nil, nil, nil)
	item, _ := s.CreateItem(ctx(), "Soup")

	rec := domain.SaleRecord{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		ItemID:    item.ID,
		ChannelID: uuid.New(),
		Quantity:  1,
	}
	if err := s.AppendBatch(ctx(), []domain.SaleRecord{rec}); err != nil {
		t.Fatalf("AppendBatch: %v", err)
	}

	if err := s.DeleteItem(ctx(), item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	records := s.Records()
	if len(records) != 1 {
		t.Fatalf("records after item delete = %d, want 1", len(records))
	}
	// Orphaned references resolve to a fallback display, never crash.
	if got := s.ItemName(item.ID); got != item.ID.String() {
		t.Errorf("ItemName(orphan) = %q, want raw id", got)
	}
}

func TestStore_FeeChangesAreProspectiveOnly(t *testing.T) {
	s := New(nil, nil, nil)
	ch, _ := s.CreateChannel(ctx(), "Baemin", decimal.NewFromInt(10), decimal.NewFromInt(2))

	rec := domain.SaleRecord{
		ID:               uuid.New(),
		Timestamp:        time.Now(),
		ChannelID:        ch.ID,
		ItemID:           uuid.New(),
		Quantity:         1,
		GrossAmount:      decimal.NewFromInt(1000),
		SettlementAmount: decimal.NewFromInt(880),
	}
	s.AppendBatch(ctx(), []domain.SaleRecord{rec})

	if _, err := s.UpdateChannel(ctx(), ch.ID, "Baemin", decimal.NewFromInt(50), decimal.Zero); err != nil {
		t.Fatalf("UpdateChannel: %v", err)
	}

	got := s.Records()[0]
	if !got.SettlementAmount.Equal(decimal.NewFromInt(880)) {
		t.Errorf("settlement after fee change = %s, want 880 (never recomputed)", got.SettlementAmount)
	}
}

func TestStore_ExpenseKindValidation(t *testing.T) {
	s := New(nil, nil, nil)
	if _, err := s.CreateExpense(ctx(), "rent", "WEEKLY", decimal.NewFromInt(100)); err != ErrInvalidExpenseKind {
		t.Errorf("CreateExpense bad kind error = %v, want ErrInvalidExpenseKind", err)
	}
	if _, err := s.CreateExpense(ctx(), "rent", enum.ExpenseKindFixed, decimal.NewFromInt(100)); err != nil {
		t.Errorf("CreateExpense: %v", err)
	}
}

func TestStore_DeleteRecord(t *testing.T) {
	s := New(nil, nil, nil)
	rec := domain.SaleRecord{ID: uuid.New(), Timestamp: time.Now(), ItemID: uuid.New(), ChannelID: uuid.New(), Quantity: 1}
	s.AppendBatch(ctx(), []domain.SaleRecord{rec})

	if err := s.DeleteRecord(ctx(), rec.ID); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if err := s.DeleteRecord(ctx(), rec.ID); err != ErrNotFound {
		t.Errorf("second DeleteRecord error = %v, want ErrNotFound", err)
	}
}

func TestStore_MemoUpsertAndDelete(t *testing.T) {
	s := New(nil, nil, nil)

	s.SaveMemo(ctx(), "2024-03-01", "busy lunch")
	s.SaveMemo(ctx(), "2024-03-01", "busy lunch, ran out of soup")
	s.SaveMemo(ctx(), "2024-02-28", "slow day")

	memos := s.Memos()
	if len(memos) != 2 {
		t.Fatalf("memos = %d, want 2 (one per date)", len(memos))
	}
	if memos[0].Date != "2024-02-28" || memos[1].Date != "2024-03-01" {
		t.Errorf("memos not sorted by date: %v", memos)
	}
	if m, _ := s.Memo("2024-03-01"); m.Content != "busy lunch, ran out of soup" {
		t.Errorf("memo content = %q, want replacement", m.Content)
	}

	// Saving empty content deletes the memo for that date.
	s.SaveMemo(ctx(), "2024-03-01", "")
	if _, ok := s.Memo("2024-03-01"); ok {
		t.Error("memo still present after empty save")
	}
}

func TestStore_RestorePartialDocument(t *testing.T) {
	s := New(nil, nil, nil)
	s.CreateItem(ctx(), "Soup")
	s.CreateChannel(ctx(), "Store", decimal.NewFromInt(1), decimal.Zero)
	s.SaveMemo(ctx(), "2024-03-01", "note")

	rec := domain.SaleRecord{ID: uuid.New(), Timestamp: time.Now(), ItemID: uuid.New(), ChannelID: uuid.New(), Quantity: 1}
	doc, err := snapshot.Parse([]byte(`{"ledger": []}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	doc.Ledger = []domain.SaleRecord{rec}

	s.Restore(ctx(), doc)

	if len(s.Records()) != 1 {
		t.Errorf("ledger after restore = %d, want 1", len(s.Records()))
	}
	if len(s.Items()) != 1 || len(s.Channels()) != 1 || len(s.Memos()) != 1 {
		t.Error("absent collections must stay untouched on restore")
	}
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	s := New(nil, nil, nil)
	item, _ := s.CreateItem(ctx(), "Fried Chicken")
	ch, _ := s.CreateChannel(ctx(), "Baemin", decimal.NewFromFloat(6.8), decimal.Zero)
	s.CreateExpense(ctx(), "rent", enum.ExpenseKindFixed, decimal.NewFromInt(500000))
	s.SaveMemo(ctx(), "2024-03-01", "note")
	s.AppendBatch(ctx(), []domain.SaleRecord{{
		ID:               uuid.New(),
		Timestamp:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		ChannelID:        ch.ID,
		ItemID:           item.ID,
		Quantity:         2,
		GrossAmount:      decimal.NewFromInt(20000),
		SettlementAmount: decimal.NewFromInt(18640),
	}})

	doc := s.Snapshot(time.Now())
	restored := New(nil, nil, nil)
	restored.Restore(ctx(), doc)

	if len(restored.Items()) != 1 || restored.Items()[0] != item {
		t.Errorf("restored items = %v", restored.Items())
	}
	if len(restored.Channels()) != 1 || restored.Channels()[0].ID != ch.ID {
		t.Errorf("restored channels = %v", restored.Channels())
	}
	if len(restored.Records()) != 1 || !restored.Records()[0].GrossAmount.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("restored ledger = %v", restored.Records())
	}
	if m, ok := restored.Memo("2024-03-01"); !ok || m.Content != "note" {
		t.Errorf("restored memo = %v, %v", m, ok)
	}
}

func TestStore_PersistFailureDoesNotFailMutation(t *testing.T) {
	persister := &mockPersister{err: context.DeadlineExceeded}
	s := New(nil, persister, nil)

	if _, err := s.CreateItem(ctx(), "Soup"); err != nil {
		t.Fatalf("CreateItem with failing persister: %v", err)
	}
	if len(s.Items()) != 1 {
		t.Error("mutation must apply even when persistence fails")
	}
}

func TestStore_RecordsByDate(t *testing.T) {
	s := New(nil, nil, nil)
	s.AppendBatch(ctx(), []domain.SaleRecord{
		{ID: uuid.New(), Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), ItemID: uuid.New(), ChannelID: uuid.New(), Quantity: 1},
		{ID: uuid.New(), Timestamp: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), ItemID: uuid.New(), ChannelID: uuid.New(), Quantity: 1},
	})

	if got := len(s.RecordsByDate("2024-03-01")); got != 1 {
		t.Errorf("RecordsByDate = %d, want 1", got)
	}
	if got := len(s.RecordsByDate("2024-04-01")); got != 0 {
		t.Errorf("RecordsByDate empty date = %d, want 0", got)
	}
}
