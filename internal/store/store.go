// Package store owns the live collections: the configuration (items,
// channels, expense rules), the ledger and the memo set. Every mutation
// happens under one mutex, then the persister receives the full state and
// the event sink a mutation event. Persistence is best-effort: a persist
// failure is logged, never surfaced, because no engine operation depends
// on it completing.
package store

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obinstory-alt/kkh/internal/domain"
	"github.com/obinstory-alt/kkh/internal/enum"
	"github.com/obinstory-alt/kkh/internal/snapshot"
)

// Errors returned by store operations.
var (
	ErrNotFound           = errors.New("not found")
	ErrNameRequired       = errors.New("name is required")
	ErrInvalidExpenseKind = errors.New("invalid expense kind")
)

// Persister receives the full state after every mutation.
type Persister interface {
	Persist(ctx context.Context, doc *snapshot.Document) error
}

// EventSink receives a mutation event type after every mutation.
// Satisfied by *ws.Hub.
type EventSink interface {
	Publish(eventType string)
}

// Store is the singly-owned mutable state of the engine.
type Store struct {
	mu       sync.RWMutex
	items    []domain.Item
	channels []domain.Channel
	expenses []domain.ExpenseRule
	ledger   []domain.SaleRecord
	memos    map[string]string

	persister Persister
	events    EventSink
}

// New builds a store over an initial snapshot (nil for a fresh install).
// persister and events may be nil.
func New(initial *snapshot.Document, persister Persister, events EventSink) *Store {
	s := &Store{
		memos:     make(map[string]string),
		persister: persister,
		events:    events,
	}
	if initial != nil {
		s.applyLocked(initial)
	}
	return s
}

// --- Configuration: items ---

// Items returns a copy of the configured items.
func (s *Store) Items() []domain.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Item, len(s.items))
	copy(out, s.items)
	return out
}

// CreateItem adds a new sellable item.
func (s *Store) CreateItem(ctx context.Context, name string) (domain.Item, error) {
	if name == "" {
		return domain.Item{}, ErrNameRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item := domain.Item{ID: uuid.New(), Name: name}
	s.items = append(s.items, item)
	s.mutated(ctx, enum.EventItemsChanged)
	return item, nil
}

// UpdateItem renames an item.
func (s *Store) UpdateItem(ctx context.Context, id uuid.UUID, name string) (domain.Item, error) {
	if name == "" {
		return domain.Item{}, ErrNameRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Name = name
			s.mutated(ctx, enum.EventItemsChanged)
			return s.items[i], nil
		}
	}
	return domain.Item{}, ErrNotFound
}

// DeleteItem removes an item from the configuration. Historical sale
// records keep their itemId; display falls back to the raw id.
func (s *Store) DeleteItem(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.mutated(ctx, enum.EventItemsChanged)
			return nil
		}
	}
	return ErrNotFound
}

// ItemName resolves an item id for display, falling back to the raw id
// for deleted items.
func (s *Store) ItemName(id uuid.UUID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ID == id {
			return it.Name
		}
	}
	return id.String()
}

// --- Configuration: channels ---

// Channels returns a copy of the configured channels.
func (s *Store) Channels() []domain.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Channel, len(s.channels))
	copy(out, s.channels)
	return out
}

// CreateChannel adds a sales channel with its commission rates.
func (s *Store) CreateChannel(ctx context.Context, name string, fee, adjustment decimal.Decimal) (domain.Channel, error) {
	if name == "" {
		return domain.Channel{}, ErrNameRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := domain.Channel{
		ID:                uuid.New(),
		Name:              name,
		FeePercent:        fee,
		AdjustmentPercent: adjustment,
	}
	s.channels = append(s.channels, ch)
	s.mutated(ctx, enum.EventChannelsChanged)
	return ch, nil
}

// UpdateChannel edits a channel's name and rates. Fee changes are
// prospective only: committed settlements are never recomputed.
func (s *Store) UpdateChannel(ctx context.Context, id uuid.UUID, name string, fee, adjustment decimal.Decimal) (domain.Channel, error) {
	if name == "" {
		return domain.Channel{}, ErrNameRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.channels {
		if s.channels[i].ID == id {
			s.channels[i].Name = name
			s.channels[i].FeePercent = fee
			s.channels[i].AdjustmentPercent = adjustment
			s.mutated(ctx, enum.EventChannelsChanged)
			return s.channels[i], nil
		}
	}
	return domain.Channel{}, ErrNotFound
}

// DeleteChannel removes a channel from the configuration.
func (s *Store) DeleteChannel(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.channels {
		if s.channels[i].ID == id {
			s.channels = append(s.channels[:i], s.channels[i+1:]...)
			s.mutated(ctx, enum.EventChannelsChanged)
			return nil
		}
	}
	return ErrNotFound
}

// ChannelName resolves a channel id for display, falling back to the raw
// id for deleted channels.
func (s *Store) ChannelName(id uuid.UUID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.channels {
		if ch.ID == id {
			return ch.Name
		}
	}
	return id.String()
}

// --- Configuration: expense rules ---

// Expenses returns a copy of the configured expense rules.
func (s *Store) Expenses() []domain.ExpenseRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ExpenseRule, len(s.expenses))
	copy(out, s.expenses)
	return out
}

// CreateExpense adds an expense rule.
func (s *Store) CreateExpense(ctx context.Context, name, kind string, value decimal.Decimal) (domain.ExpenseRule, error) {
	if name == "" {
		return domain.ExpenseRule{}, ErrNameRequired
	}
	if !enum.ValidExpenseKind(kind) {
		return domain.ExpenseRule{}, ErrInvalidExpenseKind
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := domain.ExpenseRule{ID: uuid.New(), Name: name, Kind: kind, Value: value}
	s.expenses = append(s.expenses, e)
	s.mutated(ctx, enum.EventExpensesChanged)
	return e, nil
}

// UpdateExpense edits an expense rule.
func (s *Store) UpdateExpense(ctx context.Context, id uuid.UUID, name, kind string, value decimal.Decimal) (domain.ExpenseRule, error) {
	if name == "" {
		return domain.ExpenseRule{}, ErrNameRequired
	}
	if !enum.ValidExpenseKind(kind) {
		return domain.ExpenseRule{}, ErrInvalidExpenseKind
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			s.expenses[i].Name = name
			s.expenses[i].Kind = kind
			s.expenses[i].Value = value
			s.mutated(ctx, enum.EventExpensesChanged)
			return s.expenses[i], nil
		}
	}
	return domain.ExpenseRule{}, ErrNotFound
}

// DeleteExpense removes an expense rule.
func (s *Store) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			s.mutated(ctx, enum.EventExpensesChanged)
			return nil
		}
	}
	return ErrNotFound
}

// --- Ledger ---

// Records returns a copy of the full ledger.
func (s *Store) Records() []domain.SaleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SaleRecord, len(s.ledger))
	copy(out, s.ledger)
	return out
}

// RecordsByDate returns the records whose date portion matches.
func (s *Store) RecordsByDate(date string) []domain.SaleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SaleRecord
	for _, rec := range s.ledger {
		if rec.Date() == date {
			out = append(out, rec)
		}
	}
	return out
}

// AppendBatch commits a whole staged batch to the ledger in one step.
// Satisfies staging.LedgerAppender.
func (s *Store) AppendBatch(ctx context.Context, records []domain.SaleRecord) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, records...)
	s.mutated(ctx, enum.EventLedgerCommitted)
	return nil
}

// DeleteRecord removes a single sale record. The deletion is immediate and
// final.
func (s *Store) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.ledger {
		if s.ledger[i].ID == id {
			s.ledger = append(s.ledger[:i], s.ledger[i+1:]...)
			s.mutated(ctx, enum.EventLedgerDeleted)
			return nil
		}
	}
	return ErrNotFound
}

// --- Memos ---

// Memo returns the memo for a date, if any.
func (s *Store) Memo(date string) (domain.DailyMemo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.memos[date]
	if !ok {
		return domain.DailyMemo{}, false
	}
	return domain.DailyMemo{Date: date, Content: content}, true
}

// Memos returns all memos sorted by date.
func (s *Store) Memos() []domain.DailyMemo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memosLocked()
}

// SaveMemo stores the memo for a date. Saving empty content deletes the
// memo; non-empty content replaces any prior one.
func (s *Store) SaveMemo(ctx context.Context, date, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if content == "" {
		delete(s.memos, date)
	} else {
		s.memos[date] = content
	}
	s.mutated(ctx, enum.EventMemoSaved)
}

// --- Snapshot ---

// Snapshot exports the full state as a restore document.
func (s *Store) Snapshot(now time.Time) *snapshot.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(now)
}

// Restore applies a parsed snapshot document: each present collection
// wholesale replaces the live one, absent collections stay untouched.
// The caller is responsible for having confirmed the operation.
func (s *Store) Restore(ctx context.Context, doc *snapshot.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(doc)
	s.mutated(ctx, enum.EventSnapshotRestore)
}

// --- internals ---

// applyLocked replaces the collections present in doc. Callers hold mu.
func (s *Store) applyLocked(doc *snapshot.Document) {
	if doc.Items != nil {
		s.items = append([]domain.Item(nil), doc.Items...)
	}
	if doc.Channels != nil {
		s.channels = append([]domain.Channel(nil), doc.Channels...)
	}
	if doc.Ledger != nil {
		s.ledger = append([]domain.SaleRecord(nil), doc.Ledger...)
	}
	if doc.Expenses != nil {
		s.expenses = append([]domain.ExpenseRule(nil), doc.Expenses...)
	}
	if doc.Memos != nil {
		s.memos = make(map[string]string, len(doc.Memos))
		for _, m := range doc.Memos {
			if m.Content != "" {
				s.memos[m.Date] = m.Content
			}
		}
	}
}

func (s *Store) memosLocked() []domain.DailyMemo {
	out := make([]domain.DailyMemo, 0, len(s.memos))
	for date, content := range s.memos {
		out = append(out, domain.DailyMemo{Date: date, Content: content})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (s *Store) snapshotLocked(now time.Time) *snapshot.Document {
	return snapshot.Export(
		append([]domain.Item(nil), s.items...),
		append([]domain.Channel(nil), s.channels...),
		append([]domain.SaleRecord(nil), s.ledger...),
		append([]domain.ExpenseRule(nil), s.expenses...),
		s.memosLocked(),
		now,
	)
}

// mutated notifies the persister and the event sink. Callers hold mu.
func (s *Store) mutated(ctx context.Context, event string) {
	if s.persister != nil {
		if err := s.persister.Persist(ctx, s.snapshotLocked(time.Now())); err != nil {
			log.Printf("ERROR: persist after %s: %v", event, err)
		}
	}
	if s.events != nil {
		s.events.Publish(event)
	}
}
