// Package staging holds candidate sale records between ingestion and
// commit. The queue is an explicit state machine: Empty, Staged and
// Committing. Nothing in it is durable; a cleared queue is simply gone.
package staging

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obinstory-alt/kkh/internal/domain"
)

// State is the queue's position in the commit workflow.
type State int

const (
	StateEmpty State = iota
	StateStaged
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateStaged:
		return "STAGED"
	case StateCommitting:
		return "COMMITTING"
	default:
		return "UNKNOWN"
	}
}

// LedgerAppender receives the whole staged batch in one call. Satisfied by
// *store.Store.
type LedgerAppender interface {
	AppendBatch(ctx context.Context, records []domain.SaleRecord) error
}

// ItemSummary is one line of the post-commit report shown to the
// operator: quantities and gross totals aggregated per item across the
// committed batch.
type ItemSummary struct {
	ItemID        uuid.UUID       `json:"item_id"`
	ItemName      string          `json:"item_name"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalGross    decimal.Decimal `json:"total_gross"`
}

// Queue is the operator-reviewable pre-commit holding area. Entries for
// several channels and working dates may coexist before a single commit.
// The queue also carries the in-progress memo draft for the working date,
// which a reset discards along with everything else.
type Queue struct {
	mu        sync.Mutex
	state     State
	entries   []domain.SaleRecord
	draftDate string
	draftMemo string
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{state: StateEmpty}
}

// State returns the current machine state.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Entries returns a copy of the staged entries in insertion order.
func (q *Queue) Entries() []domain.SaleRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.SaleRecord, len(q.entries))
	copy(out, q.entries)
	return out
}

// Add stages a batch of candidates. Adding nothing is a no-op; the queue
// never transitions to Staged without entries.
func (q *Queue) Add(candidates []domain.SaleRecord) {
	if len(candidates) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, candidates...)
	q.state = StateStaged
}

// Remove drops a single staged entry by id. Removing the last entry
// transitions the queue back to Empty.
func (q *Queue) Remove(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			if len(q.entries) == 0 {
				q.state = StateEmpty
			}
			return true
		}
	}
	return false
}

// Clear is the operator's reset: all staged entries and the memo draft are
// discarded and the queue returns to Empty.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
	q.draftDate = ""
	q.draftMemo = ""
	q.state = StateEmpty
}

// SetDraftMemo keeps the unsaved memo text for the working date alongside
// the queue so one reset discards both. Empty content discards the draft,
// mirroring how saving an empty memo deletes it.
func (q *Queue) SetDraftMemo(date, content string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if content == "" {
		q.draftDate = ""
		q.draftMemo = ""
		return
	}
	q.draftDate = date
	q.draftMemo = content
}

// DraftMemo returns the working-date memo draft, if any.
func (q *Queue) DraftMemo() (date, content string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.draftDate, q.draftMemo
}

// Commit appends every staged entry to the ledger as one batch and resets
// the queue, draft memo included: the draft belongs to the committed batch
// and must not survive it. It returns the per-item summary report for
// display. A commit
// on an empty queue is a no-op. If the append fails nothing is committed
// and the queue stays staged.
func (q *Queue) Commit(ctx context.Context, ledger LedgerAppender, itemName func(uuid.UUID) string) ([]ItemSummary, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state == StateEmpty || len(q.entries) == 0 {
		return nil, nil
	}

	q.state = StateCommitting
	batch := make([]domain.SaleRecord, len(q.entries))
	copy(batch, q.entries)

	if err := ledger.AppendBatch(ctx, batch); err != nil {
		q.state = StateStaged
		return nil, err
	}

	report := summarize(batch, itemName)
	q.entries = nil
	q.draftDate = ""
	q.draftMemo = ""
	q.state = StateEmpty
	return report, nil
}

// summarize aggregates the batch per item, preserving first-appearance
// order.
func summarize(batch []domain.SaleRecord, itemName func(uuid.UUID) string) []ItemSummary {
	index := make(map[uuid.UUID]int)
	var report []ItemSummary
	for _, rec := range batch {
		i, ok := index[rec.ItemID]
		if !ok {
			i = len(report)
			index[rec.ItemID] = i
			report = append(report, ItemSummary{
				ItemID:     rec.ItemID,
				ItemName:   itemName(rec.ItemID),
				TotalGross: decimal.Zero,
			})
		}
		report[i].TotalQuantity += rec.Quantity
		report[i].TotalGross = report[i].TotalGross.Add(rec.GrossAmount)
	}
	return report
}
