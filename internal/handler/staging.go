package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/obinstory-alt/kkh/internal/domain"
	"github.com/obinstory-alt/kkh/internal/ingest"
	"github.com/obinstory-alt/kkh/internal/staging"
)

// StagingStore defines the store methods needed by staging handlers. Commits
// go through AppendBatch so the whole queue lands on the ledger as one batch.
type StagingStore interface {
	Items() []domain.Item
	Channels() []domain.Channel
	ItemName(id uuid.UUID) string
	ChannelName(id uuid.UUID) string
	AppendBatch(ctx context.Context, records []domain.SaleRecord) error
	SaveMemo(ctx context.Context, date, content string)
}

// StagingHandler manages the staging queue: candidates enter via form
// promotion or CSV import, get reviewed, and are committed as one batch.
type StagingHandler struct {
	store StagingStore
	queue *staging.Queue
	now   func() time.Time
}

// NewStagingHandler creates a new StagingHandler.
func NewStagingHandler(store StagingStore, queue *staging.Queue) *StagingHandler {
	return &StagingHandler{store: store, queue: queue, now: time.Now}
}

// RegisterRoutes registers staging endpoints on the given Chi router.
// Expected to be mounted at /staging.
func (h *StagingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.View)
	r.Post("/entries", h.Promote)
	r.Post("/import", h.Import)
	r.Delete("/entries/{id}", h.Remove)
	r.Delete("/", h.Clear)
	r.Post("/commit", h.Commit)
}

// --- Request / Response types ---

type promoteRequest struct {
	ChannelID uuid.UUID `json:"channel_id"`
	Date      string    `json:"date"`
	// Absent leaves the draft alone; an explicit empty string discards it.
	Memo    *string                      `json:"memo"`
	Entries map[uuid.UUID]formEntryInput `json:"entries"`
}

type formEntryInput struct {
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

type stagingView struct {
	State     string         `json:"state"`
	DraftDate string         `json:"draft_date"`
	DraftMemo string         `json:"draft_memo"`
	Entries   []saleResponse `json:"entries"`
}

type importResponse struct {
	Total    int    `json:"total"`
	Accepted int    `json:"accepted"`
	Skipped  int    `json:"skipped"`
	State    string `json:"state"`
}

type commitResponse struct {
	Committed int                   `json:"committed"`
	Summary   []staging.ItemSummary `json:"summary"`
}

func (h *StagingHandler) toEntryResponse(rec domain.SaleRecord) saleResponse {
	return saleResponse{
		ID:               rec.ID,
		Timestamp:        rec.Timestamp,
		Date:             rec.Date(),
		ChannelID:        rec.ChannelID,
		ChannelName:      h.store.ChannelName(rec.ChannelID),
		ItemID:           rec.ItemID,
		ItemName:         h.store.ItemName(rec.ItemID),
		Quantity:         rec.Quantity,
		GrossAmount:      rec.GrossAmount.String(),
		SettlementAmount: rec.SettlementAmount.String(),
	}
}

// --- Handlers ---

// View returns the queue state and its entries.
func (h *StagingHandler) View(w http.ResponseWriter, r *http.Request) {
	entries := h.queue.Entries()
	resp := stagingView{
		State:   h.queue.State().String(),
		Entries: make([]saleResponse, len(entries)),
	}
	resp.DraftDate, resp.DraftMemo = h.queue.DraftMemo()
	for i, rec := range entries {
		resp.Entries[i] = h.toEntryResponse(rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Promote converts a filled quantity/price form for one channel and work
// date into staged candidates. Rows with zero or unparseable quantities are
// dropped; an unparseable price stages a zero-revenue record rather than
// losing the quantity.
func (h *StagingHandler) Promote(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	workDate, err := time.Parse(domain.DateLayout, req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	// No channel selected is a no-op, not an error.
	if req.ChannelID == uuid.Nil {
		writeJSON(w, http.StatusOK, importResponse{State: h.queue.State().String()})
		return
	}

	res := ingest.NewResolver(h.store.Channels(), h.store.Items())
	channel, ok := res.ChannelByID(req.ChannelID)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown channel"})
		return
	}

	entries := make(map[uuid.UUID]ingest.FormEntry, len(req.Entries))
	for itemID, in := range req.Entries {
		entries[itemID] = ingest.FormEntry{Quantity: in.Quantity, Price: in.Price}
	}

	candidates := ingest.PromoteForm(entries, channel, workDate, res, h.now())
	h.queue.Add(candidates)
	if req.Memo != nil {
		h.queue.SetDraftMemo(req.Date, *req.Memo)
	}

	writeJSON(w, http.StatusOK, importResponse{
		Total:    len(req.Entries),
		Accepted: len(candidates),
		Skipped:  len(req.Entries) - len(candidates),
		State:    h.queue.State().String(),
	})
}

// Import parses a CSV request body and stages the valid rows. Rows that fail
// validation are skipped and counted, never aborting the batch. The optional
// ?date= query sets the fallback date for rows with an empty date column.
func (h *StagingHandler) Import(w http.ResponseWriter, r *http.Request) {
	batchDate := h.now()
	if date := r.URL.Query().Get("date"); date != "" {
		parsed, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		batchDate = parsed
	}

	res := ingest.NewResolver(h.store.Channels(), h.store.Items())
	result := ingest.ParseCSV(r.Body, batchDate, res, h.now())
	h.queue.Add(result.Candidates)

	writeJSON(w, http.StatusOK, importResponse{
		Total:    result.Total,
		Accepted: result.Accepted,
		Skipped:  result.Skipped,
		State:    h.queue.State().String(),
	})
}

// Remove drops a single staged entry.
func (h *StagingHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid entry ID"})
		return
	}

	if !h.queue.Remove(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "entry not staged"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"state": h.queue.State().String()})
}

// Clear discards the whole queue, draft memo included. Nothing reaches the
// ledger.
func (h *StagingHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.queue.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"state": h.queue.State().String()})
}

// Template serves a sample CSV seeded with the configured channel and item
// names so operators can fill it in a spreadsheet. Mounted at
// /import/template, outside the staging subtree.
func (h *StagingHandler) Template(w http.ResponseWriter, r *http.Request) {
	data := ingest.SampleCSV(h.store.Channels(), h.store.Items(), h.now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="sales-template.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Commit appends every staged entry to the ledger as one batch and returns
// the per-item summary. The queue's draft memo, if any, is saved for its
// work date in the same step. Committing an empty queue is a no-op.
func (h *StagingHandler) Commit(w http.ResponseWriter, r *http.Request) {
	memoDate, memoContent := h.queue.DraftMemo()
	committed := len(h.queue.Entries())

	summary, err := h.queue.Commit(r.Context(), h.store, h.store.ItemName)
	if err != nil {
		log.Printf("ERROR: commit staging queue: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "commit failed, queue left staged"})
		return
	}

	// The draft memo is part of the committed batch; an empty-queue commit
	// saves nothing.
	if committed > 0 && memoContent != "" && memoDate != "" {
		h.store.SaveMemo(r.Context(), memoDate, memoContent)
	}

	writeJSON(w, http.StatusOK, commitResponse{Committed: committed, Summary: summary})
}
