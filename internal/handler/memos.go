package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/obinstory-alt/kkh/internal/domain"
)

// MemoStore defines the store methods needed by memo handlers.
type MemoStore interface {
	Memo(date string) (domain.DailyMemo, bool)
	Memos() []domain.DailyMemo
	SaveMemo(ctx context.Context, date, content string)
}

// MemoHandler handles per-date operating memos.
type MemoHandler struct {
	store MemoStore
}

// NewMemoHandler creates a new MemoHandler.
func NewMemoHandler(store MemoStore) *MemoHandler {
	return &MemoHandler{store: store}
}

// RegisterRoutes registers memo endpoints on the given Chi router.
// Expected to be mounted at /memos.
func (h *MemoHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{date}", h.Get)
	r.Put("/{date}", h.Put)
}

type memoRequest struct {
	Content string `json:"content"`
}

// List returns all memos sorted by date.
func (h *MemoHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Memos())
}

// Get returns the memo for a date. A date without a memo returns an empty
// memo, not a 404, so clients can bind an editor to it directly.
func (h *MemoHandler) Get(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	memo, ok := h.store.Memo(date)
	if !ok {
		memo = domain.DailyMemo{Date: date}
	}
	writeJSON(w, http.StatusOK, memo)
}

// Put saves the memo for a date. Empty content deletes it.
func (h *MemoHandler) Put(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	var req memoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	h.store.SaveMemo(r.Context(), date, req.Content)
	writeJSON(w, http.StatusOK, domain.DailyMemo{Date: date, Content: req.Content})
}
