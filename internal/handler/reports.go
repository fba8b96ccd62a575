package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/obinstory-alt/kkh/internal/domain"
	"github.com/obinstory-alt/kkh/internal/report"
)

// ReportsStore defines the store methods needed by report handlers. Reports
// are pure functions over the ledger and expense rules, so the handler only
// reads.
type ReportsStore interface {
	Records() []domain.SaleRecord
	RecordsByDate(date string) []domain.SaleRecord
	Expenses() []domain.ExpenseRule
	ItemName(id uuid.UUID) string
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	store ReportsStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
// Expected to be mounted at /reports.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/aggregate", h.Aggregate)
	r.Get("/items", h.Items)
	r.Get("/summary", h.Summary)
	r.Get("/daily", h.Daily)
}

// Aggregate buckets the ledger by ?granularity= (DAY, WEEK, MONTH or YEAR)
// with amortized costs applied per bucket.
func (h *ReportsHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	granularity := r.URL.Query().Get("granularity")

	buckets, err := report.Aggregate(h.store.Records(), h.store.Expenses(), granularity)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "granularity must be one of DAY, WEEK, MONTH, YEAR"})
		return
	}
	if buckets == nil {
		buckets = []report.Bucket{}
	}

	writeJSON(w, http.StatusOK, buckets)
}

// Items returns the revenue-descending item ranking, over the whole ledger
// or a single date via ?date=YYYY-MM-DD.
func (h *ReportsHandler) Items(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
	}

	ranks := report.RankItems(h.store.Records(), h.store.ItemName, date)
	if ranks == nil {
		ranks = []report.ItemRank{}
	}

	writeJSON(w, http.StatusOK, ranks)
}

// Summary returns the all-time dashboard totals plus the recent daily trend.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.Summarize(h.store.Records(), h.store.Expenses()))
}

// Daily returns the drill-down view for one date: every record plus the
// date's revenue and settlement totals.
func (h *ReportsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	writeJSON(w, http.StatusOK, report.DailyDetail(h.store.RecordsByDate(date), date))
}
