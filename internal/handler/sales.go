package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/obinstory-alt/kkh/internal/domain"
	"github.com/obinstory-alt/kkh/internal/store"
)

// SalesStore defines the store methods needed by sales ledger handlers.
type SalesStore interface {
	Records() []domain.SaleRecord
	RecordsByDate(date string) []domain.SaleRecord
	DeleteRecord(ctx context.Context, id uuid.UUID) error
	ChannelName(id uuid.UUID) string
	ItemName(id uuid.UUID) string
}

// SalesHandler exposes the committed sales ledger.
type SalesHandler struct {
	store SalesStore
}

// NewSalesHandler creates a new SalesHandler.
func NewSalesHandler(store SalesStore) *SalesHandler {
	return &SalesHandler{store: store}
}

// RegisterRoutes registers ledger endpoints on the given Chi router.
// Expected to be mounted at /sales.
func (h *SalesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Delete("/{id}", h.Delete)
}

type saleResponse struct {
	ID               uuid.UUID `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Date             string    `json:"date"`
	ChannelID        uuid.UUID `json:"channel_id"`
	ChannelName      string    `json:"channel_name"`
	ItemID           uuid.UUID `json:"item_id"`
	ItemName         string    `json:"item_name"`
	Quantity         int64     `json:"quantity"`
	GrossAmount      string    `json:"gross_amount"`
	SettlementAmount string    `json:"settlement_amount"`
}

func (h *SalesHandler) toResponse(rec domain.SaleRecord) saleResponse {
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

// List returns the ledger, optionally filtered to a single date via
// ?date=YYYY-MM-DD. Names are resolved at read time; records referencing
// deleted items or channels fall back to the raw ID.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	var records []domain.SaleRecord
	if date := r.URL.Query().Get("date"); date != "" {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		records = h.store.RecordsByDate(date)
	} else {
		records = h.store.Records()
	}

	resp := make([]saleResponse, len(records))
	for i, rec := range records {
		resp[i] = h.toResponse(rec)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Delete removes a single sale record from the ledger.
func (h *SalesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid record ID"})
		return
	}

	if err := h.store.DeleteRecord(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "record not found"})
			return
		}
		log.Printf("ERROR: delete sale record: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "record deleted"})
}
