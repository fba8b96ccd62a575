package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obinstory-alt/kkh/internal/domain"
	"github.com/obinstory-alt/kkh/internal/store"
)

// ChannelStore defines the store methods needed by channel handlers.
type ChannelStore interface {
	Channels() []domain.Channel
	CreateChannel(ctx context.Context, name string, fee, adjustment decimal.Decimal) (domain.Channel, error)
	UpdateChannel(ctx context.Context, id uuid.UUID, name string, fee, adjustment decimal.Decimal) (domain.Channel, error)
	DeleteChannel(ctx context.Context, id uuid.UUID) error
}

// ChannelHandler handles sales channel CRUD endpoints.
type ChannelHandler struct {
	store ChannelStore
}

// NewChannelHandler creates a new ChannelHandler.
func NewChannelHandler(store ChannelStore) *ChannelHandler {
	return &ChannelHandler{store: store}
}

// RegisterRoutes registers channel CRUD endpoints on the given Chi router.
// Expected to be mounted at /channels.
func (h *ChannelHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type channelRequest struct {
	Name              string `json:"name"`
	FeePercent        string `json:"fee_percent"`
	AdjustmentPercent string `json:"adjustment_percent"`
}

// percents parses the fee fields. Empty strings mean zero so a channel
// without an adjustment doesn't need to send one.
func (req channelRequest) percents() (fee, adjustment decimal.Decimal, err error) {
	fee = decimal.Zero
	if req.FeePercent != "" {
		fee, err = decimal.NewFromString(req.FeePercent)
		if err != nil {
			return
		}
	}
	adjustment = decimal.Zero
	if req.AdjustmentPercent != "" {
		adjustment, err = decimal.NewFromString(req.AdjustmentPercent)
	}
	return
}

// List returns all configured channels.
func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Channels())
}

// Create adds a new sales channel.
func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	fee, adjustment, err := req.percents()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid percent value"})
		return
	}

	channel, err := h.store.CreateChannel(r.Context(), req.Name, fee, adjustment)
	if err != nil {
		if errors.Is(err, store.ErrNameRequired) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
			return
		}
		log.Printf("ERROR: create channel: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, channel)
}

// Update modifies a channel's name or fee configuration. Fee changes apply
// to future sales only; settled amounts already on the ledger stay as
// recorded.
func (h *ChannelHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel ID"})
		return
	}

	var req channelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	fee, adjustment, err := req.percents()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid percent value"})
		return
	}

	channel, err := h.store.UpdateChannel(r.Context(), id, req.Name, fee, adjustment)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "channel not found"})
		case errors.Is(err, store.ErrNameRequired):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		default:
			log.Printf("ERROR: update channel: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, channel)
}

// Delete removes a channel. Historical sale records that reference it are
// kept untouched.
func (h *ChannelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel ID"})
		return
	}

	if err := h.store.DeleteChannel(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "channel not found"})
			return
		}
		log.Printf("ERROR: delete channel: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "channel deleted"})
}
