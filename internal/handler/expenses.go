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

// ExpenseStore defines the store methods needed by expense handlers.
type ExpenseStore interface {
	Expenses() []domain.ExpenseRule
	CreateExpense(ctx context.Context, name, kind string, value decimal.Decimal) (domain.ExpenseRule, error)
	UpdateExpense(ctx context.Context, id uuid.UUID, name, kind string, value decimal.Decimal) (domain.ExpenseRule, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
}

// ExpenseHandler handles expense rule CRUD endpoints.
type ExpenseHandler struct {
	store ExpenseStore
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(store ExpenseStore) *ExpenseHandler {
	return &ExpenseHandler{store: store}
}

// RegisterRoutes registers expense CRUD endpoints on the given Chi router.
// Expected to be mounted at /expenses.
func (h *ExpenseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type expenseRequest struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func (req expenseRequest) amount() (decimal.Decimal, error) {
	if req.Value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(req.Value)
}

// List returns all configured expense rules.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Expenses())
}

// Create adds a new expense rule.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	value, err := req.amount()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expense value"})
		return
	}

	expense, err := h.store.CreateExpense(r.Context(), req.Name, req.Kind, value)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNameRequired):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		case errors.Is(err, store.ErrInvalidExpenseKind):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expense kind"})
		default:
			log.Printf("ERROR: create expense: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, expense)
}

// Update modifies an existing expense rule.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expense ID"})
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	value, err := req.amount()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expense value"})
		return
	}

	expense, err := h.store.UpdateExpense(r.Context(), id, req.Name, req.Kind, value)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "expense not found"})
		case errors.Is(err, store.ErrNameRequired):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		case errors.Is(err, store.ErrInvalidExpenseKind):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expense kind"})
		default:
			log.Printf("ERROR: update expense: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

// Delete removes an expense rule.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expense ID"})
		return
	}

	if err := h.store.DeleteExpense(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "expense not found"})
			return
		}
		log.Printf("ERROR: delete expense: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "expense deleted"})
}
