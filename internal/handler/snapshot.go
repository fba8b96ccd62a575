package handler

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/obinstory-alt/kkh/internal/snapshot"
)

// SnapshotStore defines the store methods needed by snapshot handlers.
type SnapshotStore interface {
	Snapshot(now time.Time) *snapshot.Document
	Restore(ctx context.Context, doc *snapshot.Document)
}

// SnapshotHandler exposes full-state export and restore.
type SnapshotHandler struct {
	store SnapshotStore
	now   func() time.Time
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(store SnapshotStore) *SnapshotHandler {
	return &SnapshotHandler{store: store, now: time.Now}
}

// RegisterRoutes registers snapshot endpoints on the given Chi router.
// Expected to be mounted at /snapshot.
func (h *SnapshotHandler) RegisterRoutes(r chi.Router) {
	r.Get("/export", h.Export)
	r.Post("/restore", h.Restore)
}

// Export returns the full engine state as a restore document.
func (h *SnapshotHandler) Export(w http.ResponseWriter, r *http.Request) {
	doc := h.store.Snapshot(h.now())
	data, err := doc.Marshal()
	if err != nil {
		log.Printf("ERROR: marshal snapshot: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="settlement-backup.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Restore replaces present collections from an uploaded document. The
// caller must pass ?confirm=true; restore is destructive for the
// collections the document carries. A document that fails to parse changes
// nothing.
func (h *SnapshotHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "restore requires confirm=true"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	doc, err := snapshot.Parse(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed snapshot document"})
		return
	}

	h.store.Restore(r.Context(), doc)
	writeJSON(w, http.StatusOK, map[string]string{"message": "snapshot restored"})
}
