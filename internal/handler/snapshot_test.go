package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/obinstory-alt/kkh/internal/domain"
	"github.com/obinstory-alt/kkh/internal/handler"
	"github.com/obinstory-alt/kkh/internal/snapshot"
)

// --- Mock store ---

type mockSnapshotStore struct {
	doc      *snapshot.Document
	restored *snapshot.Document
}

func (m *mockSnapshotStore) Snapshot(now time.Time) *snapshot.Document {
	if m.doc != nil {
		return m.doc
	}
	return snapshot.Export(nil, nil, nil, nil, nil, now)
}

func (m *mockSnapshotStore) Restore(_ context.Context, doc *snapshot.Document) {
	m.restored = doc
}

func setupSnapshotRouter(store *mockSnapshotStore) *chi.Mux {
	h := handler.NewSnapshotHandler(store)
	r := chi.NewRouter()
	r.Route("/snapshot", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestSnapshotExport(t *testing.T) {
	store := &mockSnapshotStore{
		doc: snapshot.Export(
			[]domain.Item{{ID: uuid.New(), Name: "닭강정"}},
			nil, nil, nil, nil,
			time.Now(),
		),
	}
	router := setupSnapshotRouter(store)

	rr := doRequest(t, router, "GET", "/snapshot/export", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", cd)
	}
	if !strings.Contains(rr.Body.String(), "닭강정") {
		t.Error("export body missing item")
	}
}

func TestSnapshotRestore(t *testing.T) {
	store := &mockSnapshotStore{}
	router := setupSnapshotRouter(store)

	body := `{"ledger": [], "items": [{"id": "` + uuid.NewString() + `", "name": "국밥"}]}`
	req := httptest.NewRequest("POST", "/snapshot/restore?confirm=true", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if store.restored == nil {
		t.Fatal("store was not restored")
	}
	if len(store.restored.Items) != 1 {
		t.Errorf("restored items = %v, want 1", store.restored.Items)
	}
	if store.restored.Memos != nil {
		t.Error("absent collections must parse as nil so restore leaves them alone")
	}
}

func TestSnapshotRestore_RequiresConfirm(t *testing.T) {
	store := &mockSnapshotStore{}
	router := setupSnapshotRouter(store)

	req := httptest.NewRequest("POST", "/snapshot/restore", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if store.restored != nil {
		t.Error("restore must not run without confirmation")
	}
}

func TestSnapshotRestore_MalformedDocument(t *testing.T) {
	store := &mockSnapshotStore{}
	router := setupSnapshotRouter(store)

	req := httptest.NewRequest("POST", "/snapshot/restore?confirm=true", strings.NewReader(`{"items": "nope"`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if store.restored != nil {
		t.Error("malformed document must not mutate anything")
	}
}
