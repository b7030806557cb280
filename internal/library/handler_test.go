package library

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pabg92/astralabs-sub005/internal/domain"
	"github.com/pabg92/astralabs-sub005/internal/store"
	"github.com/pabg92/astralabs-sub005/pkg/logger"
)

type fakeLibStore struct {
	entries      []domain.LibraryEntry
	lastCategory string
	lastType     string
}

func (f *fakeLibStore) ListLibraryEntries(ctx context.Context, tenantID, category, clauseType string) ([]domain.LibraryEntry, error) {
	f.lastCategory = category
	f.lastType = clauseType
	return f.entries, nil
}

func (f *fakeLibStore) GetLibraryEntry(ctx context.Context, tenantID, clauseID string) (domain.LibraryEntry, error) {
	for _, e := range f.entries {
		if e.ClauseID == clauseID {
			return e, nil
		}
	}
	return domain.LibraryEntry{}, store.ErrNotFound
}

func newRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/library/entries", h.HandleList)
	r.Get("/library/entries/{clause_id}", h.HandleGet)
	return r
}

func get(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(context.WithValue(req.Context(), logger.TenantKey, "t1"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListPassesFilters(t *testing.T) {
	st := &fakeLibStore{entries: []domain.LibraryEntry{{ClauseID: "PAY-001"}}}
	rec := get(t, newRouter(NewHandler(st)), "/library/entries?category=payment&clause_type=payment_terms")
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if st.lastCategory != "payment" || st.lastType != "payment_terms" {
		t.Fatalf("filters not forwarded: %q %q", st.lastCategory, st.lastType)
	}
}

func TestListEmptyIsArrayNotNull(t *testing.T) {
	rec := get(t, newRouter(NewHandler(&fakeLibStore{})), "/library/entries")
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Entries []domain.LibraryEntry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if resp.Entries == nil {
		t.Fatalf("entries must be an empty array")
	}
}

func TestGetEntry(t *testing.T) {
	st := &fakeLibStore{entries: []domain.LibraryEntry{{ClauseID: "PAY-001", Category: "payment"}}}
	rec := get(t, newRouter(NewHandler(st)), "/library/entries/PAY-001")
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Entry domain.LibraryEntry `json:"entry"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Entry.ClauseID != "PAY-001" {
		t.Fatalf("wrong entry: %+v", resp.Entry)
	}
}

func TestGetEntryNotFound(t *testing.T) {
	rec := get(t, newRouter(NewHandler(&fakeLibStore{})), "/library/entries/NOPE-9")
	if rec.Code != 404 {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
