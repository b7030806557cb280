// Package library exposes read access to the Legal Clause Library.
// Writes happen only through review acceptance.
package library

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pabg92/astralabs-sub005/internal/domain"
	"github.com/pabg92/astralabs-sub005/internal/store"
	"github.com/pabg92/astralabs-sub005/pkg/httpx"
)

type Store interface {
	ListLibraryEntries(ctx context.Context, tenantID, category, clauseType string) ([]domain.LibraryEntry, error)
	GetLibraryEntry(ctx context.Context, tenantID, clauseID string) (domain.LibraryEntry, error)
}

type Handler struct {
	store Store
}

func NewHandler(st Store) *Handler {
	return &Handler{store: st}
}

// HandleList lists library entries with optional category and clause_type
// filters: GET /api/v1/library/entries.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID := httpx.TenantFromContext(r.Context())
	entries, err := h.store.ListLibraryEntries(r.Context(), tenantID, q.Get("category"), q.Get("clause_type"))
	if err != nil {
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	if entries == nil {
		entries = []domain.LibraryEntry{}
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"entries":    entries,
	})
}

// HandleGet fetches one entry: GET /api/v1/library/entries/{clause_id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	clauseID := chi.URLParam(r, "clause_id")
	if clauseID == "" {
		httpx.WriteError(w, 400, "VALIDATION", "clause_id is required", nil)
		return
	}
	tenantID := httpx.TenantFromContext(r.Context())
	entry, err := h.store.GetLibraryEntry(r.Context(), tenantID, clauseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, 404, "NOT_FOUND", "library entry not found", nil)
			return
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"entry":      entry,
	})
}
