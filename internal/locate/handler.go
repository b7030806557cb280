package locate

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pabg92/astralabs-sub005/internal/store"
	"github.com/pabg92/astralabs-sub005/pkg/httpx"
)

type Handler struct {
	locator *Locator
}

func NewHandler(l *Locator) *Handler {
	return &Handler{locator: l}
}

// HandleLocate runs an offset pass over one document:
// POST /api/v1/documents/{document_id}/locate. Pass ?dry_run=true to
// report placements without writing them.
func (h *Handler) HandleLocate(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	if documentID == "" {
		httpx.WriteError(w, 400, "VALIDATION", "document_id is required", nil)
		return
	}
	dryRun := r.URL.Query().Get("dry_run") == "true"

	tenantID := httpx.TenantFromContext(r.Context())
	sum, err := h.locator.Run(r.Context(), tenantID, documentID, dryRun)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, 404, "NOT_FOUND", "document not found", nil)
			return
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"summary":    sum,
	})
}
