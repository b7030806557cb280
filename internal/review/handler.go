// Package review implements the human review queue lifecycle. Items are
// created by the match engine; the only way out of the queue is one of
// the two terminal resolutions here, and acceptance mutates the canonical
// clause library.
package review

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/pabg92/astralabs-sub005/internal/domain"
	"github.com/pabg92/astralabs-sub005/internal/store"
	"github.com/pabg92/astralabs-sub005/pkg/httpx"
	"github.com/pabg92/astralabs-sub005/pkg/logger"
)

const headerReviewerID = "X-Reviewer-ID"

type Store interface {
	GetReviewItem(ctx context.Context, tenantID, id string) (domain.ReviewQueueItem, error)
	ListPendingReview(ctx context.Context, tenantID string, limit int) ([]domain.ReviewQueueItem, error)
	LibraryEntryExists(ctx context.Context, tenantID, clauseID string) (bool, error)
	InsertLibraryEntry(ctx context.Context, tenantID string, e domain.LibraryEntry) error
	MarkReviewResolved(ctx context.Context, tenantID, id, action, reviewer string) error
	MarkReviewRejected(ctx context.Context, tenantID, id, reviewer, reason string) error
}

type Handler struct {
	store Store
}

func NewHandler(st Store) *Handler {
	return &Handler{store: st}
}

type acceptRequest struct {
	ReviewQueueID       string   `json:"review_queue_id"`
	ClauseID            string   `json:"clause_id"`
	Action              string   `json:"action"`
	ParentClauseID      *string  `json:"parent_clause_id"`
	VariationLetter     string   `json:"variation_letter"`
	Category            string   `json:"category"`
	RiskLevel           string   `json:"risk_level"`
	PlainEnglishSummary string   `json:"plain_english_summary"`
	Tags                []string `json:"tags"`
}

// HandleAccept closes a pending item by adding its clause to the library:
// POST /api/v1/review/accept.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	reviewer := strings.TrimSpace(r.Header.Get(headerReviewerID))
	switch {
	case strings.TrimSpace(req.ReviewQueueID) == "":
		httpx.WriteError(w, 400, "VALIDATION", "review_queue_id is required", nil)
		return
	case strings.TrimSpace(req.ClauseID) == "":
		httpx.WriteError(w, 400, "VALIDATION", "clause_id is required", nil)
		return
	case req.Action != domain.ReviewActionAddNew && req.Action != domain.ReviewActionAddVariant:
		httpx.WriteError(w, 400, "VALIDATION", `action must be "add_new" or "add_variant"`, nil)
		return
	case reviewer == "":
		httpx.WriteError(w, 400, "VALIDATION", "missing "+headerReviewerID+" header", nil)
		return
	}

	ctx := r.Context()
	tenantID := httpx.TenantFromContext(ctx)

	item, err := h.store.GetReviewItem(ctx, tenantID, req.ReviewQueueID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, 404, "NOT_FOUND", "review queue item not found", nil)
			return
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	if item.Status != domain.ReviewStatusPending {
		httpx.WriteError(w, 409, "ALREADY_RESOLVED", "review queue item is no longer pending", nil)
		return
	}

	exists, err := h.store.LibraryEntryExists(ctx, tenantID, req.ClauseID)
	if err != nil {
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	if exists {
		httpx.WriteError(w, 409, "CLAUSE_EXISTS", "clause id already exists in the library", nil)
		return
	}

	entry := domain.LibraryEntry{
		ClauseID:            req.ClauseID,
		Category:            req.Category,
		ClauseType:          item.Metadata.ClauseType,
		StandardText:        item.ClauseText,
		RiskLevel:           req.RiskLevel,
		Tags:                req.Tags,
		Version:             1,
		VariationLetter:     "a",
		PlainEnglishSummary: req.PlainEnglishSummary,
		Embedding:           item.Metadata.Embedding,
		SourceReviewID:      &item.ReviewQueueID,
		FactualScore:        item.Metadata.FactualScore,
		IsNew:               false,
	}
	if entry.Category == "" {
		entry.Category = "general"
	}
	if entry.RiskLevel == "" {
		entry.RiskLevel = "medium"
	}
	if item.Metadata.SimilarityScore > 0 {
		score := item.Metadata.SimilarityScore
		entry.ApprovalScore = &score
	}

	if req.Action == domain.ReviewActionAddVariant {
		if req.ParentClauseID == nil || strings.TrimSpace(*req.ParentClauseID) == "" {
			httpx.WriteError(w, 400, "VALIDATION", "parent_clause_id is required for add_variant", nil)
			return
		}
		parentExists, err := h.store.LibraryEntryExists(ctx, tenantID, *req.ParentClauseID)
		if err != nil {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
		if !parentExists {
			httpx.WriteError(w, 400, "PARENT_NOT_FOUND", "parent clause does not exist", nil)
			return
		}
		entry.ParentClauseID = req.ParentClauseID
		if req.VariationLetter != "" {
			entry.VariationLetter = req.VariationLetter
		} else {
			entry.VariationLetter = "b"
		}
	}

	if err := h.store.InsertLibraryEntry(ctx, tenantID, entry); err != nil {
		if errors.Is(err, store.ErrClauseExists) {
			httpx.WriteError(w, 409, "CLAUSE_EXISTS", "clause id already exists in the library", nil)
			return
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}

	resp := map[string]any{
		"request_id":      httpx.NewRequestID(),
		"review_queue_id": req.ReviewQueueID,
		"action":          req.Action,
		"library_entry":   entry,
	}

	// The library insert is durable at this point. A lost compare-and-swap
	// means a concurrent resolution won the item: report the conflict. A
	// plain storage failure on this secondary write is a degraded success,
	// not a request failure: surfacing it as an error would invite a retry
	// that hits CLAUSE_EXISTS.
	if err := h.store.MarkReviewResolved(ctx, tenantID, req.ReviewQueueID, req.Action, reviewer); err != nil {
		if errors.Is(err, store.ErrAlreadyResolved) {
			logger.Error(ctx, "library entry inserted but item was resolved concurrently",
				"review_queue_id", req.ReviewQueueID, "clause_id", req.ClauseID)
			httpx.WriteError(w, 409, "ALREADY_RESOLVED", "review queue item was resolved concurrently", nil)
			return
		}
		logger.Error(ctx, "library entry added but review item not marked resolved",
			"review_queue_id", req.ReviewQueueID, "clause_id", req.ClauseID, "error", err)
		resp["warning"] = "library entry created but review item could not be marked resolved"
	}

	httpx.WriteJSON(w, 201, resp)
}

type rejectRequest struct {
	ReviewQueueID string `json:"review_queue_id"`
	Reason        string `json:"reason"`
}

// HandleReject closes a pending item without touching the library:
// POST /api/v1/review/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	reviewer := strings.TrimSpace(r.Header.Get(headerReviewerID))
	switch {
	case strings.TrimSpace(req.ReviewQueueID) == "":
		httpx.WriteError(w, 400, "VALIDATION", "review_queue_id is required", nil)
		return
	case strings.TrimSpace(req.Reason) == "":
		httpx.WriteError(w, 400, "VALIDATION", "reason is required", nil)
		return
	case reviewer == "":
		httpx.WriteError(w, 400, "VALIDATION", "missing "+headerReviewerID+" header", nil)
		return
	}

	ctx := r.Context()
	tenantID := httpx.TenantFromContext(ctx)

	if _, err := h.store.GetReviewItem(ctx, tenantID, req.ReviewQueueID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, 404, "NOT_FOUND", "review queue item not found", nil)
			return
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}

	if err := h.store.MarkReviewRejected(ctx, tenantID, req.ReviewQueueID, reviewer, req.Reason); err != nil {
		if errors.Is(err, store.ErrAlreadyResolved) {
			httpx.WriteError(w, 409, "ALREADY_RESOLVED", "review queue item is no longer pending", nil)
			return
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}

	httpx.WriteJSON(w, 200, map[string]any{
		"request_id":      httpx.NewRequestID(),
		"review_queue_id": req.ReviewQueueID,
		"action":          "rejected",
		"reason":          req.Reason,
	})
}

// HandlePending lists pending items, critical first: GET /api/v1/review/pending.
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httpx.WriteError(w, 400, "VALIDATION", "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}
	tenantID := httpx.TenantFromContext(r.Context())
	items, err := h.store.ListPendingReview(r.Context(), tenantID, limit)
	if err != nil {
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	if items == nil {
		items = []domain.ReviewQueueItem{}
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"items":      items,
	})
}
