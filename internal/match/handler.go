package match

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pabg92/astralabs-sub005/internal/ai"
	"github.com/pabg92/astralabs-sub005/internal/domain"
	"github.com/pabg92/astralabs-sub005/pkg/httpx"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

type matchRequest struct {
	Text                string             `json:"text"`
	PATContext          *domain.PATContext `json:"pat_context"`
	RecordResult        bool               `json:"record_result"`
	SimilarityThreshold float64            `json:"similarity_threshold"`
	MaxResults          int                `json:"max_results"`
}

// HandleMatch reconciles one clause: POST /api/v1/match.
func (h *Handler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httpx.WriteError(w, 400, "VALIDATION", "text is required", nil)
		return
	}
	if req.PATContext != nil {
		if strings.TrimSpace(req.PATContext.TermCategory) == "" || strings.TrimSpace(req.PATContext.ExpectedValue) == "" {
			httpx.WriteError(w, 400, "VALIDATION", "pat_context requires term_category and expected_value", nil)
			return
		}
	}

	tenantID := httpx.TenantFromContext(r.Context())
	result, err := h.engine.Match(r.Context(), tenantID, Input{
		Text:                req.Text,
		PAT:                 req.PATContext,
		RecordResult:        req.RecordResult,
		SimilarityThreshold: req.SimilarityThreshold,
		MaxResults:          req.MaxResults,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownTermCategory):
			httpx.WriteError(w, 400, "VALIDATION", err.Error(), nil)
		case errors.Is(err, ai.ErrUnavailable):
			httpx.WriteError(w, 503, "AI_UNAVAILABLE", "ai capability is not configured or unreachable", nil)
		case errors.Is(err, ErrAICall):
			httpx.WriteError(w, 502, "AI_ERROR", err.Error(), nil)
		default:
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		}
		return
	}

	resp := map[string]any{
		"request_id":           httpx.NewRequestID(),
		"all_matches":          result.AllMatches,
		"resolved_match":       result.ResolvedMatch,
		"rag_library":          result.RAGLibrary,
		"rag_final":            result.RAGFinal,
		"pat_override_applied": result.PATOverrideApplied,
		"escalation_needed":    result.EscalationNeeded,
	}
	if result.RAGPat != nil {
		resp["rag_pat"] = *result.RAGPat
	}
	if result.EscalationType != "" {
		resp["escalation_type"] = result.EscalationType
	}
	if result.MatchResultID != "" {
		resp["match_result_id"] = result.MatchResultID
	}
	if result.ReviewEntryID != "" {
		resp["review_entry_id"] = result.ReviewEntryID
	}
	httpx.WriteJSON(w, 200, resp)
}
