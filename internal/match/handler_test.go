package match

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pabg92/astralabs-sub005/internal/ai"
	"github.com/pabg92/astralabs-sub005/internal/domain"
	"github.com/pabg92/astralabs-sub005/pkg/logger"
)

func doMatch(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/match", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), logger.TenantKey, "t1"))
	rec := httptest.NewRecorder()
	h.HandleMatch(rec, req)
	return rec
}

func TestHandleMatchEmptyText(t *testing.T) {
	h := NewHandler(newTestEngine(&fakeStore{}, &fakeAI{embedding: []float32{1}}))
	rec := doMatch(t, h, `{"text":"   "}`)
	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleMatchUnknownField(t *testing.T) {
	h := NewHandler(newTestEngine(&fakeStore{}, &fakeAI{embedding: []float32{1}}))
	rec := doMatch(t, h, `{"text":"x","bogus":true}`)
	if rec.Code != 400 {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestHandleMatchAIUnavailable(t *testing.T) {
	h := NewHandler(newTestEngine(&fakeStore{}, &fakeAI{embedErr: ai.ErrUnavailable}))
	rec := doMatch(t, h, `{"text":"a clause"}`)
	if rec.Code != 503 {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHandleMatchSuccessShape(t *testing.T) {
	st := &fakeStore{vectors: []domain.LibraryVector{
		{ClauseID: "PAY-001", ClauseType: "payment", Embedding: []float32{1, 0, 0}},
	}}
	h := NewHandler(newTestEngine(st, &fakeAI{embedding: []float32{1, 0, 0}}))

	rec := doMatch(t, h, `{"text":"payment clause"}`)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if resp["rag_library"] != "green" || resp["rag_final"] != "green" {
		t.Fatalf("unexpected verdicts: %v", resp)
	}
	if resp["escalation_needed"] != false {
		t.Fatalf("expected no escalation: %v", resp)
	}
	if _, ok := resp["rag_pat"]; ok {
		t.Fatalf("rag_pat must be absent without a pat_context")
	}
	if _, ok := resp["resolved_match"]; !ok {
		t.Fatalf("resolved_match missing")
	}
}

func TestHandleMatchPATOverrideOnWire(t *testing.T) {
	st := &fakeStore{vectors: []domain.LibraryVector{
		{ClauseID: "PAY-001", ClauseType: "payment", Embedding: []float32{1, 0, 0}},
	}}
	a := &fakeAI{embedding: []float32{1, 0, 0}, cmp: ai.TermComparison{Matches: false, Severity: ai.SeverityMajor}}
	h := NewHandler(newTestEngine(st, a))

	rec := doMatch(t, h, `{"text":"payment clause","pat_context":{"term_category":"payment_terms","expected_value":"net 30"}}`)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["rag_pat"] != "red" || resp["rag_final"] != "red" {
		t.Fatalf("unexpected verdicts: %v", resp)
	}
	if resp["pat_override_applied"] != true {
		t.Fatalf("expected override applied: %v", resp)
	}
}
