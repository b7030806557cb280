package locate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pabg92/astralabs-sub005/internal/domain"
	"github.com/pabg92/astralabs-sub005/internal/store"
	"github.com/pabg92/astralabs-sub005/pkg/logger"
)

type fakeLocStore struct {
	doc     domain.Document
	docErr  error
	clauses []domain.Clause

	updates map[string][2]int
}

func (f *fakeLocStore) GetDocument(ctx context.Context, tenantID, documentID string) (domain.Document, error) {
	if f.docErr != nil {
		return domain.Document{}, f.docErr
	}
	return f.doc, nil
}

func (f *fakeLocStore) ListClauses(ctx context.Context, tenantID, documentID string) ([]domain.Clause, error) {
	return f.clauses, nil
}

func (f *fakeLocStore) UpdateClauseOffsets(ctx context.Context, tenantID, clauseID string, start, end int) error {
	if f.updates == nil {
		f.updates = map[string][2]int{}
	}
	f.updates[clauseID] = [2]int{start, end}
	return nil
}

type fakeText struct {
	text string
}

func (f *fakeText) DocumentText(ctx context.Context, key string) (string, error) {
	return f.text, nil
}

const sampleDoc = "Preamble text here. The Client shall pay within 30 days. " +
	"Middle filler. The Talent grants exclusive rights in the Territory. End."

func TestRunLocatesInOrder(t *testing.T) {
	st := &fakeLocStore{
		doc: domain.Document{DocumentID: "doc_1", TextKey: "doc_1.txt"},
		clauses: []domain.Clause{
			{ClauseID: "c1", Content: "The Client shall pay within 30 days.", Sequence: 1},
			{ClauseID: "c2", Content: "The Talent grants exclusive rights in the Territory.", Sequence: 2},
		},
	}
	l := New(st, &fakeText{text: sampleDoc})

	sum, err := l.Run(context.Background(), "t1", "doc_1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Total != 2 || sum.Located != 2 || sum.Missed != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	s1, s2 := st.updates["c1"], st.updates["c2"]
	if s1[0] >= s1[1] || s2[0] >= s2[1] {
		t.Fatalf("degenerate spans: %v %v", s1, s2)
	}
	if s2[0] < s1[1] {
		t.Fatalf("spans must be monotonic: %v then %v", s1, s2)
	}
	if got := sampleDoc[s1[0]:s1[1]]; got != "The Client shall pay within 30 days." {
		t.Fatalf("span does not cover clause: %q", got)
	}
}

func TestRunSkipsAlreadyOffset(t *testing.T) {
	start, end := 20, 57
	st := &fakeLocStore{
		doc: domain.Document{TextKey: "k"},
		clauses: []domain.Clause{
			{ClauseID: "c1", Content: "The Client shall pay within 30 days.", StartOffset: &start, EndOffset: &end},
			{ClauseID: "c2", Content: "The Talent grants exclusive rights in the Territory."},
		},
	}
	l := New(st, &fakeText{text: sampleDoc})

	sum, err := l.Run(context.Background(), "t1", "doc_1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Skipped != 1 || sum.Located != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if _, touched := st.updates["c1"]; touched {
		t.Fatalf("existing offsets must not be rewritten")
	}
	if s2 := st.updates["c2"]; s2[0] < end {
		t.Fatalf("cursor must advance past skipped clause: %v", s2)
	}
}

func TestRunMissContinues(t *testing.T) {
	st := &fakeLocStore{
		doc: domain.Document{TextKey: "k"},
		clauses: []domain.Clause{
			{ClauseID: "c1", Content: "This clause appears nowhere in the document text at all."},
			{ClauseID: "c2", Content: "The Talent grants exclusive rights in the Territory."},
		},
	}
	l := New(st, &fakeText{text: sampleDoc})

	sum, err := l.Run(context.Background(), "t1", "doc_1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Missed != 1 || sum.Located != 1 {
		t.Fatalf("a miss must not block later clauses: %+v", sum)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	st := &fakeLocStore{
		doc:     domain.Document{TextKey: "k"},
		clauses: []domain.Clause{{ClauseID: "c1", Content: "The Client shall pay within 30 days."}},
	}
	l := New(st, &fakeText{text: sampleDoc})

	sum, err := l.Run(context.Background(), "t1", "doc_1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Located != 1 || !sum.DryRun {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if len(st.updates) != 0 {
		t.Fatalf("dry run must not write offsets")
	}
}

func TestHandleLocateNotFound(t *testing.T) {
	st := &fakeLocStore{docErr: store.ErrNotFound}
	h := NewHandler(New(st, &fakeText{}))

	r := chi.NewRouter()
	r.Post("/documents/{document_id}/locate", h.HandleLocate)

	req := httptest.NewRequest(http.MethodPost, "/documents/doc_missing/locate", nil)
	req = req.WithContext(context.WithValue(req.Context(), logger.TenantKey, "t1"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != 404 {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
