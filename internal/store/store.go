// Package store is the PostgreSQL data-access layer. Every query is
// scoped by tenant; tenant isolation is enforced here uniformly rather
// than in the engine.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pabg92/astralabs-sub005/internal/domain"
	"github.com/pabg92/astralabs-sub005/pkg/rag"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrClauseExists    = errors.New("clause id already exists in the library")
	ErrAlreadyResolved = errors.New("review item is no longer pending")
)

const pgUniqueViolation = "23505"

type Store struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// --- library ---

func (s *Store) ListLibraryEntries(ctx context.Context, tenantID, category, clauseType string) ([]domain.LibraryEntry, error) {
	q := `SELECT clause_id,category,clause_type,standard_text,risk_level,required,tags,version,
parent_clause_id,variation_letter,plain_english_summary,source_review_id,approval_score,factual_score,is_new,created_at
FROM library_entries WHERE tenant_id=$1`
	args := []any{tenantID}
	if category != "" {
		args = append(args, category)
		q += fmt.Sprintf(" AND category=$%d", len(args))
	}
	if clauseType != "" {
		args = append(args, clauseType)
		q += fmt.Sprintf(" AND clause_type=$%d", len(args))
	}
	q += " ORDER BY clause_id"

	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.LibraryEntry
	for rows.Next() {
		var e domain.LibraryEntry
		if err := rows.Scan(&e.ClauseID, &e.Category, &e.ClauseType, &e.StandardText, &e.RiskLevel, &e.Required,
			&e.Tags, &e.Version, &e.ParentClauseID, &e.VariationLetter, &e.PlainEnglishSummary,
			&e.SourceReviewID, &e.ApprovalScore, &e.FactualScore, &e.IsNew, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetLibraryEntry(ctx context.Context, tenantID, clauseID string) (domain.LibraryEntry, error) {
	var e domain.LibraryEntry
	err := s.DB.QueryRow(ctx, `
SELECT clause_id,category,clause_type,standard_text,risk_level,required,tags,version,
parent_clause_id,variation_letter,plain_english_summary,source_review_id,approval_score,factual_score,is_new,created_at
FROM library_entries WHERE tenant_id=$1 AND clause_id=$2
`, tenantID, clauseID).Scan(&e.ClauseID, &e.Category, &e.ClauseType, &e.StandardText, &e.RiskLevel, &e.Required,
		&e.Tags, &e.Version, &e.ParentClauseID, &e.VariationLetter, &e.PlainEnglishSummary,
		&e.SourceReviewID, &e.ApprovalScore, &e.FactualScore, &e.IsNew, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LibraryEntry{}, ErrNotFound
		}
		return domain.LibraryEntry{}, err
	}
	return e, nil
}

// ListLibraryVectors loads the slim projection used for similarity
// ranking. Entries without an embedding cannot be ranked and are skipped.
func (s *Store) ListLibraryVectors(ctx context.Context, tenantID string) ([]domain.LibraryVector, error) {
	rows, err := s.DB.Query(ctx, `
SELECT clause_id,category,clause_type,risk_level,embedding
FROM library_entries
WHERE tenant_id=$1 AND embedding IS NOT NULL
`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.LibraryVector
	for rows.Next() {
		var v domain.LibraryVector
		if err := rows.Scan(&v.ClauseID, &v.Category, &v.ClauseType, &v.RiskLevel, &v.Embedding); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) LibraryEntryExists(ctx context.Context, tenantID, clauseID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
SELECT EXISTS(SELECT 1 FROM library_entries WHERE tenant_id=$1 AND clause_id=$2)
`, tenantID, clauseID).Scan(&exists)
	return exists, err
}

func (s *Store) InsertLibraryEntry(ctx context.Context, tenantID string, e domain.LibraryEntry) error {
	_, err := s.DB.Exec(ctx, `
INSERT INTO library_entries(
  tenant_id,clause_id,category,clause_type,standard_text,risk_level,required,tags,version,
  parent_clause_id,variation_letter,plain_english_summary,embedding,source_review_id,
  approval_score,factual_score,is_new
)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
`, tenantID, e.ClauseID, e.Category, e.ClauseType, e.StandardText, e.RiskLevel, e.Required, e.Tags, e.Version,
		e.ParentClauseID, e.VariationLetter, e.PlainEnglishSummary, e.Embedding, e.SourceReviewID,
		e.ApprovalScore, e.FactualScore, e.IsNew)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrClauseExists
		}
		return err
	}
	return nil
}

// --- match results ---

func (s *Store) InsertMatchResult(ctx context.Context, tenantID, id, clauseText string, mr domain.MatchResult) error {
	candidates, err := json.Marshal(mr.AllMatches)
	if err != nil {
		return err
	}
	var resolvedID *string
	var score float64
	if mr.ResolvedMatch != nil {
		resolvedID = &mr.ResolvedMatch.ClauseID
		score = mr.ResolvedMatch.Score
	}
	_, err = s.DB.Exec(ctx, `
INSERT INTO match_results(
  match_result_id,tenant_id,clause_text,resolved_clause_id,similarity_score,
  rag_library,rag_pat,rag_final,pat_override_applied,escalation_needed,escalation_type,candidates
)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12::jsonb)
`, id, tenantID, clauseText, resolvedID, score,
		string(mr.RAGLibrary), ragPtr(mr.RAGPat), string(mr.RAGFinal), mr.PATOverrideApplied,
		mr.EscalationNeeded, nullable(mr.EscalationType), string(candidates))
	return err
}

// --- review queue ---

func (s *Store) InsertReviewItem(ctx context.Context, tenantID, id, clauseText string, meta domain.QueueMetadata) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
INSERT INTO review_queue(review_queue_id,tenant_id,clause_text,metadata,status)
VALUES($1,$2,$3,$4::jsonb,'pending')
`, id, tenantID, clauseText, string(metaJSON))
	return err
}

func (s *Store) GetReviewItem(ctx context.Context, tenantID, id string) (domain.ReviewQueueItem, error) {
	var it domain.ReviewQueueItem
	var metaJSON []byte
	err := s.DB.QueryRow(ctx, `
SELECT review_queue_id,clause_text,metadata,status,resolution_action,reviewer,resolution_reason,created_at,resolved_at
FROM review_queue WHERE tenant_id=$1 AND review_queue_id=$2
`, tenantID, id).Scan(&it.ReviewQueueID, &it.ClauseText, &metaJSON, &it.Status,
		&it.ResolutionAction, &it.Reviewer, &it.ResolutionReason, &it.CreatedAt, &it.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ReviewQueueItem{}, ErrNotFound
		}
		return domain.ReviewQueueItem{}, err
	}
	if err := json.Unmarshal(metaJSON, &it.Metadata); err != nil {
		return domain.ReviewQueueItem{}, err
	}
	return it, nil
}

// MarkReviewResolved performs the guarded pending->resolved transition.
// The conditional update is the sole source of truth for "at most one
// resolution per item": under concurrent requests exactly one caller sees
// a row affected, the other gets ErrAlreadyResolved.
func (s *Store) MarkReviewResolved(ctx context.Context, tenantID, id, action, reviewer string) error {
	merge, _ := json.Marshal(map[string]string{"reviewer": reviewer})
	tag, err := s.DB.Exec(ctx, `
UPDATE review_queue
SET status='resolved', resolution_action=$3, reviewer=$4,
    metadata = metadata || $5::jsonb, resolved_at=now()
WHERE tenant_id=$1 AND review_queue_id=$2 AND status='pending'
`, tenantID, id, action, reviewer, string(merge))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyResolved
	}
	return nil
}

// MarkReviewRejected performs the guarded pending->rejected transition,
// merging reviewer and reason into the existing metadata.
func (s *Store) MarkReviewRejected(ctx context.Context, tenantID, id, reviewer, reason string) error {
	merge, _ := json.Marshal(map[string]string{"reviewer": reviewer, "rejection_reason": reason})
	tag, err := s.DB.Exec(ctx, `
UPDATE review_queue
SET status='rejected', reviewer=$3, resolution_reason=$4,
    metadata = metadata || $5::jsonb, resolved_at=now()
WHERE tenant_id=$1 AND review_queue_id=$2 AND status='pending'
`, tenantID, id, reviewer, reason, string(merge))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyResolved
	}
	return nil
}

func (s *Store) ListPendingReview(ctx context.Context, tenantID string, limit int) ([]domain.ReviewQueueItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx, `
SELECT review_queue_id,clause_text,metadata,status,resolution_action,reviewer,resolution_reason,created_at,resolved_at
FROM review_queue
WHERE tenant_id=$1 AND status='pending'
ORDER BY CASE metadata->>'priority'
  WHEN 'critical' THEN 0
  WHEN 'high' THEN 1
  WHEN 'medium' THEN 2
  WHEN 'low' THEN 3
  ELSE 4 END,
  created_at ASC
LIMIT $2
`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.ReviewQueueItem
	for rows.Next() {
		var it domain.ReviewQueueItem
		var metaJSON []byte
		if err := rows.Scan(&it.ReviewQueueID, &it.ClauseText, &metaJSON, &it.Status,
			&it.ResolutionAction, &it.Reviewer, &it.ResolutionReason, &it.CreatedAt, &it.ResolvedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaJSON, &it.Metadata); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// --- documents / clauses ---

func (s *Store) GetDocument(ctx context.Context, tenantID, documentID string) (domain.Document, error) {
	var d domain.Document
	err := s.DB.QueryRow(ctx, `
SELECT document_id,filename,text_key,created_at
FROM documents WHERE tenant_id=$1 AND document_id=$2
`, tenantID, documentID).Scan(&d.DocumentID, &d.Filename, &d.TextKey, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Document{}, ErrNotFound
		}
		return domain.Document{}, err
	}
	return d, nil
}

func (s *Store) ListDocumentIDs(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT document_id FROM documents WHERE tenant_id=$1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ListClauses returns a document's clauses in extraction order; offsets,
// once set, are monotonically non-decreasing in that order.
func (s *Store) ListClauses(ctx context.Context, tenantID, documentID string) ([]domain.Clause, error) {
	rows, err := s.DB.Query(ctx, `
SELECT clause_id,document_id,content,clause_type,sequence,start_offset,end_offset,created_at
FROM clauses WHERE tenant_id=$1 AND document_id=$2
ORDER BY sequence ASC
`, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Clause
	for rows.Next() {
		var c domain.Clause
		if err := rows.Scan(&c.ClauseID, &c.DocumentID, &c.Content, &c.ClauseType, &c.Sequence,
			&c.StartOffset, &c.EndOffset, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateClauseOffsets(ctx context.Context, tenantID, clauseID string, start, end int) error {
	_, err := s.DB.Exec(ctx, `
UPDATE clauses SET start_offset=$3, end_offset=$4 WHERE tenant_id=$1 AND clause_id=$2
`, tenantID, clauseID, start, end)
	return err
}

func ragPtr(r *rag.RAG) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
