// Package domain holds the core data model of the reconciliation engine:
// clauses, library entries, match candidates and results, pre-agreed term
// contexts and review queue items.
package domain

import (
	"time"

	"github.com/pabg92/astralabs-sub005/pkg/rag"
)

// Clause is a contiguous span of contract text extracted from one
// document. Offsets stay nil until located; once set they are never
// mutated except by the offset backfill.
type Clause struct {
	ClauseID    string    `json:"clause_id"`
	DocumentID  string    `json:"document_id"`
	Content     string    `json:"content"`
	ClauseType  string    `json:"clause_type"`
	Sequence    int       `json:"sequence"`
	StartOffset *int      `json:"start_offset"`
	EndOffset   *int      `json:"end_offset"`
	CreatedAt   time.Time `json:"created_at"`
}

// Document references one ingested contract and the object-storage key of
// its extracted full text.
type Document struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	TextKey    string    `json:"text_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// LibraryEntry is a canonical clause in the Legal Clause Library,
// optionally a variant of a parent entry.
type LibraryEntry struct {
	ClauseID            string    `json:"clause_id"`
	Category            string    `json:"category"`
	ClauseType          string    `json:"clause_type"`
	StandardText        string    `json:"standard_text"`
	RiskLevel           string    `json:"risk_level"`
	Required            bool      `json:"required"`
	Tags                []string  `json:"tags"`
	Version             int       `json:"version"`
	ParentClauseID      *string   `json:"parent_clause_id,omitempty"`
	VariationLetter     string    `json:"variation_letter"`
	PlainEnglishSummary string    `json:"plain_english_summary,omitempty"`
	Embedding           []float32 `json:"-"`
	SourceReviewID      *string   `json:"source_review_id,omitempty"`
	ApprovalScore       *float64  `json:"approval_score,omitempty"`
	FactualScore        *float64  `json:"factual_score,omitempty"`
	IsNew               bool      `json:"is_new"`
	CreatedAt           time.Time `json:"created_at"`
}

// LibraryVector is the slim projection used for similarity ranking.
type LibraryVector struct {
	ClauseID   string
	Category   string
	ClauseType string
	RiskLevel  string
	Embedding  []float32
}

// MatchCandidate is one scored comparison between a clause and a library
// entry.
type MatchCandidate struct {
	ClauseID   string  `json:"clause_id"`
	Category   string  `json:"category"`
	ClauseType string  `json:"clause_type"`
	RiskLevel  string  `json:"risk_level"`
	Score      float64 `json:"score"`
	RAG        rag.RAG `json:"rag"`
}

// PATContext is a deal-specific expectation passed in per request, never
// persisted by the engine.
type PATContext struct {
	TermCategory  string `json:"term_category"`
	ExpectedValue string `json:"expected_value"`
	IsMandatory   *bool  `json:"is_mandatory"`
}

// Mandatory defaults to true when the flag is omitted.
func (p PATContext) Mandatory() bool {
	return p.IsMandatory == nil || *p.IsMandatory
}

// Escalation types. A zero-candidate match is a harder condition than a
// low-confidence one and travels under its own type.
const (
	EscalationNoMatch       = "no_match"
	EscalationLowConfidence = "low_confidence"
)

// MatchResult is the outcome of one reconciliation.
type MatchResult struct {
	MatchResultID      string           `json:"match_result_id,omitempty"`
	AllMatches         []MatchCandidate `json:"all_matches"`
	ResolvedMatch      *MatchCandidate  `json:"resolved_match"`
	RAGLibrary         rag.RAG          `json:"rag_library"`
	RAGPat             *rag.RAG         `json:"rag_pat,omitempty"`
	RAGFinal           rag.RAG          `json:"rag_final"`
	PATOverrideApplied bool             `json:"pat_override_applied"`
	EscalationNeeded   bool             `json:"escalation_needed"`
	EscalationType     string           `json:"escalation_type,omitempty"`
	ReviewEntryID      string           `json:"review_entry_id,omitempty"`
}

// Review queue statuses and resolution actions.
const (
	ReviewStatusPending  = "pending"
	ReviewStatusResolved = "resolved"
	ReviewStatusRejected = "rejected"

	ReviewActionAddNew     = "add_new"
	ReviewActionAddVariant = "add_variant"
)

// QueueMetadata carries the provenance captured at escalation time; on
// acceptance it is copied onto the new library entry.
type QueueMetadata struct {
	Embedding       []float32    `json:"embedding,omitempty"`
	SimilarityScore float64      `json:"similarity_score"`
	ClauseType      string       `json:"clause_type,omitempty"`
	FactualScore    *float64     `json:"factual_score,omitempty"`
	Priority        rag.Priority `json:"priority,omitempty"`
	Reviewer        string       `json:"reviewer,omitempty"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
}

// ReviewQueueItem is a unit of required human judgment. Transitions are
// one-way and terminal: pending -> resolved or pending -> rejected.
type ReviewQueueItem struct {
	ReviewQueueID    string        `json:"review_queue_id"`
	ClauseText       string        `json:"clause_text"`
	Metadata         QueueMetadata `json:"metadata"`
	Status           string        `json:"status"`
	ResolutionAction *string       `json:"resolution_action,omitempty"`
	Reviewer         *string       `json:"reviewer,omitempty"`
	ResolutionReason *string       `json:"resolution_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	ResolvedAt       *time.Time    `json:"resolved_at,omitempty"`
}
