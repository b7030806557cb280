// Package match implements clause reconciliation: similarity ranking
// against the clause library, pre-agreed term overrides, verdict
// aggregation and escalation into the review queue.
package match

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/pabg92/astralabs-sub005/internal/ai"
	"github.com/pabg92/astralabs-sub005/internal/domain"
	"github.com/pabg92/astralabs-sub005/pkg/rag"
)

var (
	// ErrUnknownTermCategory marks a pat_context whose category is not in
	// the static registry; a boundary validation failure.
	ErrUnknownTermCategory = errors.New("unknown term category")

	// ErrAICall wraps failures of the external AI capability so the
	// boundary can map them to 502 instead of a generic 500.
	ErrAICall = errors.New("ai call failed")
)

// Identity-term scores. Exact presence is full confidence; a hit only
// after loose normalization is partial.
const (
	identityExactScore   = 1.0
	identityPartialScore = 0.7
)

type Store interface {
	ListLibraryVectors(ctx context.Context, tenantID string) ([]domain.LibraryVector, error)
	InsertMatchResult(ctx context.Context, tenantID, id, clauseText string, mr domain.MatchResult) error
	InsertReviewItem(ctx context.Context, tenantID, id, clauseText string, meta domain.QueueMetadata) error
}

type AI interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	CompareTerm(ctx context.Context, clauseText, termCategory, expectedValue string) (ai.TermComparison, error)
}

// Options carry the configured thresholds; zero values select the
// package defaults from pkg/rag.
type Options struct {
	GreenThreshold  float64
	ReviewThreshold float64
	MaxResults      int
}

type Engine struct {
	store Store
	ai    AI
	opts  Options
}

func NewEngine(store Store, aiClient AI, opts Options) *Engine {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	return &Engine{store: store, ai: aiClient, opts: opts}
}

// Input is one reconciliation request. Text must be validated non-empty
// at the boundary before it reaches the engine.
type Input struct {
	Text                string
	PAT                 *domain.PATContext
	RecordResult        bool
	SimilarityThreshold float64
	MaxResults          int
}

// Match reconciles one clause against the library and the optional
// pre-agreed term, escalating to the review queue when confidence is
// insufficient.
func (e *Engine) Match(ctx context.Context, tenantID string, in Input) (domain.MatchResult, error) {
	embedding, err := e.ai.Embed(ctx, in.Text)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			return domain.MatchResult{}, err
		}
		return domain.MatchResult{}, errors.Join(ErrAICall, fmt.Errorf("embed: %w", err))
	}

	vectors, err := e.store.ListLibraryVectors(ctx, tenantID)
	if err != nil {
		return domain.MatchResult{}, err
	}

	candidates := rank(embedding, vectors, e.greenThreshold(in))

	maxResults := in.MaxResults
	if maxResults <= 0 {
		maxResults = e.opts.MaxResults
	}

	result := domain.MatchResult{}
	if len(candidates) > maxResults {
		result.AllMatches = candidates[:maxResults]
	} else {
		result.AllMatches = candidates
	}

	topScore := 0.0
	result.RAGLibrary = rag.Red
	if len(candidates) > 0 {
		top := candidates[0]
		result.ResolvedMatch = &top
		result.RAGLibrary = top.RAG
		topScore = top.Score
	}

	result.RAGFinal = result.RAGLibrary
	if in.PAT != nil {
		ragPat, err := e.resolveTerm(ctx, in.Text, *in.PAT)
		if err != nil {
			return domain.MatchResult{}, err
		}
		result.RAGPat = &ragPat
		result.PATOverrideApplied = ragPat != result.RAGLibrary
		result.RAGFinal = rag.FinalRAG(result.RAGLibrary, ragPat)
	}

	switch {
	case len(candidates) == 0:
		result.EscalationNeeded = true
		result.EscalationType = domain.EscalationNoMatch
	case rag.NeedsReview(topScore, e.opts.ReviewThreshold):
		result.EscalationNeeded = true
		result.EscalationType = domain.EscalationLowConfidence
	}

	if result.EscalationNeeded {
		meta := domain.QueueMetadata{
			Embedding:       embedding,
			SimilarityScore: topScore,
			Priority:        rag.ReviewPriority(topScore),
		}
		if result.ResolvedMatch != nil {
			meta.ClauseType = result.ResolvedMatch.ClauseType
		}
		reviewID := "rq_" + uuid.NewString()
		if err := e.store.InsertReviewItem(ctx, tenantID, reviewID, in.Text, meta); err != nil {
			return domain.MatchResult{}, err
		}
		result.ReviewEntryID = reviewID
	}

	if in.RecordResult {
		result.MatchResultID = "mr_" + uuid.NewString()
		if err := e.store.InsertMatchResult(ctx, tenantID, result.MatchResultID, in.Text, result); err != nil {
			return domain.MatchResult{}, err
		}
	}

	return result, nil
}

func (e *Engine) greenThreshold(in Input) float64 {
	if in.SimilarityThreshold > 0 {
		return in.SimilarityThreshold
	}
	return e.opts.GreenThreshold
}

// rank scores every library vector against the clause embedding and
// orders candidates by descending similarity. The full ranking is always
// computed; callers truncate after ranking so the top-1 decision is
// unaffected by any result cap.
func rank(embedding []float32, vectors []domain.LibraryVector, greenThreshold float64) []domain.MatchCandidate {
	candidates := make([]domain.MatchCandidate, 0, len(vectors))
	for _, v := range vectors {
		score, ok := cosine(embedding, v.Embedding)
		if !ok {
			continue
		}
		candidates = append(candidates, domain.MatchCandidate{
			ClauseID:   v.ClauseID,
			Category:   v.Category,
			ClauseType: v.ClauseType,
			RiskLevel:  v.RiskLevel,
			Score:      score,
			RAG:        rag.Classify(score, greenThreshold),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	return candidates
}

// cosine returns the cosine similarity of two vectors, clamped to [0,1].
// Mismatched dimensionality is a data error: the candidate is skipped,
// never scored.
func cosine(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, true
}

// resolveTerm re-evaluates the clause against one pre-agreed term,
// producing a term-level classification capable of overriding the
// library verdict. The single-term fold applies the mandatory rule:
// a red on a non-mandatory term surfaces as amber.
func (e *Engine) resolveTerm(ctx context.Context, clauseText string, pat domain.PATContext) (rag.RAG, error) {
	kind, ok := domain.TermKindFor(pat.TermCategory)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTermCategory, pat.TermCategory)
	}

	var termRAG rag.RAG
	switch kind {
	case domain.TermIdentity:
		termRAG, _ = identityCheck(clauseText, pat.ExpectedValue)
	default:
		cmp, err := e.ai.CompareTerm(ctx, clauseText, pat.TermCategory, pat.ExpectedValue)
		if err != nil {
			if errors.Is(err, ai.ErrUnavailable) {
				return "", err
			}
			return "", errors.Join(ErrAICall, fmt.Errorf("compare term: %w", err))
		}
		termRAG = semanticRAG(cmp)
	}

	return rag.ClauseRAG([]rag.TermResult{{RAG: termRAG, Mandatory: pat.Mandatory()}}), nil
}

// identityCheck is the deterministic path for party-name terms: never
// calls the language model.
func identityCheck(clauseText, expected string) (rag.RAG, float64) {
	expected = strings.TrimSpace(expected)
	if expected == "" {
		return rag.Red, 0
	}
	if strings.Contains(strings.ToLower(clauseText), strings.ToLower(expected)) {
		return rag.Green, identityExactScore
	}
	if strings.Contains(looseNormalize(clauseText), looseNormalize(expected)) {
		return rag.Amber, identityPartialScore
	}
	return rag.Red, 0
}

func semanticRAG(cmp ai.TermComparison) rag.RAG {
	switch {
	case cmp.Matches && cmp.Severity == ai.SeverityNone:
		return rag.Green
	case cmp.Matches && cmp.Severity == ai.SeverityMinor:
		return rag.Amber
	default:
		return rag.Red
	}
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// looseNormalize lowercases, strips punctuation and collapses whitespace,
// so "Acme, Inc." still matches "ACME Inc".
func looseNormalize(s string) string {
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Join(strings.Fields(s), " ")
}
