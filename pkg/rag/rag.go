// Package rag holds the red/amber/green risk classification and the pure
// decision-table functions that combine per-term, per-clause and library
// results into a single verdict.
package rag

// RAG is the tri-state risk classification, ordered green < amber < red.
type RAG string

const (
	Green RAG = "green"
	Amber RAG = "amber"
	Red   RAG = "red"
)

// Priority orders the human review queue. It does not gate escalation.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Default thresholds. Green/amber classify similarity scores; the review
// threshold gates escalation of low-confidence matches.
const (
	DefaultGreenThreshold  = 0.75
	DefaultAmberThreshold  = 0.60
	DefaultReviewThreshold = 0.85
)

var severity = map[RAG]int{Green: 0, Amber: 1, Red: 2}

// worse returns the higher-severity of two classifications.
func worse(a, b RAG) RAG {
	if severity[b] > severity[a] {
		return b
	}
	return a
}

// Classify maps a similarity score in [0,1] to a classification. A
// non-positive greenThreshold selects the default. The amber floor is
// fixed: per-call overrides shift the green boundary only.
func Classify(score, greenThreshold float64) RAG {
	if greenThreshold <= 0 {
		greenThreshold = DefaultGreenThreshold
	}
	switch {
	case score >= greenThreshold:
		return Green
	case score >= DefaultAmberThreshold:
		return Amber
	default:
		return Red
	}
}

// TermResult is one term comparison feeding the clause-level fold.
type TermResult struct {
	RAG       RAG
	Mandatory bool
}

// ClauseRAG folds term comparisons into a clause-level classification.
// Red on a mandatory term is absorbing. Red on a non-mandatory term only
// downgrades the accumulator to amber, amber downgrades green, and an
// all-green (or empty) input stays green. The fold is order-independent.
func ClauseRAG(terms []TermResult) RAG {
	out := Green
	for _, t := range terms {
		switch {
		case t.RAG == Red && t.Mandatory:
			return Red
		case t.RAG == Red:
			out = worse(out, Amber)
		case t.RAG == Amber:
			out = worse(out, Amber)
		}
	}
	return out
}

// FinalRAG combines two classifications: red if either is red, green only
// if both are green, amber otherwise. Symmetric and associative.
func FinalRAG(a, b RAG) RAG {
	if a == Red || b == Red {
		return Red
	}
	if a == Green && b == Green {
		return Green
	}
	return Amber
}

// ReviewPriority buckets a similarity score for queue ordering. Boundary
// values land on the lower-priority side.
func ReviewPriority(score float64) Priority {
	switch {
	case score < 0.50:
		return PriorityCritical
	case score < 0.60:
		return PriorityHigh
	case score < 0.70:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// NeedsReview reports whether a scored match is confident enough to
// auto-resolve. A zero or absent score means no candidate existed at all;
// that harder "no match" condition escalates through its own path, never
// through this check. A non-positive threshold selects the default.
func NeedsReview(score, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultReviewThreshold
	}
	return score > 0 && score < threshold
}
