// Package locate anchors extracted clauses back into the full document
// text as byte offsets, so reviewers can see each clause highlighted in
// its original position.
package locate

import (
	"context"
	"fmt"

	"github.com/pabg92/astralabs-sub005/internal/domain"
	"github.com/pabg92/astralabs-sub005/pkg/logger"
	"github.com/pabg92/astralabs-sub005/pkg/textspan"
)

type Store interface {
	GetDocument(ctx context.Context, tenantID, documentID string) (domain.Document, error)
	ListClauses(ctx context.Context, tenantID, documentID string) ([]domain.Clause, error)
	UpdateClauseOffsets(ctx context.Context, tenantID, clauseID string, start, end int) error
}

type TextSource interface {
	DocumentText(ctx context.Context, key string) (string, error)
}

// Summary reports one document's locate pass. Skipped counts clauses
// that already had offsets.
type Summary struct {
	DocumentID string `json:"document_id"`
	Total      int    `json:"total"`
	Located    int    `json:"located"`
	Skipped    int    `json:"skipped"`
	Missed     int    `json:"missed"`
	DryRun     bool   `json:"dry_run,omitempty"`
}

type Locator struct {
	store Store
	text  TextSource
}

func New(st Store, text TextSource) *Locator {
	return &Locator{store: st, text: text}
}

// Run locates every clause of one document. Clauses are searched in
// extraction order with a monotonically advancing cursor, so a clause
// can never be placed before one that precedes it. A miss advances the
// cursor past the clause's length and the pass continues. With dryRun
// set nothing is written back.
func (l *Locator) Run(ctx context.Context, tenantID, documentID string, dryRun bool) (Summary, error) {
	doc, err := l.store.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return Summary{}, err
	}
	text, err := l.text.DocumentText(ctx, doc.TextKey)
	if err != nil {
		return Summary{}, fmt.Errorf("document %s: %w", documentID, err)
	}
	clauses, err := l.store.ListClauses(ctx, tenantID, documentID)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{DocumentID: documentID, Total: len(clauses), DryRun: dryRun}
	cursor := 0
	for _, c := range clauses {
		if c.StartOffset != nil && c.EndOffset != nil {
			sum.Skipped++
			if *c.EndOffset > cursor {
				cursor = *c.EndOffset
			}
			continue
		}
		span, ok := textspan.Locate(text, c.Content, cursor)
		if !ok {
			sum.Missed++
			cursor = textspan.AdvanceCursor(cursor, len(c.Content), len(text))
			logger.Debug(ctx, "clause not located", "clause_id", c.ClauseID, "document_id", documentID)
			continue
		}
		if !dryRun {
			if err := l.store.UpdateClauseOffsets(ctx, tenantID, c.ClauseID, span.Start, span.End); err != nil {
				return sum, fmt.Errorf("update offsets for %s: %w", c.ClauseID, err)
			}
		}
		sum.Located++
		cursor = span.End
	}
	return sum, nil
}
