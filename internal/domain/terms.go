package domain

// TermKind selects the comparison strategy for a pre-agreed term category.
// The classification is static configuration: identity categories are
// checked by deterministic string presence and never call the language
// model; semantic categories delegate to the external comparison
// capability.
type TermKind string

const (
	TermIdentity TermKind = "identity"
	TermSemantic TermKind = "semantic"
)

var termCategories = map[string]TermKind{
	// Identity terms: party names checked by string presence.
	"brand_name":  TermIdentity,
	"talent_name": TermIdentity,
	"agency_name": TermIdentity,
	"client_name": TermIdentity,

	// Semantic terms: delegated comparison.
	"payment_terms": TermSemantic,
	"usage_rights":  TermSemantic,
	"exclusivity":   TermSemantic,
	"deliverables":  TermSemantic,
	"term_duration": TermSemantic,
	"territory":     TermSemantic,
}

// TermKindFor returns the comparison strategy for a category, and whether
// the category is known at all.
func TermKindFor(category string) (TermKind, bool) {
	k, ok := termCategories[category]
	return k, ok
}
