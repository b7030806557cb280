package domain

import "testing"

func TestTermKindFor(t *testing.T) {
	identity := []string{"brand_name", "talent_name", "agency_name", "client_name"}
	for _, c := range identity {
		kind, ok := TermKindFor(c)
		if !ok || kind != TermIdentity {
			t.Fatalf("%s: expected identity, got %v %v", c, kind, ok)
		}
	}
	semantic := []string{"payment_terms", "usage_rights", "exclusivity", "deliverables", "term_duration", "territory"}
	for _, c := range semantic {
		kind, ok := TermKindFor(c)
		if !ok || kind != TermSemantic {
			t.Fatalf("%s: expected semantic, got %v %v", c, kind, ok)
		}
	}
	if _, ok := TermKindFor("indemnification"); ok {
		t.Fatalf("unknown category must not classify")
	}
}

func TestPATContextMandatoryDefault(t *testing.T) {
	if !(PATContext{}).Mandatory() {
		t.Fatalf("omitted is_mandatory must default to true")
	}
	f := false
	if (PATContext{IsMandatory: &f}).Mandatory() {
		t.Fatalf("explicit false must be honored")
	}
}
