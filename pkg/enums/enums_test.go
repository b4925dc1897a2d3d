package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("on-hold")
	if err != nil || status != OrderStatusOnHold {
		t.Fatalf("expected on-hold, got %q err=%v", status, err)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if OrderStatusProcessing.IsTerminal() || !OrderStatusRefunded.IsTerminal() {
		t.Fatalf("unexpected terminal classification")
	}
}

func TestProductSortLabels(t *testing.T) {
	for _, sort := range ProductSorts {
		if !sort.IsValid() || sort.Label() == "" {
			t.Fatalf("sort %q should be valid and labelled", sort)
		}
	}
	if _, err := ParseProductSort("cheapest"); err == nil {
		t.Fatalf("expected error for unknown sort")
	}
}

func TestParseLanguage(t *testing.T) {
	lang, err := ParseLanguage(" PT ")
	if err != nil || lang != LanguagePT {
		t.Fatalf("expected pt, got %q err=%v", lang, err)
	}
	if _, err := ParseLanguage("klingon"); err == nil {
		t.Fatalf("expected error for unsupported language")
	}
}
