package matcher

import (
	"testing"
	"time"

	"lead-dedup-service/internal/models"
)

func strPtr(s string) *string { return &s }

func lead(id int64, name string) models.Lead {
	return models.Lead{
		ID:          id,
		CompanyName: name,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestClassify_IdenticalNormalizedName(t *testing.T) {
	c := NewDefault()

	tests := []struct {
		name  string
		nameA string
		nameB string
	}{
		{"exact same", "Kinderhilfe Berlin", "Kinderhilfe Berlin"},
		{"legal form differs", "Kinderhilfe e.V.", "Kinderhilfe eV"},
		{"case differs", "MUSTERFIRMA GmbH", "musterfirma"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Classify(lead(1, tt.nameA), lead(2, tt.nameB))
			if !res.IsMatch {
				t.Fatalf("expected match for %q vs %q, got %+v", tt.nameA, tt.nameB, res)
			}
			if res.Score != 100 {
				t.Errorf("identical name must score exactly 100, got %d", res.Score)
			}
			if len(res.Reasons) != 1 {
				t.Errorf("identical name short-circuits with one reason, got %v", res.Reasons)
			}
		})
	}
}

func TestClassify_ShortCircuitIgnoresOtherFields(t *testing.T) {
	c := NewDefault()

	a := lead(1, "Stiftung Nord")
	a.Website = strPtr("https://nord-stiftung.de")
	a.Phone = strPtr("+49 30 111111")
	b := lead(2, "Nord Stiftung gGmbH")
	b.Website = strPtr("https://nord-stiftung.de")
	b.Phone = strPtr("030 111111")

	// Both names normalize to "nord", so the exact-name rule fires and the
	// shared website and phone add nothing on top.
	res := c.Classify(a, b)
	if !res.IsMatch || res.Score != 100 {
		t.Fatalf("expected short-circuit at 100, got %+v", res)
	}
	if res.Score < 90 {
		t.Errorf("score %d below 90 for same organization", res.Score)
	}
}

func TestClassify_SimilarNames(t *testing.T) {
	c := NewDefault()

	// "sozialwerk ost" vs "sozialwerk west": distance 2 over length 15 gives
	// ~0.87 similarity, above the 0.85 threshold but not identical.
	res := c.Classify(lead(1, "Sozialwerk Ost"), lead(2, "Sozialwerk West"))
	if !res.IsMatch {
		t.Fatalf("expected similar names to match, got %+v", res)
	}
	if res.Score != 80 {
		t.Errorf("similar-name rule alone must score 80, got %d", res.Score)
	}
}

func TestClassify_DissimilarNamesNoOtherEvidence(t *testing.T) {
	c := NewDefault()

	res := c.Classify(lead(1, "Alpha Consulting"), lead(2, "Zeta Logistik"))
	if res.IsMatch {
		t.Fatalf("unrelated names must not match, got %+v", res)
	}
	if res.Score != 0 {
		t.Errorf("expected score 0, got %d", res.Score)
	}
}

func TestClassify_SameWebsiteDomain(t *testing.T) {
	c := NewDefault()

	a := lead(1, "Alpha Consulting")
	a.Website = strPtr("https://www.alpha.de/home")
	b := lead(2, "Zeta Logistik")
	b.Website = strPtr("alpha.de")

	res := c.Classify(a, b)
	if !res.IsMatch {
		t.Fatalf("same website domain must match on its own, got %+v", res)
	}
	if res.Score != 90 {
		t.Errorf("expected 90 from domain rule, got %d", res.Score)
	}
}

func TestClassify_EmailDomainRules(t *testing.T) {
	c := NewDefault()

	tests := []struct {
		name      string
		emailA    string
		emailB    string
		wantScore int
	}{
		{"corporate domain shared", "info@alpha.de", "kontakt@alpha.de", 70},
		{"webmail shared is ignored", "alpha@gmail.com", "zeta@gmail.com", 0},
		{"webmail de provider ignored", "a@web.de", "b@web.de", 0},
		{"different domains", "info@alpha.de", "info@zeta.de", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := lead(1, "Alpha Consulting")
			a.Email = strPtr(tt.emailA)
			b := lead(2, "Zeta Logistik")
			b.Email = strPtr(tt.emailB)

			res := c.Classify(a, b)
			if res.Score != tt.wantScore {
				t.Errorf("score = %d, want %d (%+v)", res.Score, tt.wantScore, res)
			}
			if res.IsMatch {
				t.Errorf("email domain alone (70) must not reach the threshold")
			}
		})
	}
}

func TestClassify_SamePhone(t *testing.T) {
	c := NewDefault()

	a := lead(1, "Alpha Consulting")
	a.Phone = strPtr("+49 30 1234567")
	b := lead(2, "Zeta Logistik")
	b.Phone = strPtr("030/123 45 67")

	res := c.Classify(a, b)
	if res.Score != 60 {
		t.Errorf("expected 60 from phone rule, got %d", res.Score)
	}
	if res.IsMatch {
		t.Errorf("phone alone (60) must not reach the threshold")
	}
}

func TestClassify_AdditiveScoring(t *testing.T) {
	c := NewDefault()

	// Email domain (70) + phone (60) crosses the threshold together even
	// though neither rule alone does.
	a := lead(1, "Alpha Consulting")
	a.Email = strPtr("info@alpha.de")
	a.Phone = strPtr("+49 30 1234567")
	b := lead(2, "Zeta Logistik")
	b.Email = strPtr("kontakt@alpha.de")
	b.Phone = strPtr("030 1234567")

	res := c.Classify(a, b)
	if !res.IsMatch {
		t.Fatalf("expected additive evidence to match, got %+v", res)
	}
	if res.Score != 130 {
		t.Errorf("expected 70+60=130, got %d", res.Score)
	}
	if len(res.Reasons) != 2 {
		t.Errorf("expected two reasons, got %v", res.Reasons)
	}
}

func TestClassify_Symmetry(t *testing.T) {
	c := NewDefault()

	a := lead(1, "Sozialwerk Ost")
	a.Website = strPtr("https://sozialwerk.de")
	b := lead(2, "Sozialwerk West")
	b.Website = strPtr("sozialwerk.de")

	r1 := c.Classify(a, b)
	r2 := c.Classify(b, a)
	if r1.IsMatch != r2.IsMatch || r1.Score != r2.Score {
		t.Errorf("classification not symmetric: %+v vs %+v", r1, r2)
	}
}

func TestClassify_MissingFieldsNeverCount(t *testing.T) {
	c := NewDefault()

	a := lead(1, "Alpha Consulting")
	b := lead(2, "Zeta Logistik")

	res := c.Classify(a, b)
	if res.Score != 0 || res.IsMatch {
		t.Errorf("leads with no shared fields must score 0, got %+v", res)
	}
}

func TestClassify_ThresholdOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MatchThreshold = 150
	c := NewClassifier(cfg)

	a := lead(1, "Alpha Consulting")
	a.Website = strPtr("alpha.de")
	b := lead(2, "Zeta Logistik")
	b.Website = strPtr("alpha.de")

	if res := c.Classify(a, b); res.IsMatch {
		t.Errorf("score 90 must not match with threshold 150, got %+v", res)
	}

	c.ApplyConfig(80)
	if res := c.Classify(a, b); !res.IsMatch {
		t.Errorf("score 90 must match after lowering threshold to 80, got %+v", res)
	}
}
