package validation

import (
	"strings"
	"testing"

	"lead-dedup-service/internal/models"
	errs "lead-dedup-service/pkg/errors"
)

func TestValidateLead(t *testing.T) {
	tests := []struct {
		name    string
		lead    models.Lead
		wantErr bool
	}{
		{"valid", models.Lead{CompanyName: "Alpha GmbH", Confidence: 0.5}, false},
		{"empty name", models.Lead{CompanyName: "", Confidence: 0.5}, true},
		{"whitespace name", models.Lead{CompanyName: "   ", Confidence: 0.5}, true},
		{"confidence negative", models.Lead{CompanyName: "Alpha", Confidence: -0.1}, true},
		{"confidence above one", models.Lead{CompanyName: "Alpha", Confidence: 1.5}, true},
		{"confidence bounds", models.Lead{CompanyName: "Alpha", Confidence: 1.0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLead(tt.lead)
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err != nil && !errs.Is(err, errs.ErrValidation) {
				t.Errorf("error must be a validation error, got %v", err)
			}
		})
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.73, 0.73},
		{1, 1},
		{42, 1},
	}
	for _, tt := range tests {
		if got := ClampConfidence(tt.in); got != tt.want {
			t.Errorf("ClampConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateImportNames(t *testing.T) {
	if err := ValidateImportNames(nil); err == nil {
		t.Error("empty batch must be rejected")
	}
	if err := ValidateImportNames([]string{"Alpha", ""}); err == nil {
		t.Error("blank name must be rejected")
	}
	if err := ValidateImportNames([]string{"Alpha", "Beta e.V."}); err != nil {
		t.Errorf("valid batch rejected: %v", err)
	}

	big := make([]string, maxImportBatch+1)
	for i := range big {
		big[i] = "Org"
	}
	err := ValidateImportNames(big)
	if err == nil || !strings.Contains(err.Error(), "limit") {
		t.Errorf("oversized batch must be rejected, got %v", err)
	}
}
