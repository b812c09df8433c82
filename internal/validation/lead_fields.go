package validation

import (
	"fmt"
	"strings"

	"lead-dedup-service/internal/models"
	errs "lead-dedup-service/pkg/errors"
)

const maxImportBatch = 1000

// ValidateLead checks the invariants every stored lead must satisfy.
func ValidateLead(lead models.Lead) error {
	if strings.TrimSpace(lead.CompanyName) == "" {
		return errs.NewValidation("validation.ValidateLead", "company name must not be empty", nil)
	}
	if lead.Confidence < 0 || lead.Confidence > 1 {
		return errs.NewValidation("validation.ValidateLead",
			fmt.Sprintf("confidence %.2f outside [0,1]", lead.Confidence), nil)
	}
	return nil
}

// ClampConfidence forces a confidence value into [0,1]. Imports from older
// exports occasionally carry percentages; those are caught here.
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ValidateImportNames checks a pre-import name batch.
func ValidateImportNames(names []string) error {
	if len(names) == 0 {
		return errs.NewValidation("validation.ValidateImportNames", "at least one name is required", nil)
	}
	if len(names) > maxImportBatch {
		return errs.NewValidation("validation.ValidateImportNames",
			fmt.Sprintf("batch of %d exceeds limit of %d names", len(names), maxImportBatch), nil)
	}
	for i, n := range names {
		if strings.TrimSpace(n) == "" {
			return errs.NewValidation("validation.ValidateImportNames",
				fmt.Sprintf("name at index %d is empty", i), nil)
		}
	}
	return nil
}
