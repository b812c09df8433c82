package utils

import (
	"regexp"
	"strings"
)

// legalForms are German legal-form tokens removed from company names before
// comparison. Keys are lower-case with inner punctuation stripped, so both
// "e.V." and "eV" resolve to "ev".
var legalForms = map[string]bool{
	"ev":       true,
	"gmbh":     true,
	"ggmbh":    true,
	"mbh":      true,
	"ag":       true,
	"kg":       true,
	"ohg":      true,
	"gbr":      true,
	"ug":       true,
	"gug":      true,
	"stiftung": true,
}

// nameCharset keeps lower-case latin letters, digits, German umlauts/eszett
// and spaces; everything else is comparison noise.
var nameCharset = regexp.MustCompile(`[^a-z0-9äöüß ]+`)

// NormalizeCompanyName canonicalizes a company name into a comparison key.
// Lower-cases, collapses whitespace, drops legal-form suffixes as whole
// words ("Kinderhilfe e.V." and "Kinderhilfe" normalize identically) and
// strips punctuation. Never fails; a degenerate input may normalize to "".
func NormalizeCompanyName(raw string) string {
	s := strings.ToLower(raw)

	kept := make([]string, 0, 8)
	for _, tok := range strings.Fields(s) {
		trimmed := strings.Trim(tok, ".,;:()&/")
		key := strings.ReplaceAll(trimmed, ".", "")
		if legalForms[key] {
			continue
		}
		kept = append(kept, tok)
	}

	s = nameCharset.ReplaceAllString(strings.Join(kept, " "), "")
	return strings.Join(strings.Fields(s), " ")
}
