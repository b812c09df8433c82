package utils

import (
	"regexp"
	"strings"
)

var phoneNoise = regexp.MustCompile(`[\s()/-]+`)

// NormalizePhone normalizes a phone number for equality comparison.
// Rules:
// - remove whitespace, parentheses, hyphens and slashes
// - rewrite a leading +49 country prefix to the domestic 0
// This is a normalization step only; it does not validate length or format.
func NormalizePhone(phone string) string {
	if phone == "" {
		return ""
	}

	clean := phoneNoise.ReplaceAllString(phone, "")
	if strings.HasPrefix(clean, "+49") {
		clean = "0" + clean[3:]
	}
	return clean
}
