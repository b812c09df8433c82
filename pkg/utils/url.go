package utils

import (
	"net/url"
	"strings"
)

// ExtractDomain returns the bare lower-cased hostname of a URL-like string
// with any www. prefix removed. A missing scheme is tolerated; on parse
// failure it falls back to the raw string. Never fails, best effort only.
func ExtractDomain(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	candidate := s
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" {
		return strings.TrimPrefix(strings.ToLower(s), "www.")
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// EmailDomain returns the lower-cased domain portion of an email address,
// or "" when the input has no usable @domain part.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}
