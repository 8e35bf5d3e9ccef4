package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Authorization: Basic <credential>" and the Bearer form.
	authHeaderRe = regexp.MustCompile(`(?i)\b(authorization\s*[:=]\s*)(Basic|Bearer)\s+[^\s"']+`)

	// Matches a bare "Basic <credential>" only when the credential looks like
	// one (digits or base64/token punctuation), so prose such as
	// "basic validation failed" is left alone.
	authSchemeRe = regexp.MustCompile(`(?i)\b(Basic|Bearer)\s+[^\s"'<]*[0-9+/=._~-][^\s"']*`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|polaris[_-]?api[_-]?key)\b\s*[:=]\s*[^\s"']+`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = authHeaderRe.ReplaceAllString(out, "${1}${2} <redacted>")
	out = authSchemeRe.ReplaceAllString(out, "$1 <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	return strings.TrimSpace(out)
}

// Value redacts a known secret wherever it appears in s, then applies Secrets.
func Value(s, secret string) string {
	secret = strings.TrimSpace(secret)
	if secret != "" && len(secret) >= 4 {
		s = strings.ReplaceAll(s, secret, "<redacted>")
	}
	return Secrets(s)
}
