// Package security scrubs session secrets from text before it is logged.
package security

import (
	"regexp"
	"strings"
)

// Redacted replaces every secret Redact finds.
const Redacted = "***REDACTED***"

// SecretType names what a pattern matches.
type SecretType string

const (
	SecretJWT         SecretType = "jwt_token"
	SecretBearer      SecretType = "bearer_header"
	SecretTokenField  SecretType = "token_field"
	SecretPassword    SecretType = "password"
	SecretDatabaseURL SecretType = "database_url"
)

// SecretPattern defines a secret pattern. Group is the submatch that holds
// the secret itself; 0 means the whole match.
type SecretPattern struct {
	Type    SecretType
	Pattern *regexp.Regexp
	Group   int
}

var patterns = []SecretPattern{
	{
		Type:    SecretBearer,
		Pattern: regexp.MustCompile(`(?i)\bbearer\s+([A-Za-z0-9._~+/-]+=*)`),
		Group:   1,
	},
	{
		Type:    SecretJWT,
		Pattern: regexp.MustCompile(`eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*`),
	},
	{
		Type:    SecretTokenField,
		Pattern: regexp.MustCompile(`(?i)"?(?:access_token|refresh_token|reset_token)"?\s*[:=]\s*"?([^\s",}]+)`),
		Group:   1,
	},
	{
		Type:    SecretPassword,
		Pattern: regexp.MustCompile(`(?i)"?password"?\s*[:=]\s*"?([^\s",}]+)`),
		Group:   1,
	},
	{
		Type:    SecretDatabaseURL,
		Pattern: regexp.MustCompile(`(?i)\b(?:redis|rediss|postgres|mysql)://[^\s:/@]*:([^\s@/]+)@`),
		Group:   1,
	},
}

// Patterns returns the secret patterns Redact applies, in order.
func Patterns() []SecretPattern {
	out := make([]SecretPattern, len(patterns))
	copy(out, patterns)
	return out
}

// Redact masks access tokens, refresh tokens, passwords and credentials in
// connection URLs.
func Redact(s string) string {
	if s == "" {
		return s
	}
	for _, p := range patterns {
		s = redactPattern(s, p)
	}
	return s
}

// Contains reports whether s holds anything Redact would mask.
func Contains(s string) bool {
	for _, p := range patterns {
		if loc := p.Pattern.FindStringSubmatchIndex(s); loc != nil && !masked(s, loc, p.Group) {
			return true
		}
	}
	return false
}

func redactPattern(s string, p SecretPattern) string {
	locs := p.Pattern.FindAllStringSubmatchIndex(s, -1)
	if locs == nil {
		return s
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		start, end := loc[2*p.Group], loc[2*p.Group+1]
		if start < 0 || s[start:end] == Redacted {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(Redacted)
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func masked(s string, loc []int, group int) bool {
	start, end := loc[2*group], loc[2*group+1]
	return start < 0 || s[start:end] == Redacted
}
