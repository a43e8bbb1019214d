package entities

import (
	"regexp"
	"strings"
)

// MaxExcerptRunes bounds the comment text stored with a sensitive hit.
const MaxExcerptRunes = 240

// DefaultSensitiveTerms is used when no term list is configured.
//
//nolint:gochecknoglobals // default vocabulary
var DefaultSensitiveTerms = []string{
	"密码", "密钥", "私钥", "机密", "仅限内部", "敏感",
	"secret", "token", "password", "access_key", "api_key",
	"client_secret", "credential", "confidential",
}

// SensitiveMatch is the outcome of a successful match.
type SensitiveMatch struct {
	Term    string
	Excerpt string
}

// SensitiveMatcher holds case-insensitive literal patterns compiled once per run.
type SensitiveMatcher struct {
	terms    []string
	patterns []*regexp.Regexp
}

// NewSensitiveMatcher compiles the given terms in order. Blank terms are
// dropped; an empty list falls back to DefaultSensitiveTerms.
func NewSensitiveMatcher(terms []string) *SensitiveMatcher {
	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		if trimmed := strings.TrimSpace(term); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultSensitiveTerms...)
	}

	matcher := &SensitiveMatcher{
		terms:    cleaned,
		patterns: make([]*regexp.Regexp, 0, len(cleaned)),
	}
	for _, term := range cleaned {
		matcher.patterns = append(matcher.patterns, regexp.MustCompile("(?i)"+regexp.QuoteMeta(term)))
	}
	return matcher
}

// Terms returns the active term list in match order.
func (m *SensitiveMatcher) Terms() []string {
	return append([]string(nil), m.terms...)
}

// Match reports the first term, in list order, found in the trimmed segment.
// Matching sees the whole segment; only the stored excerpt is truncated.
func (m *SensitiveMatcher) Match(segment string) (SensitiveMatch, bool) {
	trimmed := strings.TrimSpace(segment)
	if trimmed == "" {
		return SensitiveMatch{}, false
	}
	for i, pattern := range m.patterns {
		if pattern.MatchString(trimmed) {
			return SensitiveMatch{
				Term:    m.terms[i],
				Excerpt: TruncateRunes(trimmed, MaxExcerptRunes),
			}, true
		}
	}
	return SensitiveMatch{}, false
}

// ParseTerms splits a comma-separated term list, dropping blanks.
func ParseTerms(raw string) []string {
	var terms []string
	for _, part := range strings.Split(raw, ",") {
		if term := strings.TrimSpace(part); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// TruncateRunes cuts s to at most limit characters without splitting a rune.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for idx := range s {
		if count == limit {
			return s[:idx]
		}
		count++
	}
	return s
}
