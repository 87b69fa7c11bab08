// Package match implements company-name canonicalization and the
// canonical-key index used for cross-source identity resolution.
package match

import (
	"regexp"
	"strings"
)

// defaultSuffixes lists business-entity designators stripped from the end of
// a name during canonicalization. Only trailing tokens are removed, so
// "Co Operative Builders" keeps its leading "Co".
var defaultSuffixes = []string{
	"LLC", "INC", "INCORPORATED", "LTD", "LIMITED", "CORP", "CORPORATION", "CO", "COMPANY",
	"LP", "LLP", "PLLC", "PC", "PA", "PSC", "LLLP", "LC", "HOLDINGS", "GROUP", "ENTERPRISES",
	"SOLUTIONS", "SERVICES", "SYSTEMS", "TECHNOLOGIES", "ASSOCIATES", "PARTNERS", "CONSULTING",
	"MANAGEMENT", "ADVISORS", "VENTURES", "CAPITAL", "INVESTMENTS", "PROPERTIES", "DEVELOPMENT",
	"CONSTRUCTION", "CONTRACTORS", "MANUFACTURING", "INDUSTRIES", "INTERNATIONAL", "WORLDWIDE",
	"GLOBAL", "NATIONAL", "REGIONAL", "LOCAL",
}

var (
	parenRe       = regexp.MustCompile(`\s*\([^)]*\)\s*`)
	andWordRe     = regexp.MustCompile(`(?i)\s+and\s+`)
	ampersandRe   = regexp.MustCompile(`\s*&\s*`)
	trailingAmpRe = regexp.MustCompile(`\s+&\s*$`)
	leadingAmpRe  = regexp.MustCompile(`^&\s+`)
)

// Canonicalizer maps raw company names to canonical keys using an immutable
// suffix vocabulary. The vocabulary is injected at construction so callers
// (and tests) can substitute their own.
type Canonicalizer struct {
	suffixes map[string]struct{}
}

// New creates a Canonicalizer with the given suffix vocabulary. Suffixes are
// matched case-insensitively against uppercased trailing tokens.
func New(suffixes []string) *Canonicalizer {
	set := make(map[string]struct{}, len(suffixes))
	for _, s := range suffixes {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return &Canonicalizer{suffixes: set}
}

// Default creates a Canonicalizer with the standard business-suffix vocabulary.
func Default() *Canonicalizer {
	return New(defaultSuffixes)
}

// Canonicalize derives the canonical key for a raw company name. It is pure,
// total, and idempotent; empty input yields an empty key. A name consisting
// entirely of suffix tokens reduces to the empty string — callers must treat
// empty keys as unmatchable and never merge two of them.
func (c *Canonicalizer) Canonicalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	// Trailing sentence punctuation and surrounding quotes.
	s = strings.TrimRight(s, ".,;!?")
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)

	// Parenthetical qualifiers ("(Roofing Division)") never affect identity.
	s = strings.TrimSpace(parenRe.ReplaceAllString(s, " "))

	// Commas are noise, not separators.
	s = strings.ReplaceAll(s, ",", "")

	// "and" and "&" are interchangeable; unify to " & ".
	s = andWordRe.ReplaceAllString(s, " & ")
	s = ampersandRe.ReplaceAllString(s, " & ")

	words := strings.Fields(strings.ToUpper(s))
	for len(words) > 0 {
		last := strings.TrimRight(words[len(words)-1], ".,;!?")
		if _, ok := c.suffixes[last]; ok {
			words = words[:len(words)-1]
			continue
		}
		words[len(words)-1] = last
		break
	}

	result := strings.ToLower(strings.Join(words, " "))
	result = strings.TrimSpace(trailingAmpRe.ReplaceAllString(result, ""))
	result = strings.TrimSpace(leadingAmpRe.ReplaceAllString(result, ""))
	return result
}
