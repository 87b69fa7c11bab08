// Package terms picks a minimal set of search keywords that together cover
// a list of company names, for seeding keyword-limited search APIs.
package terms

import (
	"regexp"
	"sort"
	"strings"
)

// stopwords are tokens too generic to be useful search terms.
var stopwords = map[string]struct{}{
	"inc": {}, "llc": {}, "corp": {}, "co": {}, "company": {}, "ltd": {},
	"limited": {}, "services": {}, "solutions": {},
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "in": {},
	"on": {}, "at": {}, "by": {}, "for": {}, "with": {}, "to": {}, "from": {},
	"as": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"being": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {},
	"did": {}, "will": {}, "would": {}, "could": {}, "should": {},
}

const minKeywordLen = 3

var wordRe = regexp.MustCompile(`\b[a-zA-Z]+\b`)

// Keywords extracts the searchable tokens from a company name: lowercased
// alphabetic words of at least three letters that are not stopwords.
func Keywords(name string) []string {
	words := wordRe.FindAllString(strings.ToLower(name), -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) < minKeywordLen {
			continue
		}
		if _, ok := stopwords[w]; ok {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Term is one selected search term and the number of companies it covered
// when it was picked.
type Term struct {
	Term    string
	Covered int
}

// SelectMinimal greedily picks search terms until every company with at
// least one keyword is covered. Each round takes the term covering the most
// still-uncovered companies, breaking ties by lexicographic order so runs
// are reproducible. Companies whose names yield no keywords at all are
// returned as uncoverable.
func SelectMinimal(companies []string) ([]Term, []string) {
	keywords := make(map[string][]string, len(companies))
	remaining := make([]string, 0, len(companies))
	var uncoverable []string
	seen := make(map[string]struct{}, len(companies))
	for _, c := range companies {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		kw := Keywords(c)
		if len(kw) == 0 {
			uncoverable = append(uncoverable, c)
			continue
		}
		keywords[c] = kw
		remaining = append(remaining, c)
	}

	var selected []Term
	for len(remaining) > 0 {
		coverage := make(map[string]int)
		for _, c := range remaining {
			counted := make(map[string]struct{}, len(keywords[c]))
			for _, kw := range keywords[c] {
				if _, ok := counted[kw]; ok {
					continue
				}
				counted[kw] = struct{}{}
				coverage[kw]++
			}
		}

		best := ""
		bestCount := 0
		for kw, n := range coverage {
			if n > bestCount || (n == bestCount && (best == "" || kw < best)) {
				best = kw
				bestCount = n
			}
		}
		if bestCount == 0 {
			break
		}
		selected = append(selected, Term{Term: best, Covered: bestCount})

		next := remaining[:0]
		for _, c := range remaining {
			if containsKeyword(keywords[c], best) {
				continue
			}
			next = append(next, c)
		}
		remaining = next
	}

	sort.Strings(uncoverable)
	return selected, uncoverable
}

func containsKeyword(kws []string, kw string) bool {
	for _, k := range kws {
		if k == kw {
			return true
		}
	}
	return false
}
