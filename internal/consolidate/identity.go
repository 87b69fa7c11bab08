// Package consolidate turns per-establishment observations into one
// deduplicated record per real-world company: per-year aggregation,
// identifier-first cross-year consolidation, and policy-driven merging of
// auxiliary company sources.
package consolidate

import "strings"

// Establishment is one establishment-level observation from a per-year
// file. Measures stay raw until aggregation so one bad cell never aborts a
// run.
type Establishment struct {
	CompanyName string
	EIN         string
	Employees   string // annual_average_employees
	Hours       string // total_hours_worked
}

// YearCompany is the aggregate of all establishments reported under one
// exact raw company name within a single year.
type YearCompany struct {
	CompanyName  string // first-encountered raw name in the group
	CanonicalKey string
	EIN          string // sorted, ", "-joined union of distinct EINs
	Employees    int64
	Hours        int64
	Year         string
}

// YearMap holds one year's aggregated companies keyed by canonical key, in
// first-insertion order so downstream matching is reproducible.
type YearMap struct {
	Year  string
	keys  []string
	byKey map[string]*YearCompany
}

// NewYearMap creates an empty YearMap for the given year label.
func NewYearMap(year string) *YearMap {
	return &YearMap{Year: year, byKey: make(map[string]*YearCompany)}
}

// Put inserts or replaces the company under key. A replaced key keeps its
// original position.
func (m *YearMap) Put(key string, yc *YearCompany) {
	if _, ok := m.byKey[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.byKey[key] = yc
}

// Get returns the company under key, or nil.
func (m *YearMap) Get(key string) *YearCompany {
	return m.byKey[key]
}

// Keys returns canonical keys in insertion order.
func (m *YearMap) Keys() []string { return m.keys }

// Len returns the number of companies.
func (m *YearMap) Len() int { return len(m.keys) }

// Identity is a resolved company, folded together from every year and
// source that matched it.
type Identity struct {
	// DisplayName is the outward-facing company name. It may stay empty
	// until EnsureDisplayNames resolves the fallback chain.
	DisplayName string
	// BaseName is the name carried by the authoritative (base) dataset;
	// empty for identities created by an added source file.
	BaseName string
	// CanonicalKey is the stripped-name output field, recomputed from the
	// chronologically latest contributing name. It can differ from the key
	// the identity is stored under in its IdentitySet.
	CanonicalKey string
	EIN          string
	Employees    map[string]int64 // year -> value, every known year present
	Hours        map[string]int64
	SourceNames  map[string]string // source prefix -> matched incoming name
	SourceSites  map[string]string // source prefix -> website
}

// newIdentity creates an Identity with every year's measures zeroed, which
// keeps the output rectangular regardless of how sparse the inputs are.
func newIdentity(display, key, ein string, years []string) *Identity {
	id := &Identity{
		DisplayName:  display,
		BaseName:     display,
		CanonicalKey: key,
		EIN:          ein,
		Employees:    make(map[string]int64, len(years)),
		Hours:        make(map[string]int64, len(years)),
		SourceNames:  make(map[string]string),
		SourceSites:  make(map[string]string),
	}
	for _, y := range years {
		id.Employees[y] = 0
		id.Hours[y] = 0
	}
	return id
}

// IdentitySet is the insertion-ordered collection of resolved identities.
// Ordered iteration is what makes first-match-wins behavior reproducible
// across runs (an accepted ambiguity, not a resolution policy).
type IdentitySet struct {
	// Years are the year labels every identity carries, ascending.
	Years []string
	// Sources are the auxiliary source prefixes in processing order.
	Sources []string

	keys  []string
	byKey map[string]*Identity
}

// NewIdentitySet creates an empty set covering the given years.
func NewIdentitySet(years []string) *IdentitySet {
	return &IdentitySet{
		Years: years,
		byKey: make(map[string]*Identity),
	}
}

// Put inserts or replaces the identity under key, keeping the original
// position on replace.
func (s *IdentitySet) Put(key string, id *Identity) {
	if _, ok := s.byKey[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.byKey[key] = id
}

// Get returns the identity under key, or nil.
func (s *IdentitySet) Get(key string) *Identity {
	return s.byKey[key]
}

// Has reports whether key is present.
func (s *IdentitySet) Has(key string) bool {
	_, ok := s.byKey[key]
	return ok
}

// Keys returns the stored keys in insertion order.
func (s *IdentitySet) Keys() []string { return s.keys }

// Len returns the number of identities.
func (s *IdentitySet) Len() int { return len(s.keys) }

// MatchableName resolves the name an identity is matched and displayed by:
// explicit display name, else the base dataset's name, else the first
// populated source name in source-processing order.
func (s *IdentitySet) MatchableName(id *Identity) string {
	if id.DisplayName != "" {
		return id.DisplayName
	}
	if id.BaseName != "" {
		return id.BaseName
	}
	for _, prefix := range s.Sources {
		if name := strings.TrimSpace(id.SourceNames[prefix]); name != "" {
			return name
		}
	}
	return ""
}

// EnsureDisplayNames resolves the display-name fallback chain for every
// identity. After this call no retained identity has an empty DisplayName
// unless it has no name anywhere, which cannot happen for identities
// created from named records.
func (s *IdentitySet) EnsureDisplayNames() {
	for _, key := range s.keys {
		id := s.byKey[key]
		if id.DisplayName == "" {
			id.DisplayName = s.MatchableName(id)
		}
	}
}
