package consolidate

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/eanna95/trevilleroofing/internal/match"
)

// ConsolidateStats summarizes what the cross-year pass did.
type ConsolidateStats struct {
	IdentifierMerges     int // identities linked by a shared EIN
	NameMerges           int // identities linked by canonical-name match
	Standalone           int // records that matched nothing else
	IdentifierCollisions int // EINs spanning more than two distinct names
	KeyCollisions        int // identities overwritten under a reused key
}

type yearEntry struct {
	year string
	key  string
	yc   *YearCompany
}

type processedKey struct {
	key  string
	year string
}

// ConsolidateYears links each year's companies into one identity per
// real-world company. Phase one groups by exact EIN, which overrides any
// name-based similarity. Phase two fuzzy-matches the remaining EIN-less
// records by canonical name. Every (canonical key, year) pair is consumed
// at most once, and the chronologically latest contributing name wins as
// the identity's display name.
func ConsolidateYears(perYear map[string]*YearMap, canon *match.Canonicalizer) (*IdentitySet, ConsolidateStats) {
	var stats ConsolidateStats

	years := make([]string, 0, len(perYear))
	for y := range perYear {
		years = append(years, y)
	}
	sort.Strings(years)

	// EIN index over every record, and a name index restricted to the
	// EIN-less ones. Identified records never participate in name matching.
	einOrder := make([]string, 0)
	einEntries := make(map[string][]yearEntry)
	nameless := match.NewIndex(canon)
	for _, year := range years {
		ym := perYear[year]
		for _, key := range ym.Keys() {
			yc := ym.Get(key)
			if ein := strings.TrimSpace(yc.EIN); ein != "" {
				if _, ok := einEntries[ein]; !ok {
					einOrder = append(einOrder, ein)
				}
				einEntries[ein] = append(einEntries[ein], yearEntry{year: year, key: key, yc: yc})
			} else {
				nameless.Add(yc.CompanyName)
			}
		}
	}

	set := NewIdentitySet(years)
	processed := make(map[processedKey]bool)

	// Phase one: shared identifiers.
	for _, ein := range einOrder {
		entries := einEntries[ein]
		if len(entries) < 2 {
			continue
		}
		first := entries[0]
		id := newIdentity(first.yc.CompanyName, canon.Canonicalize(first.yc.CompanyName), ein, years)
		latest := ""
		names := make(map[string]struct{})
		for _, e := range entries {
			id.Employees[e.year] = e.yc.Employees
			id.Hours[e.year] = e.yc.Hours
			names[e.yc.CompanyName] = struct{}{}
			if latest == "" || e.year > latest {
				latest = e.year
				id.DisplayName = e.yc.CompanyName
				id.BaseName = e.yc.CompanyName
				id.CanonicalKey = canon.Canonicalize(e.yc.CompanyName)
			}
			processed[processedKey{key: e.key, year: e.year}] = true
		}
		putIdentity(set, first.key, id, &stats)
		stats.IdentifierMerges++
		if len(names) > 2 {
			stats.IdentifierCollisions++
			zap.S().Warnw("ein spans several company names", "ein", ein, "names", len(names))
		}
	}

	// Phase two: canonical-name matching for everything left over, years
	// ascending and records in first-seen order within each year.
	for _, year := range years {
		ym := perYear[year]
		for _, key := range ym.Keys() {
			if processed[processedKey{key: key, year: year}] {
				continue
			}
			yc := ym.Get(key)
			if strings.TrimSpace(yc.EIN) != "" {
				// Single-occurrence EIN: nothing to link against.
				id := newIdentity(yc.CompanyName, canon.Canonicalize(yc.CompanyName), yc.EIN, years)
				id.Employees[year] = yc.Employees
				id.Hours[year] = yc.Hours
				processed[processedKey{key: key, year: year}] = true
				putIdentity(set, key, id, &stats)
				stats.Standalone++
				continue
			}

			matches := nameless.Lookup(yc.CompanyName)

			// Reuse an identity an earlier match already created, so two
			// records that share a variant land in the same place.
			id := (*Identity)(nil)
			for _, m := range matches {
				if existing := set.Get(canon.Canonicalize(m)); existing != nil {
					id = existing
					break
				}
			}
			if id == nil {
				id = newIdentity(yc.CompanyName, canon.Canonicalize(yc.CompanyName), "", years)
				putIdentity(set, key, id, &stats)
			}
			if len(matches) > 1 {
				stats.NameMerges++
			} else {
				stats.Standalone++
			}

			for _, m := range matches {
				mk := canon.Canonicalize(m)
				for _, my := range years {
					mc := perYear[my].Get(mk)
					if mc == nil || processed[processedKey{key: mk, year: my}] {
						continue
					}
					id.Employees[my] = mc.Employees
					id.Hours[my] = mc.Hours
					if my >= year {
						id.DisplayName = mc.CompanyName
						id.BaseName = mc.CompanyName
						id.CanonicalKey = canon.Canonicalize(mc.CompanyName)
					}
					processed[processedKey{key: mk, year: my}] = true
				}
			}
		}
	}

	return set, stats
}

func putIdentity(set *IdentitySet, key string, id *Identity, stats *ConsolidateStats) {
	if set.Has(key) {
		stats.KeyCollisions++
		zap.S().Warnw("identity key reused, replacing earlier record", "key", key)
	}
	set.Put(key, id)
}
