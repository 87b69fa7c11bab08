package consolidate

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/eanna95/trevilleroofing/internal/match"
	"github.com/eanna95/trevilleroofing/internal/tabular"
)

const (
	employeesPrefix = "annual_average_employees_"
	hoursPrefix     = "total_hours_worked_"
)

// MergeStats counts what happened to one source file's records.
type MergeStats struct {
	Records     int
	Matched     int // fuzzy-matched onto an existing identity
	Updated     int // exact canonical-key hit on an existing identity
	Added       int // new identities created (add policy only)
	Discarded   int // unmatched records dropped (combine policy only)
	Unmatchable int // records whose name canonicalizes to nothing
}

// LoadBase reads a consolidated dataset back into an IdentitySet. Year
// labels are recovered from the measure column headers, rows keyed by the
// canonical form of their company name. Rows with an empty name are
// skipped.
func LoadBase(rows []tabular.Record, columns []string, canon *match.Canonicalizer) (*IdentitySet, error) {
	years := yearsFromColumns(columns)
	if len(years) == 0 {
		return nil, eris.New("consolidate: base dataset has no per-year measure columns")
	}

	set := NewIdentitySet(years)
	skipped := 0
	for _, row := range rows {
		name := strings.TrimSpace(row["company_name"])
		if name == "" {
			skipped++
			continue
		}
		key := canon.Canonicalize(name)
		if key == "" {
			skipped++
			continue
		}
		id := newIdentity(name, key, strings.TrimSpace(row["ein"]), years)
		// Display names are re-resolved after merging, so only the base
		// name survives the load.
		id.DisplayName = ""
		for _, y := range years {
			id.Employees[y] = tabular.ParseMeasure(row[employeesPrefix+y], 0)
			id.Hours[y] = tabular.ParseMeasure(row[hoursPrefix+y], 0)
		}
		set.Put(key, id)
	}
	if skipped > 0 {
		zap.S().Warnw("skipped base rows without a usable company name", "count", skipped)
	}
	return set, nil
}

func yearsFromColumns(columns []string) []string {
	var years []string
	for _, col := range columns {
		if y, ok := strings.CutPrefix(col, employeesPrefix); ok {
			years = append(years, y)
		}
	}
	sort.Strings(years)
	return years
}

// MergeAdded folds one source file into the set under the add policy:
// matched records annotate the identity they hit, unmatched records become
// new identities with zeroed measures. The matching index covers the set as
// it stands when the file starts, so files merge strictly in order.
func MergeAdded(set *IdentitySet, records []tabular.SourceRecord, prefix string, canon *match.Canonicalizer) MergeStats {
	stats := MergeStats{Records: len(records)}
	set.Sources = append(set.Sources, prefix)
	ix := buildMatchIndex(set, canon)

	for _, rec := range records {
		if annotateMatch(set, ix, rec, prefix, canon) {
			stats.Matched++
			continue
		}
		key := canon.Canonicalize(rec.CompanyName)
		if key == "" {
			stats.Unmatchable++
			zap.S().Warnw("source record has no usable company name", "source", prefix, "company", rec.CompanyName)
			continue
		}
		if existing := set.Get(key); existing != nil {
			setSourceAttrs(existing, prefix, rec)
			stats.Updated++
			continue
		}
		id := newIdentity("", key, "", set.Years)
		id.BaseName = ""
		setSourceAttrs(id, prefix, rec)
		set.Put(key, id)
		stats.Added++
	}
	return stats
}

// MergeCombine folds one source file into the set under the combine policy:
// matched records annotate, unmatched records are discarded. The set never
// grows.
func MergeCombine(set *IdentitySet, records []tabular.SourceRecord, prefix string, canon *match.Canonicalizer) MergeStats {
	stats := MergeStats{Records: len(records)}
	set.Sources = append(set.Sources, prefix)
	ix := buildMatchIndex(set, canon)

	for _, rec := range records {
		if annotateMatch(set, ix, rec, prefix, canon) {
			stats.Matched++
		} else {
			stats.Discarded++
		}
	}
	return stats
}

func buildMatchIndex(set *IdentitySet, canon *match.Canonicalizer) *match.Index {
	ix := match.NewIndex(canon)
	for _, key := range set.Keys() {
		ix.Add(set.MatchableName(set.Get(key)))
	}
	return ix
}

// annotateMatch looks the record's name up in the index and, on a hit,
// annotates the first identity in set order whose matchable name is among
// the matched variants.
func annotateMatch(set *IdentitySet, ix *match.Index, rec tabular.SourceRecord, prefix string, canon *match.Canonicalizer) bool {
	matches := ix.Lookup(rec.CompanyName)
	if len(matches) == 0 {
		return false
	}
	matched := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		matched[m] = struct{}{}
	}
	for _, key := range set.Keys() {
		id := set.Get(key)
		if _, ok := matched[set.MatchableName(id)]; ok {
			setSourceAttrs(id, prefix, rec)
			return true
		}
	}
	return false
}

func setSourceAttrs(id *Identity, prefix string, rec tabular.SourceRecord) {
	id.SourceNames[prefix] = rec.CompanyName
	if site := strings.TrimSpace(rec.Website); site != "" {
		id.SourceSites[prefix] = site
	}
}
