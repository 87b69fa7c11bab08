package consolidate

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/eanna95/trevilleroofing/internal/match"
	"github.com/eanna95/trevilleroofing/internal/tabular"
)

// AggregateStats counts the rows an aggregation pass consumed and dropped.
type AggregateStats struct {
	Rows             int
	SkippedEmptyName int
	DroppedEmptyKey  int
}

// EstablishmentFromRecord maps a decoded row onto the fields aggregation
// cares about; everything else in the row is ignored.
func EstablishmentFromRecord(rec tabular.Record) Establishment {
	return Establishment{
		CompanyName: strings.TrimSpace(rec["company_name"]),
		EIN:         strings.TrimSpace(rec["ein"]),
		Employees:   rec["annual_average_employees"],
		Hours:       rec["total_hours_worked"],
	}
}

// AggregateYear folds establishment rows into one YearCompany per exact raw
// company name, then keys the result by canonical name. Unparseable
// measures contribute zero; rows with an empty name are skipped and
// counted; groups whose name canonicalizes to nothing are dropped and
// counted. When two raw-name groups collapse to the same canonical key the
// later group wins (they are resolved properly during cross-year
// consolidation when they carry identifiers).
func AggregateYear(year string, rows []Establishment, canon *match.Canonicalizer) (*YearMap, AggregateStats) {
	stats := AggregateStats{Rows: len(rows)}

	groupOrder := make([]string, 0, len(rows))
	groups := make(map[string][]Establishment)
	for _, row := range rows {
		if row.CompanyName == "" {
			stats.SkippedEmptyName++
			continue
		}
		if _, ok := groups[row.CompanyName]; !ok {
			groupOrder = append(groupOrder, row.CompanyName)
		}
		groups[row.CompanyName] = append(groups[row.CompanyName], row)
	}

	out := NewYearMap(year)
	for _, name := range groupOrder {
		key := canon.Canonicalize(name)
		if key == "" {
			stats.DroppedEmptyKey++
			zap.S().Warnw("dropping company with empty canonical name", "year", year, "company", name)
			continue
		}
		yc := &YearCompany{
			CompanyName:  name,
			CanonicalKey: key,
			Year:         year,
		}
		eins := make(map[string]struct{})
		for _, row := range groups[name] {
			yc.Employees += tabular.ParseMeasure(row.Employees, 0)
			yc.Hours += tabular.ParseMeasure(row.Hours, 0)
			if row.EIN != "" {
				eins[row.EIN] = struct{}{}
			}
		}
		yc.EIN = joinSorted(eins)
		out.Put(key, yc)
	}
	return out, stats
}

func joinSorted(set map[string]struct{}) string {
	if len(set) == 0 {
		return ""
	}
	vals := make([]string, 0, len(set))
	for v := range set {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	return strings.Join(vals, ", ")
}
