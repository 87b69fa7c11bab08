package consolidate

import (
	"sort"
	"strconv"
	"strings"
)

// ConsolidatedColumns is the header of a consolidated dataset: identity
// columns first, then the per-year measures ascending, with the canonical
// key last.
func ConsolidatedColumns(years []string) []string {
	cols := []string{"company_name", "ein"}
	for _, y := range years {
		cols = append(cols, employeesPrefix+y)
	}
	for _, y := range years {
		cols = append(cols, hoursPrefix+y)
	}
	return append(cols, "stripped_company_name")
}

// MergedColumns extends the consolidated header with the per-source
// annotation columns. Website columns appear only for sources that actually
// carried one, name columns for every source, then the base dataset's own
// name as a passthrough.
func MergedColumns(set *IdentitySet) []string {
	cols := []string{"company_name", "ein"}
	for _, y := range set.Years {
		cols = append(cols, employeesPrefix+y)
	}
	for _, y := range set.Years {
		cols = append(cols, hoursPrefix+y)
	}
	for _, prefix := range set.Sources {
		if sourceHasSites(set, prefix) {
			cols = append(cols, prefix+"_website")
		}
	}
	for _, prefix := range set.Sources {
		cols = append(cols, prefix+"_company_name")
	}
	cols = append(cols, "osha_company_name")
	return append(cols, "stripped_company_name")
}

func sourceHasSites(set *IdentitySet, prefix string) bool {
	for _, key := range set.Keys() {
		if set.Get(key).SourceSites[prefix] != "" {
			return true
		}
	}
	return false
}

// Rows renders every identity under the given header, sorted by display
// name case-insensitively; identities without a display name sort by their
// canonical key, which also breaks ties.
func Rows(set *IdentitySet, columns []string) [][]string {
	ordered := make([]*Identity, 0, set.Len())
	for _, key := range set.Keys() {
		ordered = append(ordered, set.Get(key))
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := sortKey(ordered[i]), sortKey(ordered[j])
		if a != b {
			return a < b
		}
		return ordered[i].CanonicalKey < ordered[j].CanonicalKey
	})

	rows := make([][]string, 0, len(ordered))
	for _, id := range ordered {
		row := make([]string, 0, len(columns))
		for _, col := range columns {
			row = append(row, cellFor(id, col))
		}
		rows = append(rows, row)
	}
	return rows
}

func sortKey(id *Identity) string {
	if id.DisplayName != "" {
		return strings.ToLower(id.DisplayName)
	}
	return id.CanonicalKey
}

func cellFor(id *Identity, col string) string {
	switch col {
	case "company_name":
		return id.DisplayName
	case "ein":
		return id.EIN
	case "osha_company_name":
		return id.BaseName
	case "stripped_company_name":
		return id.CanonicalKey
	}
	if y, ok := strings.CutPrefix(col, employeesPrefix); ok {
		return strconv.FormatInt(id.Employees[y], 10)
	}
	if y, ok := strings.CutPrefix(col, hoursPrefix); ok {
		return strconv.FormatInt(id.Hours[y], 10)
	}
	if prefix, ok := strings.CutSuffix(col, "_website"); ok {
		return id.SourceSites[prefix]
	}
	if prefix, ok := strings.CutSuffix(col, "_company_name"); ok {
		return id.SourceNames[prefix]
	}
	return ""
}
