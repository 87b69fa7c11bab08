package establishment

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/eanna95/trevilleroofing/internal/tabular"
)

// OutputColumns is the fixed header of a sifted dataset. The trailing
// columns are the match audit trail: which target spellings matched, the
// canonical key used, and whether the match was ambiguous.
var OutputColumns = []string{
	"company_name",
	"state",
	"establishment_type",
	"size",
	"annual_average_employees",
	"total_hours_worked",
	"ein",
	"website",
	"match_company_name",
	"stripped_company_name",
	"company_name_multiple_match",
}

// SiftStats counts one sift pass.
type SiftStats struct {
	Rows      int
	Matched   int
	Companies int
}

// SiftByInput streams establishment rows, keeps those whose company name
// matches the target list, and aggregates the survivors into one record per
// canonical key, in first-match order.
func SiftByInput(rows <-chan tabular.Record, errs <-chan error, fl *FilterList) ([]tabular.Record, SiftStats, error) {
	var stats SiftStats
	groupOrder := make([]string, 0)
	groups := make(map[string][]tabular.Record)

	for row := range rows {
		stats.Rows++
		name := strings.TrimSpace(row["company_name"])
		key, originals := fl.MatchNames(name)
		if len(originals) == 0 {
			continue
		}
		stats.Matched++
		enhanced := cloneRecord(row)
		enhanced["match_company_name"] = quoteJoin(originals)
		enhanced["stripped_company_name"] = key
		enhanced["company_name_multiple_match"] = strconv.FormatBool(len(originals) > 1)
		enhanced["website"] = fl.Website(key)
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], enhanced)
	}
	if err := <-errs; err != nil {
		return nil, stats, eris.Wrap(err, "establishment: reading input rows")
	}

	out := make([]tabular.Record, 0, len(groupOrder))
	for _, key := range groupOrder {
		out = append(out, Aggregate(groups[key]))
	}
	stats.Companies = len(out)
	return out, stats, nil
}

// SiftByFilter inverts the pass: every target-list entry produces exactly
// one output row, aggregated from its matching establishment rows when any
// exist and blank otherwise. Useful when the caller needs the target list's
// full coverage visible in the output.
func SiftByFilter(rows <-chan tabular.Record, errs <-chan error, fl *FilterList) ([]tabular.Record, SiftStats, error) {
	var stats SiftStats
	matched := make(map[string][]tabular.Record)
	for row := range rows {
		stats.Rows++
		name := strings.TrimSpace(row["company_name"])
		if name == "" {
			continue
		}
		key, originals := fl.MatchNames(name)
		if len(originals) == 0 {
			continue
		}
		stats.Matched++
		matched[key] = append(matched[key], row)
	}
	if err := <-errs; err != nil {
		return nil, stats, eris.Wrap(err, "establishment: reading input rows")
	}

	out := make([]tabular.Record, 0, len(fl.Entries()))
	for _, entry := range fl.Entries() {
		key := fl.canon.Canonicalize(entry.CompanyName)
		hits := matched[key]
		if len(hits) == 0 {
			out = append(out, tabular.Record{
				"company_name":                entry.CompanyName,
				"state":                       entry.State,
				"stripped_company_name":       key,
				"website":                     fl.Website(key),
				"company_name_multiple_match": "false",
			})
			continue
		}

		distinct := make(map[string]struct{}, len(hits))
		for _, hit := range hits {
			distinct[strings.TrimSpace(hit["company_name"])] = struct{}{}
		}
		multiple := strconv.FormatBool(len(distinct) > 1)

		enhanced := make([]tabular.Record, 0, len(hits))
		for _, hit := range hits {
			e := cloneRecord(hit)
			e["match_company_name"] = quoteJoin([]string{strings.TrimSpace(hit["company_name"])})
			e["company_name"] = entry.CompanyName
			e["state"] = entry.State
			e["stripped_company_name"] = key
			e["company_name_multiple_match"] = multiple
			e["website"] = fl.Website(key)
			enhanced = append(enhanced, e)
		}
		out = append(out, Aggregate(enhanced))
	}
	stats.Companies = len(out)
	return out, stats, nil
}

// Aggregate folds establishment rows for one company into a single record.
// The first row supplies the non-numeric fields, numeric measures are
// summed with unparseable cells contributing zero, and EINs and
// establishment types become sorted unions.
func Aggregate(rows []tabular.Record) tabular.Record {
	if len(rows) == 0 {
		return tabular.Record{}
	}
	out := cloneRecord(rows[0])

	var size, employees, hours int64
	eins := make(map[string]struct{})
	types := make(map[string]struct{})
	for _, row := range rows {
		size += tabular.ParseIntOr(row["size"], 0)
		employees += tabular.ParseIntOr(row["annual_average_employees"], 0)
		hours += tabular.ParseIntOr(row["total_hours_worked"], 0)
		if ein := strings.TrimSpace(row["ein"]); ein != "" {
			eins[ein] = struct{}{}
		}
		if et := strings.TrimSpace(row["establishment_type"]); et != "" {
			types[et] = struct{}{}
		}
	}
	out["size"] = strconv.FormatInt(size, 10)
	out["annual_average_employees"] = strconv.FormatInt(employees, 10)
	out["total_hours_worked"] = strconv.FormatInt(hours, 10)
	out["ein"] = joinSorted(eins)
	out["establishment_type"] = joinSorted(types)
	delete(out, "establishment_name")
	return out
}

func cloneRecord(rec tabular.Record) tabular.Record {
	out := make(tabular.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// quoteJoin renders matched names as 'a', 'b' so embedded double quotes in
// company names never fight the CSV writer.
func quoteJoin(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, "'"+n+"'")
	}
	return strings.Join(quoted, ", ")
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
