package consolidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eanna95/trevilleroofing/internal/match"
	"github.com/eanna95/trevilleroofing/internal/tabular"
)

func baseSet(t *testing.T) *IdentitySet {
	t.Helper()
	rows := []tabular.Record{
		{
			"company_name": "Apex Roofing LLC", "ein": "11",
			"annual_average_employees_2021": "10", "annual_average_employees_2022": "12",
			"total_hours_worked_2021": "100", "total_hours_worked_2022": "120",
		},
		{
			"company_name": "Beta Builders", "ein": "",
			"annual_average_employees_2021": "3", "annual_average_employees_2022": "0",
			"total_hours_worked_2021": "30", "total_hours_worked_2022": "0",
		},
	}
	columns := []string{
		"company_name", "ein",
		"annual_average_employees_2021", "annual_average_employees_2022",
		"total_hours_worked_2021", "total_hours_worked_2022",
		"stripped_company_name",
	}
	set, err := LoadBase(rows, columns, match.Default())
	require.NoError(t, err)
	return set
}

func TestLoadBase(t *testing.T) {
	set := baseSet(t)
	require.Equal(t, []string{"2021", "2022"}, set.Years)
	require.Equal(t, 2, set.Len())

	apex := set.Get("apex roofing")
	require.NotNil(t, apex)
	assert.Equal(t, "Apex Roofing LLC", apex.BaseName)
	assert.Empty(t, apex.DisplayName)
	assert.Equal(t, "11", apex.EIN)
	assert.Equal(t, int64(12), apex.Employees["2022"])
	assert.Equal(t, int64(100), apex.Hours["2021"])
}

func TestLoadBase_NoYearColumns(t *testing.T) {
	_, err := LoadBase(nil, []string{"company_name", "ein"}, match.Default())
	assert.Error(t, err)
}

func TestLoadBase_SkipsUnusableNames(t *testing.T) {
	rows := []tabular.Record{
		{"company_name": "", "annual_average_employees_2022": "5"},
		{"company_name": "Inc.", "annual_average_employees_2022": "5"},
		{"company_name": "Kilo Coatings", "annual_average_employees_2022": "5"},
	}
	set, err := LoadBase(rows, []string{"company_name", "annual_average_employees_2022", "total_hours_worked_2022"}, match.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
}

func TestMergeAdded_MatchUpdateAdd(t *testing.T) {
	set := baseSet(t)
	records := []tabular.SourceRecord{
		{CompanyName: "Apex Roofing, Inc.", Website: "apexroofing.com"}, // fuzzy match on Apex
		{CompanyName: "New Heights Roofing", Website: "newheights.io"},  // brand new
		{CompanyName: "New Heights Roofing LLC"},                        // exact key hit on the row above
	}
	stats := MergeAdded(set, records, "crm", match.Default())
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 1, stats.Matched)
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, []string{"crm"}, set.Sources)

	apex := set.Get("apex roofing")
	assert.Equal(t, "Apex Roofing, Inc.", apex.SourceNames["crm"])
	assert.Equal(t, "apexroofing.com", apex.SourceSites["crm"])

	added := set.Get("new heights roofing")
	require.NotNil(t, added)
	assert.Empty(t, added.BaseName)
	// The later exact-key record replaced the name but kept the website.
	assert.Equal(t, "New Heights Roofing LLC", added.SourceNames["crm"])
	assert.Equal(t, "newheights.io", added.SourceSites["crm"])
	// Added identities carry zeroed measures for every year.
	assert.Equal(t, int64(0), added.Employees["2021"])
	assert.Equal(t, int64(0), added.Hours["2022"])
}

func TestMergeAdded_UnmatchableNameIsCounted(t *testing.T) {
	set := baseSet(t)
	stats := MergeAdded(set, []tabular.SourceRecord{{CompanyName: "LLC"}}, "crm", match.Default())
	assert.Equal(t, 1, stats.Unmatchable)
	assert.Equal(t, 2, set.Len())
}

func TestMergeCombine_DiscardsUnmatched(t *testing.T) {
	set := baseSet(t)
	records := []tabular.SourceRecord{
		{CompanyName: "Beta Builders Inc", Website: "betabuilders.com"},
		{CompanyName: "Totally Unrelated Paving"},
	}
	stats := MergeCombine(set, records, "directory", match.Default())
	assert.Equal(t, 1, stats.Matched)
	assert.Equal(t, 1, stats.Discarded)
	assert.Equal(t, 2, set.Len(), "combine never grows the set")

	beta := set.Get("beta builders")
	assert.Equal(t, "Beta Builders Inc", beta.SourceNames["directory"])
	assert.Equal(t, "betabuilders.com", beta.SourceSites["directory"])
}

func TestMerge_LaterFileMatchesEarlierAdds(t *testing.T) {
	// A file's additions must be visible to the next file's matching.
	set := baseSet(t)
	MergeAdded(set, []tabular.SourceRecord{{CompanyName: "Lima Roofing Co"}}, "crm", match.Default())
	stats := MergeCombine(set, []tabular.SourceRecord{{CompanyName: "Lima Roofing, LLC", Website: "lima.example"}}, "directory", match.Default())
	assert.Equal(t, 1, stats.Matched)

	lima := set.Get("lima roofing")
	require.NotNil(t, lima)
	assert.Equal(t, "Lima Roofing Co", lima.SourceNames["crm"])
	assert.Equal(t, "Lima Roofing, LLC", lima.SourceNames["directory"])
	assert.Equal(t, "lima.example", lima.SourceSites["directory"])
}

func TestEnsureDisplayNames_FallbackChain(t *testing.T) {
	set := baseSet(t)
	MergeAdded(set, []tabular.SourceRecord{{CompanyName: "Mike's Metal Roofs"}}, "crm", match.Default())
	set.EnsureDisplayNames()

	assert.Equal(t, "Apex Roofing LLC", set.Get("apex roofing").DisplayName)
	assert.Equal(t, "Beta Builders", set.Get("beta builders").DisplayName)
	assert.Equal(t, "Mike's Metal Roofs", set.Get("mike's metal roofs").DisplayName)
}
