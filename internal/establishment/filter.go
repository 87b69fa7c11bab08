// Package establishment filters large establishment-level safety files
// down to a target list of companies, aggregating the survivors into one
// row per company with an audit trail of how each row matched.
package establishment

import (
	"strings"

	"go.uber.org/zap"

	"github.com/eanna95/trevilleroofing/internal/match"
	"github.com/eanna95/trevilleroofing/internal/tabular"
)

// FilterEntry is one row of the target-company list.
type FilterEntry struct {
	CompanyName string
	State       string
	Website     string
}

// FilterList is the loaded target list: a name-matching index plus the
// per-company website carried over from the list itself.
type FilterList struct {
	canon    *match.Canonicalizer
	index    *match.Index
	websites map[string]string
	entries  []FilterEntry
}

// FilterStats counts what loading the target list skipped.
type FilterStats struct {
	Rows            int
	EmptyNames      int
	DroppedEmptyKey int
}

// LoadFilter builds a FilterList from decoded rows. Rows without a company
// name are skipped; names that canonicalize to nothing are dropped with a
// warning. The first website seen for a canonical key wins.
func LoadFilter(rows []tabular.Record, canon *match.Canonicalizer) (*FilterList, FilterStats) {
	fl := &FilterList{
		canon:    canon,
		index:    match.NewIndex(canon),
		websites: make(map[string]string),
	}
	stats := FilterStats{Rows: len(rows)}
	for _, row := range rows {
		name := strings.TrimSpace(row["company_name"])
		if name == "" {
			stats.EmptyNames++
			continue
		}
		key := canon.Canonicalize(name)
		if key == "" {
			stats.DroppedEmptyKey++
			zap.S().Warnw("filter entry has no usable company name", "company", name)
			continue
		}
		fl.index.Add(name)
		if site := strings.TrimSpace(row["website"]); site != "" {
			if _, ok := fl.websites[key]; !ok {
				fl.websites[key] = site
			}
		}
		fl.entries = append(fl.entries, FilterEntry{
			CompanyName: name,
			State:       strings.TrimSpace(row["state"]),
			Website:     strings.TrimSpace(row["website"]),
		})
	}
	return fl, stats
}

// Len returns the number of distinct canonical keys in the list.
func (fl *FilterList) Len() int { return fl.index.Len() }

// Entries returns the usable target rows in file order.
func (fl *FilterList) Entries() []FilterEntry { return fl.entries }

// Website returns the website recorded for a canonical key, if any.
func (fl *FilterList) Website(key string) string { return fl.websites[key] }

// MatchNames returns the original target-list spellings matching the given
// raw name, or nil when the name is not on the list.
func (fl *FilterList) MatchNames(name string) (string, []string) {
	key := fl.canon.Canonicalize(name)
	if key == "" {
		return "", nil
	}
	return key, fl.index.Names(key)
}
