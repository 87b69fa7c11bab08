package affinity

import "strings"

// Dedupe removes duplicate organizations keyed on lowercased domain and
// name. The first occurrence wins, so callers that care about priority
// order their input accordingly.
func Dedupe(orgs []Organization) []Organization {
	seen := make(map[string]struct{}, len(orgs))
	out := make([]Organization, 0, len(orgs))
	for _, org := range orgs {
		key := strings.ToLower(strings.TrimSpace(org.Domain)) + "|" + strings.ToLower(strings.TrimSpace(org.Name))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, org)
	}
	return out
}
