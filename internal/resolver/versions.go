package resolver

import (
	"sort"

	"github.com/Masterminds/semver/v3"
)

// sortVersionsDesc orders versions from newest to oldest. Versions that are
// not semantic versions sort after all semantic ones, in reverse lexical order.
func sortVersionsDesc(versions []string) []string {
	sorted := append([]string(nil), versions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, erri := semver.NewVersion(sorted[i])
		vj, errj := semver.NewVersion(sorted[j])
		switch {
		case erri == nil && errj == nil:
			return vi.GreaterThan(vj)
		case erri == nil:
			return true
		case errj == nil:
			return false
		default:
			return sorted[i] > sorted[j]
		}
	})
	return sorted
}

// highestVersion returns the newest of versions, or "" for an empty list.
func highestVersion(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	return sortVersionsDesc(versions)[0]
}
