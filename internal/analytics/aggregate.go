package analytics

import (
	"sort"

	"finboard/internal/core"
)

// Unassigned is the sentinel key for records whose grouping dimension is
// missing.
const Unassigned = "Unassigned"

// Group accumulates the amount sum and record count for one key.
type Group struct {
	Key   string  `json:"key"`
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
}

// GroupSum groups records by an arbitrary key and sums their amounts.
// Output order is insertion order of first key occurrence. A record with a
// missing key lands under Unassigned; an invalid amount contributes 0 but
// the record is still counted.
func GroupSum[T any](records []T, key func(T) string, amount func(T) float64) []Group {
	index := make(map[string]int, len(records))
	groups := make([]Group, 0, len(records))

	for _, r := range records {
		k := key(r)
		if k == "" {
			k = Unassigned
		}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Sum += core.SanitizeAmount(amount(r))
		groups[i].Count++
	}

	return groups
}

// TopN returns the n largest groups by sum, descending. The input slice is
// left untouched. n <= 0 returns all groups sorted.
func TopN(groups []Group, n int) []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sum > out[j].Sum
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TotalSum returns the combined sum across groups.
func TotalSum(groups []Group) float64 {
	var total float64
	for _, g := range groups {
		total += g.Sum
	}
	return total
}

// MergeGroups merges keyed sums from several scopes by additive union.
// Key order is first occurrence across the inputs in order.
func MergeGroups(sets ...[]Group) []Group {
	index := make(map[string]int)
	var merged []Group
	for _, set := range sets {
		for _, g := range set {
			i, ok := index[g.Key]
			if !ok {
				i = len(merged)
				index[g.Key] = i
				merged = append(merged, Group{Key: g.Key})
			}
			merged[i].Sum += g.Sum
			merged[i].Count += g.Count
		}
	}
	return merged
}
