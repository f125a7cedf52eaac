package beacon

import (
	"sort"

	"github.com/activecm/rita-flow/pkg/flow"
)

// sortByTime orders a group chronologically. Equal timestamps keep
// their input order.
func sortByTime(group []flow.Record) {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].Timestamp.Before(group[j].Timestamp)
	})
}

// intervals returns the seconds elapsed between consecutive flows of a
// sorted group
func intervals(group []flow.Record) []float64 {
	if len(group) < 2 {
		return nil
	}
	diff := make([]float64, len(group)-1)
	for i := 1; i < len(group); i++ {
		diff[i-1] = group[i].Timestamp.Sub(group[i-1].Timestamp).Seconds()
	}
	return diff
}
