package beacon

import (
	"github.com/activecm/rita-flow/pkg/flow"
)

// dissect groups accepted flows by (src, dst, dst port). Groups are
// returned in the order their first flow was seen.
func dissect(records []flow.Record) ([]tuple, map[tuple][]flow.Record) {
	var order []tuple
	groups := make(map[tuple][]flow.Record)

	for _, record := range records {
		if record.Action != flow.Accept {
			continue
		}
		key := tuple{src: record.SourceIP(), dst: record.DestIP(), port: record.DestPort}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], record)
	}
	return order, groups
}
