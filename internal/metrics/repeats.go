package metrics

import (
	"sort"
	"time"
)

// DefaultRepeatWindow is the rolling window within which a second setup for
// the same item/work-order counts as a repeat fault.
const DefaultRepeatWindow = 24 * time.Hour

type repeatKey struct {
	itemCode    string
	workOrderID string
}

// DetectRepeats flags setups for the same (item, work order) that start
// within window of the previous setup in the same partition. The relation is
// forward-looking: the earliest setup in a cluster is never flagged, and
// flags chain through the rolling window, so a setup 30h after the first is
// still a repeat when a setup 10h before it exists. Exactly window apart is
// not a repeat. Setups missing item or work-order identity are never flagged.
//
// Correctness requires the caller to supply the complete partition for each
// key; a partial batch under-flags.
func DetectRepeats(records []SetupInput, window time.Duration) map[string]bool {
	if window <= 0 {
		window = DefaultRepeatWindow
	}

	partitions := make(map[repeatKey][]SetupInput)
	for _, r := range records {
		if r.ItemCode == "" || r.WorkOrderID == "" {
			continue
		}
		k := repeatKey{itemCode: r.ItemCode, workOrderID: r.WorkOrderID}
		partitions[k] = append(partitions[k], r)
	}

	repeats := make(map[string]bool)
	for _, part := range partitions {
		sort.Slice(part, func(i, j int) bool {
			if !part[i].Start.Equal(part[j].Start) {
				return part[i].Start.Before(part[j].Start)
			}
			return part[i].ID < part[j].ID
		})
		for i := 1; i < len(part); i++ {
			if part[i].Start.Sub(part[i-1].Start) < window {
				repeats[part[i].ID] = true
			}
		}
	}
	return repeats
}
