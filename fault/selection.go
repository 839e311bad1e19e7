package fault

import (
	"math"
	"sort"
)

// SelectTargetInstanceIDs returns the first ceil(len*rate) instance IDs in
// ascending order, at least one when rate is positive. The prefix is
// deterministic so repeated runs against the same fleet hit the same instances.
func SelectTargetInstanceIDs(instanceIDs []string, rate float64) []string {
	if rate <= 0 || math.IsNaN(rate) || len(instanceIDs) == 0 {
		return []string{}
	}
	sorted := append([]string(nil), instanceIDs...)
	sort.Strings(sorted)

	want := math.Ceil(float64(len(sorted)) * rate)
	n := len(sorted)
	if want < float64(n) {
		n = int(want)
	}
	if n < 1 {
		n = 1
	}
	return sorted[:n]
}
