package metrics

import (
	"math"
	"sort"

	"github.com/guregu/null"

	"github.com/rakutentech/fleetbench/utils"
)

const percentilePlaces = 4

// Percentile picks the nearest lower rank, index floor((n-1)*p), without
// interpolating between neighbours. NaN and infinite samples are ignored and
// an empty sample gives null.
func Percentile(values []float64, p float64) null.Float {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sorted = append(sorted, v)
	}
	if len(sorted) == 0 {
		return null.Float{}
	}
	sort.Float64s(sorted)
	idx := int(math.Floor(float64(len(sorted)-1) * clamp(p, 0, 1)))
	return null.FloatFrom(utils.Round(sorted[idx], percentilePlaces))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
