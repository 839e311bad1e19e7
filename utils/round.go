package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds half away from zero on the decimal representation of v, so
// 2.1000000000000005 becomes 2.1 rather than drifting with binary error.
// NaN and infinities are returned unchanged.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
