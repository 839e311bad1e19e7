package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	assert.Equal(t, 4.0, Percentile(values, 0.95).Float64)
	assert.Equal(t, 1.0, Percentile(values, 0).Float64)
	assert.Equal(t, 5.0, Percentile(values, 1).Float64)
	assert.Equal(t, 1.0, Percentile(values, -3).Float64)
	assert.Equal(t, 5.0, Percentile(values, 7).Float64)
	// input is not reordered
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, values)
}

func TestPercentileRounds(t *testing.T) {
	assert.Equal(t, 1.2346, Percentile([]float64{1.23456789}, 0.95).Float64)
}

func TestPercentileEmpty(t *testing.T) {
	assert.False(t, Percentile(nil, 0.95).Valid)
	assert.False(t, Percentile([]float64{math.NaN(), math.Inf(1)}, 0.95).Valid)
}

func TestPercentileNoInterpolation(t *testing.T) {
	values := make([]float64, 0, 100)
	for i := 1; i <= 100; i++ {
		values = append(values, float64(i))
	}
	// floor(99*0.95) = 94
	assert.Equal(t, 95.0, Percentile(values, 0.95).Float64)
}
