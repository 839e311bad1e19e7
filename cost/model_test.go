package cost

import (
	"testing"

	"github.com/guregu/null"
	"github.com/stretchr/testify/assert"
)

func referenceInput() Input {
	return Input{
		StartupSeconds:          120,
		BusySecondsPerRun:       30,
		IdleSecondsAfterBatch:   60,
		ComputeRateUSDPerSecond: 0.01,
		PartnerCostUSDPerRun:    null.FloatFrom(0.2),
		RevenueUSDPerRun:        null.FloatFrom(1.0),
		RunCounts:               []int{1, 10, 100},
	}
}

func TestBuild(t *testing.T) {
	res := Build(referenceInput())
	assert.Equal(t, []int{1, 10, 100}, res.RunCounts)
	assert.False(t, res.DefaultedRunCounts)
	assert.Equal(t, 3, len(res.Rows))

	one := res.Rows[0]
	assert.Equal(t, 0.3, one.ProcessingOnlyComputeCostUSD)
	assert.Equal(t, 2.1, one.EffectiveComputeCostUSD)
	assert.Equal(t, 2.3, one.TotalCostUSD)
	assert.Equal(t, 1.0, one.RevenueTotalUSD.Float64)
	assert.Equal(t, -1.3, one.MarginUSD.Float64)

	ten := res.Rows[1]
	assert.Equal(t, 3.0, ten.ProcessingOnlyComputeCostUSD)
	assert.Equal(t, 4.8, ten.EffectiveComputeCostUSD)
	assert.Equal(t, 6.8, ten.TotalCostUSD)
	assert.Equal(t, 3.2, ten.MarginUSD.Float64)
	assert.Equal(t, 0.68, ten.CostPerRunUSD)

	hundred := res.Rows[2]
	assert.Equal(t, 31.8, hundred.EffectiveComputeCostUSD)
	assert.Equal(t, 51.8, hundred.TotalCostUSD)
	assert.Equal(t, 48.2, hundred.MarginUSD.Float64)
}

func TestBuildIsDeterministic(t *testing.T) {
	assert.Equal(t, Build(referenceInput()), Build(referenceInput()))
}

func TestBuildWithoutOptionalTerms(t *testing.T) {
	in := referenceInput()
	in.PartnerCostUSDPerRun = null.Float{}
	in.RevenueUSDPerRun = null.Float{}
	res := Build(in)
	one := res.Rows[0]
	assert.Equal(t, 2.1, one.TotalCostUSD)
	assert.Equal(t, 0.0, one.PartnerCostUSD)
	assert.False(t, one.RevenueTotalUSD.Valid)
	assert.False(t, one.MarginUSD.Valid)
}

func TestRunCountsDefault(t *testing.T) {
	for _, counts := range [][]int{nil, {}, {5, 0}, {-1}} {
		in := referenceInput()
		in.RunCounts = counts
		res := Build(in)
		assert.Equal(t, []int{1, 10, 100}, res.RunCounts)
		assert.True(t, res.DefaultedRunCounts)
	}

	in := referenceInput()
	in.RunCounts = nil
	res := BuildWithDefaults(in, []int{2, 4})
	assert.Equal(t, []int{2, 4}, res.RunCounts)
}
