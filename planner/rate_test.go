package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rakutentech/fleetbench/model"
)

func floatPtr(f float64) *float64 {
	return &f
}

func TestSteadyIsConstant(t *testing.T) {
	stage := model.LoadTestStage{StageType: model.StageSteady, DurationSeconds: 30, TargetRPS: 3.5}
	for s := 0; s < stage.DurationSeconds; s++ {
		assert.Equal(t, 3.5, TargetRPSForSecond(stage, s))
	}
}

func TestRampAndDrop(t *testing.T) {
	ramp := model.LoadTestStage{StageType: model.StageRamp, DurationSeconds: 5, TargetRPS: 4}
	assert.Equal(t, 0.0, TargetRPSForSecond(ramp, 0))
	assert.Equal(t, 2.0, TargetRPSForSecond(ramp, 2))
	assert.Equal(t, 4.0, TargetRPSForSecond(ramp, 4))

	drop := model.LoadTestStage{StageType: model.StageDrop, DurationSeconds: 5, TargetRPS: 4}
	assert.Equal(t, 4.0, TargetRPSForSecond(drop, 0))
	assert.Equal(t, 2.0, TargetRPSForSecond(drop, 2))
	assert.Equal(t, 0.0, TargetRPSForSecond(drop, 4))
}

func TestSingleSecondStageDoesNotInterpolate(t *testing.T) {
	for _, st := range []model.StageType{model.StageRamp, model.StageDrop} {
		stage := model.LoadTestStage{StageType: st, DurationSeconds: 1, TargetRPS: 7}
		assert.Equal(t, 7.0, TargetRPSForSecond(stage, 0))
	}
}

func TestSpike(t *testing.T) {
	stage := model.LoadTestStage{
		StageType:       model.StageSpike,
		DurationSeconds: 6,
		TargetRPS:       2,
		Config:          model.StageConfig{SpikeMultiplier: floatPtr(3), SpikeSeconds: floatPtr(2)},
	}
	assert.Equal(t, 6.0, TargetRPSForSecond(stage, 0))
	assert.Equal(t, 6.0, TargetRPSForSecond(stage, 1))
	assert.Equal(t, 2.0, TargetRPSForSecond(stage, 2))
	assert.Equal(t, 2.0, TargetRPSForSecond(stage, 3))
}

func TestSine(t *testing.T) {
	stage := model.LoadTestStage{StageType: model.StageSine, DurationSeconds: 4, TargetRPS: 10}
	assert.Equal(t, 5.0, TargetRPSForSecond(stage, 0))
	assert.Equal(t, 10.0, TargetRPSForSecond(stage, 1))
	assert.InDelta(t, 0.0, TargetRPSForSecond(stage, 3), 1e-9)

	stage.DurationSeconds = 97
	stage.Config.SineCycles = floatPtr(3)
	for s := 0; s < stage.DurationSeconds; s++ {
		rate := TargetRPSForSecond(stage, s)
		assert.GreaterOrEqual(t, rate, 0.0)
		assert.LessOrEqual(t, rate, 10.0)
		assert.Equal(t, rate, TargetRPSForSecond(stage, s))
	}
}

func TestNonPositiveTargetPlansNothing(t *testing.T) {
	for _, target := range []float64{0, -3} {
		stage := model.LoadTestStage{StageType: model.StageSpike, DurationSeconds: 3, TargetRPS: target,
			Config: model.StageConfig{SpikeMultiplier: floatPtr(5), SpikeSeconds: floatPtr(3)}}
		count, carry := DispatchCountForSecond(stage, 0, 0)
		assert.Equal(t, 0, count)
		assert.Equal(t, 0.0, carry)
	}
}

func TestElapsedIsClamped(t *testing.T) {
	ramp := model.LoadTestStage{StageType: model.StageRamp, DurationSeconds: 5, TargetRPS: 4}
	assert.Equal(t, 0.0, TargetRPSForSecond(ramp, -2))
	assert.Equal(t, 4.0, TargetRPSForSecond(ramp, 50))
}

func TestFractionalCarry(t *testing.T) {
	stage := model.LoadTestStage{StageType: model.StageSteady, DurationSeconds: 100, TargetRPS: 1.25}
	expected := []struct {
		count int
		carry float64
	}{{1, 0.25}, {1, 0.5}, {1, 0.75}, {2, 0}}
	carry := 0.0
	for s, e := range expected {
		var count int
		count, carry = DispatchCountForSecond(stage, s, carry)
		assert.Equal(t, e.count, count)
		assert.Equal(t, e.carry, carry)
	}

	total := 0
	carry = 0
	for s := 0; s < stage.DurationSeconds; s++ {
		var count int
		count, carry = DispatchCountForSecond(stage, s, carry)
		total += count
	}
	assert.Equal(t, 125, total)
}

func TestNegativeCarryIgnored(t *testing.T) {
	stage := model.LoadTestStage{StageType: model.StageSteady, DurationSeconds: 1, TargetRPS: 1.5}
	count, carry := DispatchCountForSecond(stage, 0, -4)
	assert.Equal(t, 1, count)
	assert.Equal(t, 0.5, carry)
}

func TestDispatchCountNeverOverflows(t *testing.T) {
	stage := model.LoadTestStage{StageType: model.StageSteady, DurationSeconds: 1, TargetRPS: 1e19}
	count, carry := DispatchCountForSecond(stage, 0, 0.5)
	assert.Equal(t, model.MaxDispatchesPerSecond, count)
	assert.Equal(t, 0.0, carry)
}
