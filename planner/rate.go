package planner

import (
	"math"

	"github.com/rakutentech/fleetbench/model"
)

// TargetRPSForSecond returns the rate a stage asks for at the given second.
// Seconds outside the stage are clamped to its first or last second and the
// result is never negative.
func TargetRPSForSecond(stage model.LoadTestStage, elapsed int) float64 {
	r := stage.TargetRPS
	if r <= 0 || math.IsNaN(r) {
		return 0
	}
	d := stage.DurationSeconds
	if d < 1 {
		d = 1
	}
	s := elapsed
	if s < 0 {
		s = 0
	}
	if s > d-1 {
		s = d - 1
	}

	var rate float64
	switch stage.StageType {
	case model.StageRamp:
		if d == 1 {
			rate = r
		} else {
			rate = r * float64(s) / float64(d-1)
		}
	case model.StageDrop:
		if d == 1 {
			rate = r
		} else {
			rate = r * (1 - float64(s)/float64(d-1))
		}
	case model.StageSpike:
		if float64(s) < stage.Config.SpikeWindow() {
			rate = r * stage.Config.Multiplier()
		} else {
			rate = r
		}
	case model.StageSine:
		phase := 2 * math.Pi * stage.Config.Cycles() * float64(s) / float64(d)
		rate = r * clamp(0.5*(1+math.Sin(phase)), 0, 1)
	default:
		rate = r
	}
	if rate < 0 || math.IsNaN(rate) {
		return 0
	}
	return rate
}

// DispatchCountForSecond turns the rate of one second plus the fractional
// remainder of the previous second into whole dispatches. The returned carry
// must be passed to the next second of the same stage. The count never exceeds
// model.MaxDispatchesPerSecond, excess work is dropped rather than carried.
func DispatchCountForSecond(stage model.LoadTestStage, elapsed int, carryIn float64) (int, float64) {
	if carryIn < 0 || math.IsNaN(carryIn) || math.IsInf(carryIn, 0) {
		carryIn = 0
	}
	total := TargetRPSForSecond(stage, elapsed) + carryIn
	if total >= model.MaxDispatchesPerSecond {
		return model.MaxDispatchesPerSecond, 0
	}
	count := math.Floor(total)
	return int(count), total - count
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
