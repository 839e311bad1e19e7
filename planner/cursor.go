package planner

import "github.com/rakutentech/fleetbench/model"

type Tick struct {
	Second    int     `json:"second"`
	TargetRPS float64 `json:"target_rps"`
	Count     int     `json:"count"`
	Carry     float64 `json:"carry"`
}

// Cursor walks one stage second by second, threading the carry between
// ticks. A cursor belongs to a single run and is not safe for concurrent use.
type Cursor struct {
	stage  model.LoadTestStage
	second int
	carry  float64
}

func NewCursor(stage model.LoadTestStage) *Cursor {
	return &Cursor{stage: stage}
}

// Next returns the next tick, or false once the stage duration is used up.
func (c *Cursor) Next() (Tick, bool) {
	if c.second >= c.stage.DurationSeconds {
		return Tick{}, false
	}
	rate := TargetRPSForSecond(c.stage, c.second)
	count, carry := DispatchCountForSecond(c.stage, c.second, c.carry)
	t := Tick{Second: c.second, TargetRPS: rate, Count: count, Carry: carry}
	c.carry = carry
	c.second++
	return t, true
}

func (c *Cursor) Carry() float64 {
	return c.carry
}
