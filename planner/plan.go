package planner

import (
	"fmt"

	"github.com/rakutentech/fleetbench/model"
)

type StagePlan struct {
	StageID         int64           `json:"stage_id"`
	Position        int             `json:"position"`
	StageType       model.StageType `json:"stage_type"`
	DurationSeconds int             `json:"duration_seconds"`
	Ticks           []Tick          `json:"ticks"`
	TotalDispatches int             `json:"total_dispatches"`
	// fractional work left over at the end of the stage, dropped at the boundary
	RemainingCarry float64 `json:"remaining_carry"`
}

type Plan struct {
	Stages          []*StagePlan `json:"stages"`
	DurationSeconds int          `json:"duration_seconds"`
	TotalDispatches int          `json:"total_dispatches"`
}

// ValidateStages checks every stage before any of them is planned.
func ValidateStages(stages []*model.LoadTestStage) error {
	for i, s := range stages {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
	}
	return nil
}

// BuildPlan materialises the per second dispatch counts of an ordered list of
// stages. Carry starts at zero for every stage.
func BuildPlan(stages []*model.LoadTestStage) (*Plan, error) {
	if err := ValidateStages(stages); err != nil {
		return nil, err
	}
	plan := &Plan{Stages: make([]*StagePlan, 0, len(stages))}
	for _, s := range stages {
		sp := &StagePlan{
			StageID:         s.ID,
			Position:        s.Position,
			StageType:       s.StageType,
			DurationSeconds: s.DurationSeconds,
			Ticks:           make([]Tick, 0, s.DurationSeconds),
		}
		cursor := NewCursor(*s)
		for {
			t, ok := cursor.Next()
			if !ok {
				break
			}
			sp.Ticks = append(sp.Ticks, t)
			sp.TotalDispatches += t.Count
		}
		sp.RemainingCarry = cursor.Carry()
		plan.Stages = append(plan.Stages, sp)
		plan.DurationSeconds += s.DurationSeconds
		plan.TotalDispatches += sp.TotalDispatches
	}
	return plan, nil
}
