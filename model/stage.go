package model

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
)

type StageType string

const (
	StageSteady StageType = "steady"
	StageRamp   StageType = "ramp"
	StageDrop   StageType = "drop"
	StageSpike  StageType = "spike"
	StageSine   StageType = "sine"
)

func (st StageType) IsValid() bool {
	switch st {
	case StageSteady, StageRamp, StageDrop, StageSpike, StageSine:
		return true
	}
	return false
}

// StageConfig carries the shape specific parameters. Unset values fall back
// to a multiplier of 1, no spike window and a single sine cycle.
type StageConfig struct {
	SpikeMultiplier *float64 `json:"spike_multiplier,omitempty" yaml:"spike_multiplier,omitempty"`
	SpikeSeconds    *float64 `json:"spike_seconds,omitempty" yaml:"spike_seconds,omitempty"`
	SineCycles      *float64 `json:"sine_cycles,omitempty" yaml:"sine_cycles,omitempty"`
}

func (sc StageConfig) Multiplier() float64 {
	if sc.SpikeMultiplier == nil {
		return 1
	}
	return *sc.SpikeMultiplier
}

func (sc StageConfig) SpikeWindow() float64 {
	if sc.SpikeSeconds == nil {
		return 0
	}
	return *sc.SpikeSeconds
}

func (sc StageConfig) Cycles() float64 {
	if sc.SineCycles == nil {
		return 1
	}
	return *sc.SineCycles
}

type LoadTestStage struct {
	ID                        int64       `json:"id" yaml:"id,omitempty"`
	RunID                     int64       `json:"load_test_run_id" yaml:"load_test_run_id,omitempty"`
	Position                  int         `json:"position" yaml:"position,omitempty"`
	StageType                 StageType   `json:"stage_type" yaml:"stage_type"`
	DurationSeconds           int         `json:"duration_seconds" yaml:"duration_seconds"`
	TargetRPS                 float64     `json:"target_rps" yaml:"target_rps"`
	Config                    StageConfig `json:"config" yaml:"config"`
	FaultEnabled              bool        `json:"fault_enabled" yaml:"fault_enabled"`
	FaultMethod               string      `json:"fault_method" yaml:"fault_method"`
	FaultInterruptionRate     float64     `json:"fault_interruption_rate" yaml:"fault_interruption_rate"`
	FaultExperimentTemplateID string      `json:"fault_experiment_template_id" yaml:"fault_experiment_template_id"`
}

const (
	// MaxDispatchesPerSecond bounds the peak rate of a stage so a second's
	// dispatch count always fits an int.
	MaxDispatchesPerSecond = 100000
	MaxDurationSeconds     = 7 * 24 * 3600
)

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func checkOptional(field string, v *float64) error {
	if v == nil {
		return nil
	}
	if !isFinite(*v) || *v < 0 {
		return newValidationError(field, "must be a non-negative number, got %v", *v)
	}
	return nil
}

// Validate rejects parameters the planner cannot turn into a rate curve.
// A target rate at or below zero is valid and plans no dispatches.
func (s *LoadTestStage) Validate() error {
	if !s.StageType.IsValid() {
		return newValidationError("stage_type", "unknown stage type %q", string(s.StageType))
	}
	if s.DurationSeconds < 1 {
		return newValidationError("duration_seconds", "must be at least 1, got %d", s.DurationSeconds)
	}
	if s.DurationSeconds > MaxDurationSeconds {
		return newValidationError("duration_seconds", "must be at most %d, got %d", MaxDurationSeconds, s.DurationSeconds)
	}
	if !isFinite(s.TargetRPS) {
		return newValidationError("target_rps", "must be a finite number")
	}
	if err := checkOptional("config.spike_multiplier", s.Config.SpikeMultiplier); err != nil {
		return err
	}
	if peak := s.PeakRPS(); peak > MaxDispatchesPerSecond {
		return newValidationError("target_rps", "peak rate %v exceeds %d dispatches per second", peak, MaxDispatchesPerSecond)
	}
	if err := checkOptional("config.spike_seconds", s.Config.SpikeSeconds); err != nil {
		return err
	}
	if err := checkOptional("config.sine_cycles", s.Config.SineCycles); err != nil {
		return err
	}
	if !isFinite(s.FaultInterruptionRate) {
		return newValidationError("fault_interruption_rate", "must be a finite number")
	}
	if s.FaultEnabled && s.FaultInterruptionRate > 0 && s.FaultExperimentTemplateID == "" {
		return newValidationError("fault_experiment_template_id", "required when fault injection is enabled")
	}
	return nil
}

// PeakRPS is the highest rate the stage shape reaches.
func (s *LoadTestStage) PeakRPS() float64 {
	if s.TargetRPS <= 0 {
		return 0
	}
	if s.StageType == StageSpike && s.Config.SpikeWindow() > 0 && s.Config.Multiplier() > 1 {
		return s.TargetRPS * s.Config.Multiplier()
	}
	return s.TargetRPS
}

func (s *LoadTestStage) IDString() string {
	return strconv.FormatInt(s.ID, 10)
}

func (st *Store) GetStages(ctx context.Context, runID int64) ([]*LoadTestStage, error) {
	q, err := st.db.PrepareContext(ctx, `select id, load_test_run_id, position, stage_type, duration_seconds,
		target_rps, config, fault_enabled, fault_method, fault_interruption_rate, fault_experiment_template_id
		from load_test_stage where load_test_run_id=? order by position`)
	if err != nil {
		return nil, err
	}
	defer q.Close()
	rows, err := q.QueryContext(ctx, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stages := []*LoadTestStage{}
	for rows.Next() {
		s := new(LoadTestStage)
		var rawConfig []byte
		if err := rows.Scan(&s.ID, &s.RunID, &s.Position, &s.StageType, &s.DurationSeconds, &s.TargetRPS,
			&rawConfig, &s.FaultEnabled, &s.FaultMethod, &s.FaultInterruptionRate,
			&s.FaultExperimentTemplateID); err != nil {
			return nil, err
		}
		if err := decodeJSONColumn(rawConfig, &s.Config); err != nil {
			return nil, &DBError{Err: err, Message: "stage config is not valid json"}
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func (st *Store) CreateStage(ctx context.Context, s *LoadTestStage) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	rawConfig, err := json.Marshal(s.Config)
	if err != nil {
		return 0, err
	}
	q, err := st.db.PrepareContext(ctx, `insert load_test_stage set load_test_run_id=?, position=?, stage_type=?,
		duration_seconds=?, target_rps=?, config=?, fault_enabled=?, fault_method=?, fault_interruption_rate=?,
		fault_experiment_template_id=?`)
	if err != nil {
		return 0, err
	}
	defer q.Close()
	r, err := q.ExecContext(ctx, s.RunID, s.Position, s.StageType, s.DurationSeconds, s.TargetRPS, rawConfig,
		s.FaultEnabled, s.FaultMethod, s.FaultInterruptionRate, s.FaultExperimentTemplateID)
	if err != nil {
		return 0, err
	}
	id, _ := r.LastInsertId()
	s.ID = id
	return id, nil
}
