package model

import (
	"context"
	"encoding/json"
)

// FaultInjectionRecord is what was done to the fleet when a stage started.
type FaultInjectionRecord struct {
	RunID             int64    `json:"load_test_run_id"`
	StageID           int64    `json:"load_test_stage_id"`
	Status            string   `json:"status"`
	Reason            string   `json:"reason,omitempty"`
	ASGName           string   `json:"asg_name"`
	TemplateID        string   `json:"template_id,omitempty"`
	ExperimentARN     string   `json:"experiment_arn,omitempty"`
	TargetInstanceIDs []string `json:"target_instance_ids,omitempty"`
	Error             string   `json:"error,omitempty"`
}

func (st *Store) RecordFaultInjection(ctx context.Context, rec FaultInjectionRecord) error {
	targets, err := json.Marshal(rec.TargetInstanceIDs)
	if err != nil {
		return err
	}
	q, err := st.db.PrepareContext(ctx, `insert load_test_fault_injection set load_test_run_id=?, load_test_stage_id=?,
		status=?, reason=?, asg_name=?, template_id=?, experiment_arn=?, target_instance_ids=?, error=?`)
	if err != nil {
		return err
	}
	defer q.Close()
	_, err = q.ExecContext(ctx, rec.RunID, rec.StageID, rec.Status, rec.Reason, rec.ASGName, rec.TemplateID,
		rec.ExperimentARN, targets, rec.Error)
	return err
}
