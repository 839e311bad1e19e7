package model

import (
	"context"
	"fmt"

	"github.com/guregu/null"
)

type DispatchStatus string

const (
	DispatchQueued    DispatchStatus = "queued"
	DispatchRunning   DispatchStatus = "running"
	DispatchCompleted DispatchStatus = "completed"
	DispatchFailed    DispatchStatus = "failed"
	DispatchCancelled DispatchStatus = "cancelled"
)

// DispatchOutcome is one unit of work sent to the fleet. Outcomes are written
// by the dispatch executor and never modified here.
type DispatchOutcome struct {
	ID                int64          `json:"id"`
	Status            DispatchStatus `json:"status"`
	DurationSeconds   null.Float     `json:"duration_seconds"`
	QueueWaitSeconds  null.Float     `json:"queue_wait_seconds"`
	ProcessingSeconds null.Float     `json:"processing_seconds"`
}

// DispatchTick is the number of dispatches the executor should send for one
// second of a stage.
type DispatchTick struct {
	RunID     int64   `json:"load_test_run_id"`
	StageID   int64   `json:"load_test_stage_id"`
	Second    int     `json:"second"`
	Count     int     `json:"count"`
	TargetRPS float64 `json:"target_rps"`
}

func (st *Store) GetDispatchOutcomes(ctx context.Context, ids []int64) ([]DispatchOutcome, error) {
	if len(ids) == 0 {
		return []DispatchOutcome{}, nil
	}
	query := fmt.Sprintf(`select id, status, duration_seconds, queue_wait_seconds, processing_seconds
		from dispatch where id in (%s) order by id`, placeholders(len(ids)))
	q, err := st.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer q.Close()
	rows, err := q.QueryContext(ctx, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	outcomes := []DispatchOutcome{}
	for rows.Next() {
		var o DispatchOutcome
		if err := rows.Scan(&o.ID, &o.Status, &o.DurationSeconds, &o.QueueWaitSeconds, &o.ProcessingSeconds); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// Dispatch stores a planned tick for the external dispatch executor.
func (st *Store) Dispatch(ctx context.Context, tick DispatchTick) error {
	q, err := st.db.PrepareContext(ctx, `insert load_test_dispatch_tick set load_test_run_id=?, load_test_stage_id=?,
		second=?, dispatch_count=?, target_rps=?`)
	if err != nil {
		return err
	}
	defer q.Close()
	_, err = q.ExecContext(ctx, tick.RunID, tick.StageID, tick.Second, tick.Count, tick.TargetRPS)
	if isDuplicateEntry(err) {
		return nil
	}
	return err
}
