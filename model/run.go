package model

import (
	"context"
	"strconv"
	"time"

	"github.com/guregu/null"
)

type RunStatus string

const (
	RunPending  RunStatus = "pending"
	RunRunning  RunStatus = "running"
	RunFinished RunStatus = "finished"
	RunFailed   RunStatus = "failed"
)

// LoadTestRun is one execution of an ordered list of stages against one
// execution environment.
type LoadTestRun struct {
	ID                     int64            `json:"id"`
	Name                   string           `json:"name"`
	ExecutionEnvironmentID int64            `json:"execution_environment_id"`
	Status                 RunStatus        `json:"status"`
	StartedAt              null.Time        `json:"started_at"`
	CompletedAt            null.Time        `json:"completed_at"`
	Stages                 []*LoadTestStage `json:"stages,omitempty"`
}

func (r *LoadTestRun) IDString() string {
	return strconv.FormatInt(r.ID, 10)
}

// GetStage finds a stage among the ones loaded with the run.
func (r *LoadTestRun) GetStage(stageID int64) (*LoadTestStage, error) {
	for _, s := range r.Stages {
		if s.ID == stageID {
			return s, nil
		}
	}
	return nil, &DBError{Message: "stage not found"}
}

func (st *Store) GetRun(ctx context.Context, id int64) (*LoadTestRun, error) {
	q, err := st.db.PrepareContext(ctx, `select id, name, execution_environment_id, status, started_at, completed_at
		from load_test_run where id=?`)
	if err != nil {
		return nil, err
	}
	defer q.Close()
	run := new(LoadTestRun)
	err = q.QueryRowContext(ctx, id).Scan(&run.ID, &run.Name, &run.ExecutionEnvironmentID, &run.Status,
		&run.StartedAt, &run.CompletedAt)
	if err != nil {
		return nil, notFoundOr(err, "load test run not found")
	}
	if run.Stages, err = st.GetStages(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

func (st *Store) updateRunStatus(ctx context.Context, query string, args ...interface{}) (int64, error) {
	q, err := st.db.PrepareContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer q.Close()
	r, err := q.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	return r.RowsAffected()
}

// MarkRunStarted claims a pending run. Only one caller can win the claim,
// every other one gets ErrRunNotPending.
func (st *Store) MarkRunStarted(ctx context.Context, run *LoadTestRun, at time.Time) error {
	n, err := st.updateRunStatus(ctx, "update load_test_run set status=?, started_at=? where id=? and status=?",
		RunRunning, at.UTC().Format(MySQLFormat), run.ID, RunPending)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotPending
	}
	run.Status = RunRunning
	run.StartedAt = null.TimeFrom(at)
	return nil
}

func (st *Store) MarkRunFinished(ctx context.Context, run *LoadTestRun, status RunStatus, at time.Time) error {
	_, err := st.updateRunStatus(ctx, "update load_test_run set status=?, completed_at=? where id=?",
		status, at.UTC().Format(MySQLFormat), run.ID)
	if err != nil {
		return err
	}
	run.Status = status
	run.CompletedAt = null.TimeFrom(at)
	return nil
}

// GetRunIDsByStatus lists runs in the given state, oldest first.
func (st *Store) GetRunIDsByStatus(ctx context.Context, status RunStatus) ([]int64, error) {
	q, err := st.db.PrepareContext(ctx, "select id from load_test_run where status=? order by id")
	if err != nil {
		return nil, err
	}
	defer q.Close()
	rows, err := q.QueryContext(ctx, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
