package model

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestMarkRunLifecycle(t *testing.T) {
	store, mock := newMockStore(t)
	run := &LoadTestRun{ID: 5, Status: RunPending}
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectPrepare("update load_test_run set status=\\?, started_at").ExpectExec().
		WithArgs("running", "2024-03-01 10:00:00", 5, "pending").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectPrepare("update load_test_run set status=\\?, completed_at").ExpectExec().
		WithArgs("failed", sqlmock.AnyArg(), 5).WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.MarkRunStarted(context.Background(), run, at))
	assert.Equal(t, RunRunning, run.Status)
	assert.Equal(t, at, run.StartedAt.Time)

	assert.NoError(t, store.MarkRunFinished(context.Background(), run, RunFailed, at.Add(time.Minute)))
	assert.Equal(t, RunFailed, run.Status)
	assert.True(t, run.CompletedAt.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRunStartedLosesClaim(t *testing.T) {
	store, mock := newMockStore(t)
	run := &LoadTestRun{ID: 5, Status: RunPending}
	mock.ExpectPrepare("update load_test_run set status=\\?, started_at=\\? where id=\\? and status=\\?").ExpectExec().
		WithArgs("running", sqlmock.AnyArg(), 5, "pending").WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.MarkRunStarted(context.Background(), run, time.Now())
	assert.ErrorIs(t, err, ErrRunNotPending)
	assert.Equal(t, RunPending, run.Status)
	assert.False(t, run.StartedAt.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRunIDsByStatus(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectPrepare("select id from load_test_run where status").ExpectQuery().WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(9))
	ids, err := store.GetRunIDsByStatus(context.Background(), RunPending)
	assert.NoError(t, err)
	assert.Equal(t, []int64{3, 9}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFaultInjection(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectPrepare("insert load_test_fault_injection").ExpectExec().
		WithArgs(5, 11, "started", "", "gpu-asg", "EXT123", "arn:aws:fis:exp/1", []byte(`["i-1","i-2"]`), "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	err := store.RecordFaultInjection(context.Background(), FaultInjectionRecord{
		RunID:             5,
		StageID:           11,
		Status:            "started",
		ASGName:           "gpu-asg",
		TemplateID:        "EXT123",
		ExperimentARN:     "arn:aws:fis:exp/1",
		TargetInstanceIDs: []string{"i-1", "i-2"},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunGetStage(t *testing.T) {
	run := &LoadTestRun{ID: 1, Stages: []*LoadTestStage{{ID: 4}, {ID: 9}}}
	s, err := run.GetStage(9)
	assert.NoError(t, err)
	assert.Equal(t, int64(9), s.ID)
	_, err = run.GetStage(5)
	var dbErr *DBError
	assert.ErrorAs(t, err, &dbErr)
}
