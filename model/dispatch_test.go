package model

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestGetDispatchOutcomes(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectPrepare(`select (.+) from dispatch where id in \(\?,\?\)`).ExpectQuery().WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "duration_seconds", "queue_wait_seconds",
			"processing_seconds"}).
			AddRow(1, "completed", 2.1, 0.4, 1.7).
			AddRow(2, "failed", 4.5, nil, nil))

	outcomes, err := store.GetDispatchOutcomes(context.Background(), []int64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 2, len(outcomes))
	assert.Equal(t, DispatchCompleted, outcomes[0].Status)
	assert.Equal(t, 1.7, outcomes[0].ProcessingSeconds.Float64)
	assert.False(t, outcomes[1].QueueWaitSeconds.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDispatchOutcomesEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	outcomes, err := store.GetDispatchOutcomes(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPartnerCostsAndQuality(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectPrepare("select coalesce").ExpectQuery().WithArgs(3, 4, 5).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(0.75))
	mock.ExpectPrepare("select composite_score").ExpectQuery().WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"composite_score"}))

	total, err := store.PartnerCostsForDispatches(context.Background(), []int64{3, 4, 5})
	assert.NoError(t, err)
	assert.Equal(t, 0.75, total)

	score, err := store.QualityForItem(context.Background(), 8)
	assert.NoError(t, err)
	assert.False(t, score.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEconomicsSetting(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectPrepare("select (.+) from economics_setting").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"token_usd_rate", "spot_multiplier", "instance_type_rates"}).
			AddRow(0.02, nil, []byte(`{"g5.xlarge": 1.006}`)))

	es, err := store.GetEconomicsSetting(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	assert.False(t, es.SpotMultiplier.Valid)
	rate, ok := es.HourlyRate("g5.xlarge")
	assert.True(t, ok)
	assert.Equal(t, 1.006, rate)
	_, ok = es.HourlyRate("p4d.24xlarge")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatchTickIgnoresReplay(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectPrepare("insert load_test_dispatch_tick").ExpectExec().WithArgs(1, 2, 0, 3, 2.5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectPrepare("insert load_test_dispatch_tick").ExpectExec().
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	tick := DispatchTick{RunID: 1, StageID: 2, Second: 0, Count: 3, TargetRPS: 2.5}
	assert.NoError(t, store.Dispatch(context.Background(), tick))
	assert.NoError(t, store.Dispatch(context.Background(), tick))
	assert.NoError(t, mock.ExpectationsWereMet())
}
