package model

import (
	"context"
	"time"

	"github.com/guregu/null"
)

type ItemMetrics struct {
	DispatchIDs []int64 `json:"dispatch_ids"`
}

type BenchmarkMatrixRunItem struct {
	ID                     int64       `json:"id"`
	MatrixRunID            int64       `json:"benchmark_matrix_run_id"`
	VariantID              int64       `json:"variant_id"`
	ExecutionEnvironmentID int64       `json:"execution_environment_id"`
	Metrics                ItemMetrics `json:"metrics"`
	StartedAt              null.Time   `json:"started_at"`
	CompletedAt            null.Time   `json:"completed_at"`
}

type BenchmarkMatrixRun struct {
	ID        int64                     `json:"id"`
	Name      string                    `json:"name"`
	Status    string                    `json:"status"`
	CreatedAt time.Time                 `json:"created_at"`
	Items     []*BenchmarkMatrixRunItem `json:"items"`
}

func (st *Store) GetMatrixRun(ctx context.Context, id int64) (*BenchmarkMatrixRun, error) {
	q, err := st.db.PrepareContext(ctx, "select id, name, status, created_at from benchmark_matrix_run where id=?")
	if err != nil {
		return nil, err
	}
	defer q.Close()
	mr := new(BenchmarkMatrixRun)
	if err := q.QueryRowContext(ctx, id).Scan(&mr.ID, &mr.Name, &mr.Status, &mr.CreatedAt); err != nil {
		return nil, notFoundOr(err, "benchmark matrix run not found")
	}
	if mr.Items, err = st.getMatrixRunItems(ctx, id); err != nil {
		return nil, err
	}
	return mr, nil
}

func (st *Store) getMatrixRunItems(ctx context.Context, matrixRunID int64) ([]*BenchmarkMatrixRunItem, error) {
	q, err := st.db.PrepareContext(ctx, `select id, benchmark_matrix_run_id, variant_id, execution_environment_id,
		metrics, started_at, completed_at from benchmark_matrix_run_item where benchmark_matrix_run_id=? order by id`)
	if err != nil {
		return nil, err
	}
	defer q.Close()
	rows, err := q.QueryContext(ctx, matrixRunID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*BenchmarkMatrixRunItem{}
	for rows.Next() {
		item := new(BenchmarkMatrixRunItem)
		var raw []byte
		if err := rows.Scan(&item.ID, &item.MatrixRunID, &item.VariantID, &item.ExecutionEnvironmentID, &raw,
			&item.StartedAt, &item.CompletedAt); err != nil {
			return nil, err
		}
		if err := decodeJSONColumn(raw, &item.Metrics); err != nil {
			return nil, &DBError{Err: err, Message: "matrix item metrics is not valid json"}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
