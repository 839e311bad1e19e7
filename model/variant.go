package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var stageEscaper = strings.NewReplacer("%", "%25", "|", "%7C")

// BuildVariantID gives a benchmark variant its grouping key, e.g.
// er:12|wf:3|env:7|stage:ramp|var:2. The stage is the only free text
// component and is escaped so it cannot introduce a separator.
func BuildVariantID(effectRevisionID, workflowID, executionEnvironmentID int64, stage string, experimentVariantID int64) string {
	return fmt.Sprintf("er:%d|wf:%d|env:%d|stage:%s|var:%d",
		effectRevisionID, workflowID, executionEnvironmentID, stageEscaper.Replace(stage), experimentVariantID)
}

type Variant struct {
	ID                     int64  `json:"id"`
	EffectRevisionID       int64  `json:"effect_revision_id"`
	WorkflowID             int64  `json:"workflow_id"`
	ExecutionEnvironmentID int64  `json:"execution_environment_id"`
	Stage                  string `json:"stage"`
	ExperimentVariantID    int64  `json:"experiment_variant_id"`
	Key                    string `json:"variant_key"`
}

func (v *Variant) IdentityKey() string {
	return BuildVariantID(v.EffectRevisionID, v.WorkflowID, v.ExecutionEnvironmentID, v.Stage, v.ExperimentVariantID)
}

const variantColumns = "id, effect_revision_id, workflow_id, execution_environment_id, stage, experiment_variant_id, variant_key"

func (st *Store) getVariantBy(ctx context.Context, where string, arg interface{}) (*Variant, error) {
	q, err := st.db.PrepareContext(ctx, fmt.Sprintf("select %s from variant where %s=?", variantColumns, where))
	if err != nil {
		return nil, err
	}
	defer q.Close()
	v := new(Variant)
	err = q.QueryRowContext(ctx, arg).Scan(&v.ID, &v.EffectRevisionID, &v.WorkflowID, &v.ExecutionEnvironmentID,
		&v.Stage, &v.ExperimentVariantID, &v.Key)
	if err != nil {
		return nil, notFoundOr(err, "variant not found")
	}
	return v, nil
}

func (st *Store) GetVariant(ctx context.Context, id int64) (*Variant, error) {
	return st.getVariantBy(ctx, "id", id)
}

// FindOrCreateVariant looks a variant up by its identity key and inserts it
// when missing. A concurrent insert of the same key is resolved by reading the
// row the other writer created.
func (st *Store) FindOrCreateVariant(ctx context.Context, v Variant) (*Variant, error) {
	key := v.IdentityKey()
	existing, err := st.getVariantBy(ctx, "variant_key", key)
	if err == nil {
		return existing, nil
	}
	var dbErr *DBError
	if !errors.As(err, &dbErr) {
		return nil, err
	}
	q, err := st.db.PrepareContext(ctx, `insert variant set effect_revision_id=?, workflow_id=?,
		execution_environment_id=?, stage=?, experiment_variant_id=?, variant_key=?`)
	if err != nil {
		return nil, err
	}
	defer q.Close()
	r, err := q.ExecContext(ctx, v.EffectRevisionID, v.WorkflowID, v.ExecutionEnvironmentID, v.Stage,
		v.ExperimentVariantID, key)
	if isDuplicateEntry(err) {
		return st.getVariantBy(ctx, "variant_key", key)
	}
	if err != nil {
		return nil, err
	}
	v.ID, _ = r.LastInsertId()
	v.Key = key
	return &v, nil
}
