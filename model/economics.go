package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guregu/null"
)

// EconomicsSetting is the pricing used to turn benchmark metrics into money.
type EconomicsSetting struct {
	TokenUSDRate      float64            `json:"token_usd_rate"`
	SpotMultiplier    null.Float         `json:"spot_multiplier"`
	InstanceTypeRates map[string]float64 `json:"instance_type_rates"`
}

// HourlyRate returns the USD per hour of an instance type.
func (es *EconomicsSetting) HourlyRate(instanceType string) (float64, bool) {
	if es.InstanceTypeRates == nil || instanceType == "" {
		return 0, false
	}
	rate, ok := es.InstanceTypeRates[instanceType]
	return rate, ok
}

type QualityEvaluation struct {
	ID              int64   `json:"id"`
	MatrixRunItemID int64   `json:"benchmark_matrix_run_item_id"`
	CompositeScore  float64 `json:"composite_score"`
}

func (st *Store) GetEconomicsSetting(ctx context.Context) (*EconomicsSetting, error) {
	q, err := st.db.PrepareContext(ctx, `select token_usd_rate, spot_multiplier, instance_type_rates
		from economics_setting order by id desc limit 1`)
	if err != nil {
		return nil, err
	}
	defer q.Close()
	es := new(EconomicsSetting)
	var raw []byte
	if err := q.QueryRowContext(ctx).Scan(&es.TokenUSDRate, &es.SpotMultiplier, &raw); err != nil {
		return nil, notFoundOr(err, "economics setting not found")
	}
	if err := decodeJSONColumn(raw, &es.InstanceTypeRates); err != nil {
		return nil, &DBError{Err: err, Message: "instance type rates is not valid json"}
	}
	return es, nil
}

// PartnerCostsForDispatches sums partner reported usage cost of the dispatches.
func (st *Store) PartnerCostsForDispatches(ctx context.Context, dispatchIDs []int64) (float64, error) {
	if len(dispatchIDs) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf("select coalesce(sum(cost_usd), 0) from partner_usage_event where dispatch_id in (%s)",
		placeholders(len(dispatchIDs)))
	q, err := st.db.PrepareContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer q.Close()
	var total float64
	if err := q.QueryRowContext(ctx, int64Args(dispatchIDs)...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// QualityForItem returns the latest composite score, null when the item was
// never evaluated.
func (st *Store) QualityForItem(ctx context.Context, itemID int64) (null.Float, error) {
	q, err := st.db.PrepareContext(ctx, `select composite_score from quality_evaluation
		where benchmark_matrix_run_item_id=? order by id desc limit 1`)
	if err != nil {
		return null.Float{}, err
	}
	defer q.Close()
	var score null.Float
	err = q.QueryRowContext(ctx, itemID).Scan(&score)
	if err == sql.ErrNoRows {
		return null.Float{}, nil
	}
	if err != nil {
		return null.Float{}, err
	}
	return score, nil
}
