package report

import (
	"context"

	"github.com/guregu/null"

	"github.com/rakutentech/fleetbench/model"
)

type MatrixSource interface {
	GetMatrixRun(ctx context.Context, id int64) (*model.BenchmarkMatrixRun, error)
}

type DispatchSource interface {
	GetDispatchOutcomes(ctx context.Context, ids []int64) ([]model.DispatchOutcome, error)
}

type EnvironmentSource interface {
	GetExecutionEnvironment(ctx context.Context, id int64) (*model.ExecutionEnvironment, error)
}

type PricingSource interface {
	GetEconomicsSetting(ctx context.Context) (*model.EconomicsSetting, error)
}

type PartnerCostSource interface {
	PartnerCostsForDispatches(ctx context.Context, dispatchIDs []int64) (float64, error)
}

type QualitySource interface {
	QualityForItem(ctx context.Context, itemID int64) (null.Float, error)
}

type VariantSource interface {
	GetVariant(ctx context.Context, id int64) (*model.Variant, error)
}

// Sources is everything a report reads. *model.Store implements it.
type Sources interface {
	MatrixSource
	DispatchSource
	EnvironmentSource
	PricingSource
	PartnerCostSource
	QualitySource
	VariantSource
}
