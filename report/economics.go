package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/guregu/null"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rakutentech/fleetbench/config"
	"github.com/rakutentech/fleetbench/metrics"
	"github.com/rakutentech/fleetbench/model"
	"github.com/rakutentech/fleetbench/utils"
)

const (
	moneyPlaces        = 6
	defaultConcurrency = 4

	WarningMissingInstanceRate = "missing_instance_rate"
	WarningMissingVariant      = "missing_variant"
)

type Row struct {
	Rank                   int        `json:"rank"`
	ItemID                 int64      `json:"item_id"`
	VariantID              int64      `json:"variant_id"`
	VariantKey             string     `json:"variant_key"`
	ExecutionEnvironmentID int64      `json:"execution_environment_id"`
	InstanceType           string     `json:"instance_type"`
	DispatchCount          int        `json:"dispatch_count"`
	SuccessCount           int        `json:"success_count"`
	FailureCount           int        `json:"failure_count"`
	FailureRatePercent     float64    `json:"failure_rate_percent"`
	AchievedRPS            null.Float `json:"achieved_rps"`
	AchievedRPM            null.Float `json:"achieved_rpm"`
	P95LatencyMs           null.Float `json:"p95_latency_ms"`
	LatencyP95Seconds      null.Float `json:"latency_p95_seconds"`
	QueueWaitP95Seconds    null.Float `json:"queue_wait_p95_seconds"`
	ProcessingP95Seconds   null.Float `json:"processing_p95_seconds"`
	ProcessingSecondsTotal float64    `json:"processing_seconds_total"`
	HourlyRateUSD          float64    `json:"hourly_rate_usd"`
	EffectiveRatePerSecond float64    `json:"effective_rate_per_second"`
	ComputeCostUSD         float64    `json:"compute_cost_usd"`
	PartnerCostUSD         float64    `json:"partner_cost_usd"`
	EstimatedRevenueUSD    float64    `json:"estimated_revenue_usd"`
	MarginUSD              float64    `json:"margin_usd"`
	QualityScore           null.Float `json:"quality_score"`
	Bottleneck             Bottleneck `json:"bottleneck"`
}

type Totals struct {
	DispatchCount       int     `json:"dispatch_count"`
	ComputeCostUSD      float64 `json:"compute_cost_usd"`
	PartnerCostUSD      float64 `json:"partner_cost_usd"`
	EstimatedRevenueUSD float64 `json:"estimated_revenue_usd"`
	MarginUSD           float64 `json:"margin_usd"`
}

type Warning struct {
	Code    string `json:"code"`
	ItemID  int64  `json:"item_id"`
	Message string `json:"message"`
}

type Report struct {
	MatrixRunID     int64            `json:"matrix_run_id"`
	MatrixRunName   string           `json:"matrix_run_name"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Thresholds      Thresholds       `json:"thresholds"`
	Rows            []*Row           `json:"rows"`
	Winner          *Row             `json:"winner"`
	Recommendations []Recommendation `json:"recommendations"`
	Totals          Totals           `json:"totals"`
	Warnings        []Warning        `json:"warnings"`
}

type Options struct {
	Thresholds  Thresholds
	Concurrency int
	Now         func() time.Time
}

// Builder turns a benchmark matrix run into an economics report. It only
// reads from its sources.
type Builder struct {
	src         Sources
	thresholds  Thresholds
	concurrency int
	now         func() time.Time
}

func NewBuilder(src Sources, opts Options) *Builder {
	b := &Builder{
		src:         src,
		thresholds:  opts.Thresholds,
		concurrency: opts.Concurrency,
		now:         opts.Now,
	}
	if b.thresholds == (Thresholds{}) {
		b.thresholds = DefaultThresholds()
	}
	if b.concurrency <= 0 {
		b.concurrency = defaultConcurrency
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// EffectiveRatePerSecond converts an hourly instance price into USD per
// second. An unset spot multiplier means on demand pricing.
func EffectiveRatePerSecond(hourlyRate float64, spotMultiplier null.Float) float64 {
	multiplier := 1.0
	if spotMultiplier.Valid {
		multiplier = math.Max(0, spotMultiplier.Float64)
	}
	return hourlyRate / 3600 * multiplier
}

type itemResult struct {
	row      *Row
	warnings []Warning
}

func (b *Builder) buildRow(ctx context.Context, item *model.BenchmarkMatrixRunItem, pricing *model.EconomicsSetting) (*itemResult, error) {
	res := &itemResult{}
	dispatchIDs := item.Metrics.DispatchIDs
	outcomes, err := b.src.GetDispatchOutcomes(ctx, dispatchIDs)
	if err != nil {
		return nil, err
	}
	summary := metrics.Aggregate(outcomes, item.StartedAt, item.CompletedAt)

	env, err := b.src.GetExecutionEnvironment(ctx, item.ExecutionEnvironmentID)
	if err != nil {
		return nil, err
	}
	instanceType := env.InstanceType()
	hourly, ok := pricing.HourlyRate(instanceType)
	if !ok {
		res.warnings = append(res.warnings, Warning{
			Code:    WarningMissingInstanceRate,
			ItemID:  item.ID,
			Message: fmt.Sprintf("no hourly rate for instance type %q, compute cost counted as zero", instanceType),
		})
	}
	rate := EffectiveRatePerSecond(hourly, pricing.SpotMultiplier)

	partner, err := b.src.PartnerCostsForDispatches(ctx, dispatchIDs)
	if err != nil {
		return nil, err
	}
	quality, err := b.src.QualityForItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	variantKey := ""
	variant, err := b.src.GetVariant(ctx, item.VariantID)
	var dbErr *model.DBError
	switch {
	case err == nil:
		variantKey = variant.IdentityKey()
	case errors.As(err, &dbErr):
		res.warnings = append(res.warnings, Warning{
			Code:    WarningMissingVariant,
			ItemID:  item.ID,
			Message: fmt.Sprintf("variant %d not found", item.VariantID),
		})
	default:
		return nil, err
	}

	compute := summary.ProcessingSecondsTotal * rate
	revenue := float64(summary.DispatchCount) * pricing.TokenUSDRate
	row := &Row{
		ItemID:                 item.ID,
		VariantID:              item.VariantID,
		VariantKey:             variantKey,
		ExecutionEnvironmentID: item.ExecutionEnvironmentID,
		InstanceType:           instanceType,
		DispatchCount:          summary.DispatchCount,
		SuccessCount:           summary.SuccessCount,
		FailureCount:           summary.FailureCount,
		FailureRatePercent:     summary.ErrorRatePercent,
		AchievedRPS:            summary.AchievedRPS,
		AchievedRPM:            summary.AchievedRPM,
		P95LatencyMs:           summary.P95LatencyMs,
		LatencyP95Seconds:      summary.LatencyP95Seconds,
		QueueWaitP95Seconds:    summary.QueueWaitP95Seconds,
		ProcessingP95Seconds:   summary.ProcessingP95Seconds,
		ProcessingSecondsTotal: utils.Round(summary.ProcessingSecondsTotal, moneyPlaces),
		HourlyRateUSD:          hourly,
		EffectiveRatePerSecond: rate,
		ComputeCostUSD:         utils.Round(compute, moneyPlaces),
		PartnerCostUSD:         utils.Round(partner, moneyPlaces),
		EstimatedRevenueUSD:    utils.Round(revenue, moneyPlaces),
		MarginUSD:              utils.Round(revenue-compute-partner, moneyPlaces),
		QualityScore:           quality,
	}
	row.Bottleneck = Classify(row, b.thresholds)
	res.row = row
	return res, nil
}

// rankRows orders rows by margin, highest first. Equal margins keep item
// order so the same inputs always rank the same way.
func rankRows(rows []*Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].MarginUSD != rows[j].MarginUSD {
			return rows[i].MarginUSD > rows[j].MarginUSD
		}
		return rows[i].ItemID < rows[j].ItemID
	})
	for i, r := range rows {
		r.Rank = i + 1
	}
}

func sumTotals(rows []*Row) Totals {
	t := Totals{}
	for _, r := range rows {
		t.DispatchCount += r.DispatchCount
		t.ComputeCostUSD += r.ComputeCostUSD
		t.PartnerCostUSD += r.PartnerCostUSD
		t.EstimatedRevenueUSD += r.EstimatedRevenueUSD
		t.MarginUSD += r.MarginUSD
	}
	t.ComputeCostUSD = utils.Round(t.ComputeCostUSD, moneyPlaces)
	t.PartnerCostUSD = utils.Round(t.PartnerCostUSD, moneyPlaces)
	t.EstimatedRevenueUSD = utils.Round(t.EstimatedRevenueUSD, moneyPlaces)
	t.MarginUSD = utils.Round(t.MarginUSD, moneyPlaces)
	return t
}

// Build computes the report of one matrix run. Items are evaluated in
// parallel and merged back before ranking.
func (b *Builder) Build(ctx context.Context, matrixRunID int64) (*Report, error) {
	started := time.Now()
	defer func() {
		config.ReportBuildSummary.Observe(time.Since(started).Seconds())
	}()

	mr, err := b.src.GetMatrixRun(ctx, matrixRunID)
	if err != nil {
		return nil, err
	}
	pricing, err := b.src.GetEconomicsSetting(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*itemResult, len(mr.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, item := range mr.Items {
		i, item := i, item
		g.Go(func() error {
			res, err := b.buildRow(gctx, item, pricing)
			if err != nil {
				return fmt.Errorf("matrix run %d item %d: %w", matrixRunID, item.ID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Report{
		MatrixRunID:     mr.ID,
		MatrixRunName:   mr.Name,
		GeneratedAt:     b.now().UTC(),
		Thresholds:      b.thresholds,
		Rows:            make([]*Row, 0, len(results)),
		Recommendations: []Recommendation{},
		Warnings:        []Warning{},
	}
	for _, res := range results {
		r.Rows = append(r.Rows, res.row)
		r.Warnings = append(r.Warnings, res.warnings...)
	}
	rankRows(r.Rows)
	if len(r.Rows) > 0 {
		r.Winner = r.Rows[0]
	}
	r.Recommendations = Recommend(r.Rows, r.Winner, b.thresholds)
	r.Totals = sumTotals(r.Rows)
	b.publish(r)
	return r, nil
}

// publish keeps one margin series per variant, so matrix runs building up
// over time do not add series.
func (b *Builder) publish(r *Report) {
	for _, row := range r.Rows {
		if row.VariantKey == "" {
			continue
		}
		config.VariantMarginGauge.WithLabelValues(row.VariantKey).Set(row.MarginUSD)
	}
	log.WithFields(log.Fields{
		"matrix_run_id":   r.MatrixRunID,
		"rows":            len(r.Rows),
		"recommendations": len(r.Recommendations),
	}).Info("Economics report built")
}
