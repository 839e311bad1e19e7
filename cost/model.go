package cost

import (
	"github.com/guregu/null"

	"github.com/rakutentech/fleetbench/config"
	"github.com/rakutentech/fleetbench/utils"
)

const moneyPlaces = 6

// Input describes one warm instance serving a batch of runs.
type Input struct {
	StartupSeconds          float64    `json:"startup_seconds"`
	BusySecondsPerRun       float64    `json:"busy_seconds_per_run"`
	IdleSecondsAfterBatch   float64    `json:"idle_seconds_after_batch"`
	ComputeRateUSDPerSecond float64    `json:"compute_rate_usd_per_second"`
	PartnerCostUSDPerRun    null.Float `json:"partner_cost_usd_per_run"`
	RevenueUSDPerRun        null.Float `json:"revenue_usd_per_run"`
	RunCounts               []int      `json:"run_counts"`
}

type Row struct {
	RunCount                     int        `json:"run_count"`
	ProcessingOnlyComputeCostUSD float64    `json:"processing_only_compute_cost_usd"`
	EffectiveComputeCostUSD      float64    `json:"effective_compute_cost_usd"`
	PartnerCostUSD               float64    `json:"partner_cost_usd"`
	TotalCostUSD                 float64    `json:"total_cost_usd"`
	CostPerRunUSD                float64    `json:"cost_per_run_usd"`
	RevenueTotalUSD              null.Float `json:"revenue_total_usd"`
	MarginUSD                    null.Float `json:"margin_usd"`
}

type Result struct {
	RunCounts []int `json:"run_counts"`
	// set when the requested run counts were replaced by the defaults
	DefaultedRunCounts bool  `json:"defaulted_run_counts"`
	Rows               []Row `json:"rows"`
}

// Build prices every batch size of in, falling back to config.DefaultRunCounts.
func Build(in Input) Result {
	return BuildWithDefaults(in, config.DefaultRunCounts)
}

// BuildWithDefaults is Build with the fallback batch sizes supplied by the caller.
func BuildWithDefaults(in Input, defaults []int) Result {
	runCounts, defaulted := resolveRunCounts(in.RunCounts, defaults)
	res := Result{RunCounts: runCounts, DefaultedRunCounts: defaulted, Rows: make([]Row, 0, len(runCounts))}
	for _, n := range runCounts {
		res.Rows = append(res.Rows, buildRow(in, n))
	}
	return res
}

func resolveRunCounts(requested, defaults []int) ([]int, bool) {
	valid := len(requested) > 0
	for _, n := range requested {
		if n <= 0 {
			valid = false
			break
		}
	}
	if valid {
		return append([]int(nil), requested...), false
	}
	if len(defaults) == 0 {
		defaults = config.DefaultRunCounts
	}
	return append([]int(nil), defaults...), true
}

func buildRow(in Input, n int) Row {
	runs := float64(n)
	processingOnly := in.BusySecondsPerRun * runs * in.ComputeRateUSDPerSecond
	effective := (in.StartupSeconds + in.IdleSecondsAfterBatch + in.BusySecondsPerRun*runs) * in.ComputeRateUSDPerSecond
	partner := 0.0
	if in.PartnerCostUSDPerRun.Valid {
		partner = in.PartnerCostUSDPerRun.Float64 * runs
	}
	total := effective + partner

	row := Row{
		RunCount:                     n,
		ProcessingOnlyComputeCostUSD: utils.Round(processingOnly, moneyPlaces),
		EffectiveComputeCostUSD:      utils.Round(effective, moneyPlaces),
		PartnerCostUSD:               utils.Round(partner, moneyPlaces),
		TotalCostUSD:                 utils.Round(total, moneyPlaces),
		CostPerRunUSD:                utils.Round(total/runs, moneyPlaces),
	}
	if in.RevenueUSDPerRun.Valid {
		revenue := in.RevenueUSDPerRun.Float64 * runs
		row.RevenueTotalUSD = null.FloatFrom(utils.Round(revenue, moneyPlaces))
		row.MarginUSD = null.FloatFrom(utils.Round(revenue-total, moneyPlaces))
	}
	return row
}
