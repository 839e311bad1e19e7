package report

import (
	"strconv"

	"github.com/guregu/null"

	"github.com/rakutentech/fleetbench/utils"
)

var csvHeader = []string{
	"rank", "item_id", "variant_id", "variant_key", "execution_environment_id", "instance_type",
	"dispatch_count", "success_count", "failure_count", "failure_rate_percent", "achieved_rps",
	"latency_p95_seconds", "queue_wait_p95_seconds", "processing_p95_seconds", "processing_seconds_total",
	"effective_rate_per_second", "compute_cost_usd", "partner_cost_usd", "estimated_revenue_usd",
	"margin_usd", "quality_score", "bottleneck",
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatNull(f null.Float) string {
	if !f.Valid {
		return ""
	}
	return formatFloat(f.Float64)
}

func itoa64(i int64) string {
	return strconv.FormatInt(i, 10)
}

// CSV renders the ranked rows, one line per matrix item.
func (r *Report) CSV() ([]byte, error) {
	records := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		records = append(records, []string{
			strconv.Itoa(row.Rank),
			itoa64(row.ItemID),
			itoa64(row.VariantID),
			row.VariantKey,
			itoa64(row.ExecutionEnvironmentID),
			row.InstanceType,
			strconv.Itoa(row.DispatchCount),
			strconv.Itoa(row.SuccessCount),
			strconv.Itoa(row.FailureCount),
			formatFloat(row.FailureRatePercent),
			formatNull(row.AchievedRPS),
			formatNull(row.LatencyP95Seconds),
			formatNull(row.QueueWaitP95Seconds),
			formatNull(row.ProcessingP95Seconds),
			formatFloat(row.ProcessingSecondsTotal),
			formatFloat(row.EffectiveRatePerSecond),
			formatFloat(row.ComputeCostUSD),
			formatFloat(row.PartnerCostUSD),
			formatFloat(row.EstimatedRevenueUSD),
			formatFloat(row.MarginUSD),
			formatNull(row.QualityScore),
			string(row.Bottleneck),
		})
	}
	return utils.MakeCSV(csvHeader, records)
}
