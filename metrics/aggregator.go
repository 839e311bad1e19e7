package metrics

import (
	"github.com/guregu/null"

	"github.com/rakutentech/fleetbench/model"
	"github.com/rakutentech/fleetbench/utils"
)

const p95 = 0.95

// Summary is the throughput, latency and error picture of a set of dispatches.
// Percentile and rate fields are null when there is nothing to measure.
type Summary struct {
	DispatchCount          int        `json:"dispatch_count"`
	SuccessCount           int        `json:"success_count"`
	FailureCount           int        `json:"failure_count"`
	ErrorRatePercent       float64    `json:"error_rate_percent"`
	AchievedRPS            null.Float `json:"achieved_rps"`
	AchievedRPM            null.Float `json:"achieved_rpm"`
	P95LatencyMs           null.Float `json:"p95_latency_ms"`
	LatencyP95Seconds      null.Float `json:"latency_p95_seconds"`
	QueueWaitP95Seconds    null.Float `json:"queue_wait_p95_seconds"`
	ProcessingP95Seconds   null.Float `json:"processing_p95_seconds"`
	ProcessingSecondsTotal float64    `json:"processing_seconds_total"`
}

// Aggregate reduces dispatch outcomes to a Summary. Achieved rates are only
// reported when both window bounds are set and the window is not empty.
func Aggregate(outcomes []model.DispatchOutcome, windowStart, windowEnd null.Time) Summary {
	s := Summary{DispatchCount: len(outcomes)}
	var latencies, latenciesMs, queueWaits, processing []float64
	for _, o := range outcomes {
		switch o.Status {
		case model.DispatchCompleted:
			s.SuccessCount++
		case model.DispatchFailed:
			s.FailureCount++
		}
		if o.DurationSeconds.Valid {
			latencies = append(latencies, o.DurationSeconds.Float64)
			latenciesMs = append(latenciesMs, o.DurationSeconds.Float64*1000)
		}
		if o.QueueWaitSeconds.Valid {
			queueWaits = append(queueWaits, o.QueueWaitSeconds.Float64)
		}
		if o.ProcessingSeconds.Valid {
			processing = append(processing, o.ProcessingSeconds.Float64)
			s.ProcessingSecondsTotal += o.ProcessingSeconds.Float64
		}
	}
	if s.DispatchCount > 0 {
		s.ErrorRatePercent = utils.Round(float64(s.FailureCount)/float64(s.DispatchCount)*100, percentilePlaces)
	}
	if windowStart.Valid && windowEnd.Valid {
		elapsed := windowEnd.Time.Sub(windowStart.Time).Seconds()
		if elapsed > 0 {
			rps := float64(s.DispatchCount) / elapsed
			s.AchievedRPS = null.FloatFrom(utils.Round(rps, percentilePlaces))
			s.AchievedRPM = null.FloatFrom(utils.Round(rps*60, percentilePlaces))
		}
	}
	s.P95LatencyMs = Percentile(latenciesMs, p95)
	s.LatencyP95Seconds = Percentile(latencies, p95)
	s.QueueWaitP95Seconds = Percentile(queueWaits, p95)
	s.ProcessingP95Seconds = Percentile(processing, p95)
	return s
}
