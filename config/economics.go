package config

const (
	DefaultFailureRatePercent  = 5.0
	DefaultQueueWaitP95Seconds = 20.0
	DefaultLatencyP95Seconds   = 60.0
)

// DefaultRunCounts is the batch sizes the cost model falls back to when the
// caller gives none or gives a non-positive one.
var DefaultRunCounts = []int{1, 10, 100}

// EconomicsConfig holds the bottleneck cutoffs and cost model defaults.
type EconomicsConfig struct {
	FailureRatePercent  float64 `json:"failure_rate_percent" mapstructure:"failure_rate_percent"`
	QueueWaitP95Seconds float64 `json:"queue_wait_p95_seconds" mapstructure:"queue_wait_p95_seconds"`
	LatencyP95Seconds   float64 `json:"latency_p95_seconds" mapstructure:"latency_p95_seconds"`
	DefaultRunCounts    []int   `json:"default_run_counts" mapstructure:"default_run_counts"`
	ReportConcurrency   int     `json:"report_concurrency" mapstructure:"report_concurrency"`
}

func (ec *EconomicsConfig) applyDefaults() {
	if ec.FailureRatePercent <= 0 {
		ec.FailureRatePercent = DefaultFailureRatePercent
	}
	if ec.QueueWaitP95Seconds <= 0 {
		ec.QueueWaitP95Seconds = DefaultQueueWaitP95Seconds
	}
	if ec.LatencyP95Seconds <= 0 {
		ec.LatencyP95Seconds = DefaultLatencyP95Seconds
	}
	if len(ec.DefaultRunCounts) == 0 {
		ec.DefaultRunCounts = append([]int(nil), DefaultRunCounts...)
	}
	if ec.ReportConcurrency <= 0 {
		ec.ReportConcurrency = 4
	}
}
