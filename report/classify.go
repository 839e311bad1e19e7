package report

import (
	"github.com/guregu/null"

	"github.com/rakutentech/fleetbench/config"
)

type Bottleneck string

const (
	BottleneckFault Bottleneck = "fault"
	BottleneckQueue Bottleneck = "queue"
	BottleneckGPU   Bottleneck = "gpu"
	BottleneckNone  Bottleneck = "none"
)

// Thresholds are inclusive lower bounds for each bottleneck verdict.
type Thresholds struct {
	FailureRatePercent  float64 `json:"failure_rate_percent"`
	QueueWaitP95Seconds float64 `json:"queue_wait_p95_seconds"`
	LatencyP95Seconds   float64 `json:"latency_p95_seconds"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		FailureRatePercent:  config.DefaultFailureRatePercent,
		QueueWaitP95Seconds: config.DefaultQueueWaitP95Seconds,
		LatencyP95Seconds:   config.DefaultLatencyP95Seconds,
	}
}

func ThresholdsFromConfig(ec *config.EconomicsConfig) Thresholds {
	th := DefaultThresholds()
	if ec == nil {
		return th
	}
	if ec.FailureRatePercent > 0 {
		th.FailureRatePercent = ec.FailureRatePercent
	}
	if ec.QueueWaitP95Seconds > 0 {
		th.QueueWaitP95Seconds = ec.QueueWaitP95Seconds
	}
	if ec.LatencyP95Seconds > 0 {
		th.LatencyP95Seconds = ec.LatencyP95Seconds
	}
	return th
}

func atLeast(v null.Float, threshold float64) bool {
	return v.Valid && v.Float64 >= threshold
}

func (th Thresholds) reliabilityIssue(r *Row) bool {
	return r.FailureRatePercent >= th.FailureRatePercent
}

func (th Thresholds) capacityIssue(r *Row) bool {
	return atLeast(r.QueueWaitP95Seconds, th.QueueWaitP95Seconds)
}

// Classify names the first bottleneck that applies, checking faults, then
// queueing, then GPU latency.
func Classify(r *Row, th Thresholds) Bottleneck {
	switch {
	case th.reliabilityIssue(r):
		return BottleneckFault
	case th.capacityIssue(r):
		return BottleneckQueue
	case atLeast(r.LatencyP95Seconds, th.LatencyP95Seconds):
		return BottleneckGPU
	}
	return BottleneckNone
}
