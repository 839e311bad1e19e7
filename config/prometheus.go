package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Target rate the planner produced for the current second of a stage.
	StageTargetRPSGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fleetbench",
		Name:      "stage_target_rps",
		Help:      "Target dispatch rate of the running stage",
	}, []string{"run_id", "stage_id"})

	// Whole dispatches handed to the executor, fractional carry excluded.
	DispatchesPlannedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleetbench",
		Name:      "dispatches_planned_total",
		Help:      "Number of dispatches planned per stage",
	}, []string{"run_id", "stage_id"})

	FaultInjectionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleetbench",
		Name:      "fault_injections_total",
		Help:      "Fault injection attempts grouped by outcome",
	}, []string{"status", "reason"})

	VariantMarginGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fleetbench",
		Name:      "variant_margin_usd",
		Help:      "Margin of a variant in the last economics report that included it",
	}, []string{"variant_key"})

	ReportBuildSummary = promauto.NewSummary(prometheus.SummaryOpts{
		Namespace:  "fleetbench",
		Name:       "report_build_seconds",
		Help:       "Time spent building an economics report",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	})
)
