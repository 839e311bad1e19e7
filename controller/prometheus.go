package controller

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/rakutentech/fleetbench/config"
	"github.com/rakutentech/fleetbench/model"
	"github.com/rakutentech/fleetbench/planner"
)

// deleteMetrics drops the per run series once the run is over so finished
// runs do not pile up in the registry.
func (c *Controller) deleteMetrics(run *model.LoadTestRun, plan *planner.Plan) {
	runID := run.IDString()
	for _, sp := range plan.Stages {
		labels := prometheus.Labels{
			"run_id":   runID,
			"stage_id": strconv.FormatInt(sp.StageID, 10),
		}
		config.StageTargetRPSGauge.Delete(labels)
		config.DispatchesPlannedCounter.Delete(labels)
	}
	log.Infof("Delete stage metrics of run %s", runID)
}
