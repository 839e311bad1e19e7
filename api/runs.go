package api

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"

	"github.com/rakutentech/fleetbench/fault"
	"github.com/rakutentech/fleetbench/model"
)

func (s *FleetbenchAPI) runStartHandler(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	runID, err := parseID(params, "run_id")
	if err != nil {
		s.handleErrors(w, err)
		return
	}
	if err := s.ctr.StartRun(r.Context(), runID); err != nil {
		s.handleErrors(w, err)
		return
	}
	s.jsonise(w, http.StatusAccepted, s.makeRespMessage(fmt.Sprintf("run %d started", runID)))
}

func (s *FleetbenchAPI) runStopHandler(w http.ResponseWriter, _ *http.Request, params httprouter.Params) {
	runID, err := parseID(params, "run_id")
	if err != nil {
		s.handleErrors(w, err)
		return
	}
	if !s.ctr.StopRun(runID) {
		s.handleErrors(w, &model.DBError{Message: fmt.Sprintf("run %d is not running here", runID)})
		return
	}
	s.jsonise(w, http.StatusOK, s.makeRespMessage(fmt.Sprintf("run %d stopping", runID)))
}

// stageFaultHandler injects the stage's fault once, outside of a run. The
// attempt is recorded whether it succeeds or not.
func (s *FleetbenchAPI) stageFaultHandler(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	runID, err := parseID(params, "run_id")
	if err != nil {
		s.handleErrors(w, err)
		return
	}
	stageID, err := parseID(params, "stage_id")
	if err != nil {
		s.handleErrors(w, err)
		return
	}
	ctx := r.Context()
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		s.handleErrors(w, err)
		return
	}
	stage, err := run.GetStage(stageID)
	if err != nil {
		s.handleErrors(w, err)
		return
	}
	env, err := s.store.GetExecutionEnvironment(ctx, run.ExecutionEnvironmentID)
	if err != nil {
		s.handleErrors(w, err)
		return
	}
	outcome, injErr := s.injector.InjectForStage(ctx, run, stage, env)
	rec := model.FaultInjectionRecord{RunID: runID, StageID: stageID, Status: fault.StatusFailed, ASGName: env.ASGName()}
	if injErr != nil {
		rec.Error = injErr.Error()
	} else {
		rec = outcome.Record(runID, stageID)
	}
	if err := s.store.RecordFaultInjection(ctx, rec); err != nil {
		log.WithFields(log.Fields{"run_id": runID, "stage_id": stageID}).Error(err)
	}
	if injErr != nil {
		s.handleErrors(w, injErr)
		return
	}
	s.jsonise(w, http.StatusOK, outcome)
}
