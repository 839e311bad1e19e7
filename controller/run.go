package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rakutentech/fleetbench/config"
	"github.com/rakutentech/fleetbench/fault"
	"github.com/rakutentech/fleetbench/model"
	"github.com/rakutentech/fleetbench/planner"
)

type StageOutcome struct {
	StageID           int64          `json:"stage_id"`
	Position          int            `json:"position"`
	PlannedDispatches int            `json:"planned_dispatches"`
	SentDispatches    int            `json:"sent_dispatches"`
	Fault             *fault.Outcome `json:"fault,omitempty"`
	FaultError        string         `json:"fault_error,omitempty"`
}

type RunOutcome struct {
	RunID           int64           `json:"run_id"`
	Status          model.RunStatus `json:"status"`
	Stages          []*StageOutcome `json:"stages"`
	TotalDispatches int             `json:"total_dispatches"`
}

// ExecuteRun drives a run through its stages, one tick per second of stage
// time. The plan is validated before anything is written, so an invalid
// stage leaves the run pending. Fault injection never fails the run; a
// dispatch error or cancellation does.
func (c *Controller) ExecuteRun(ctx context.Context, run *model.LoadTestRun, env *model.ExecutionEnvironment) (*RunOutcome, error) {
	plan, err := planner.BuildPlan(run.Stages)
	if err != nil {
		return nil, err
	}
	logger := log.WithField("run_id", run.ID)
	if err := c.store.MarkRunStarted(ctx, run, c.now()); err != nil {
		if errors.Is(err, model.ErrRunNotPending) {
			return nil, makeRunClaimedError(run.ID)
		}
		return nil, err
	}
	logger.Infof("Run started with %d stages, %d dispatches planned", len(plan.Stages), plan.TotalDispatches)
	defer c.deleteMetrics(run, plan)

	outcome := &RunOutcome{RunID: run.ID, Stages: make([]*StageOutcome, len(plan.Stages))}
	var faults sync.WaitGroup
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	runErr := func() error {
		for i, sp := range plan.Stages {
			stage := run.Stages[i]
			so := &StageOutcome{StageID: stage.ID, Position: stage.Position, PlannedDispatches: sp.TotalDispatches}
			outcome.Stages[i] = so
			if stage.FaultEnabled && c.injector != nil {
				faults.Add(1)
				go func() {
					defer faults.Done()
					c.injectFault(ctx, run, stage, env, so)
				}()
			}
			sent, err := c.runStage(ctx, run, stage, sp, ticker)
			so.SentDispatches = sent
			outcome.TotalDispatches += sent
			if err != nil {
				return err
			}
		}
		return nil
	}()
	faults.Wait()

	outcome.Status = model.RunFinished
	if runErr != nil {
		outcome.Status = model.RunFailed
		logger.WithError(runErr).Error("Run aborted")
	}
	// the run context may be gone already, the final state still has to land
	if err := c.store.MarkRunFinished(context.WithoutCancel(ctx), run, outcome.Status, c.now()); err != nil {
		logger.Error(err)
		if runErr == nil {
			runErr = err
		}
	}
	logger.Infof("Run %s, %d dispatches sent", outcome.Status, outcome.TotalDispatches)
	return outcome, runErr
}

func (c *Controller) runStage(ctx context.Context, run *model.LoadTestRun, stage *model.LoadTestStage,
	sp *planner.StagePlan, ticker *time.Ticker) (int, error) {
	runID := run.IDString()
	stageID := stage.IDString()
	sent := 0
	for _, t := range sp.Ticks {
		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		case <-ticker.C:
		}
		config.StageTargetRPSGauge.WithLabelValues(runID, stageID).Set(t.TargetRPS)
		if t.Count <= 0 {
			continue
		}
		err := c.dispatcher.Dispatch(ctx, model.DispatchTick{
			RunID:     run.ID,
			StageID:   stage.ID,
			Second:    t.Second,
			Count:     t.Count,
			TargetRPS: t.TargetRPS,
		})
		if err != nil {
			return sent, err
		}
		sent += t.Count
		config.DispatchesPlannedCounter.WithLabelValues(runID, stageID).Add(float64(t.Count))
	}
	return sent, nil
}

// injectFault records the attempt either way. The outcome pointer is owned by
// this goroutine until the run waits for it.
func (c *Controller) injectFault(ctx context.Context, run *model.LoadTestRun, stage *model.LoadTestStage,
	env *model.ExecutionEnvironment, so *StageOutcome) {
	out, err := c.injector.InjectForStage(ctx, run, stage, env)
	var rec model.FaultInjectionRecord
	if err != nil {
		so.FaultError = err.Error()
		rec = model.FaultInjectionRecord{
			RunID:   run.ID,
			StageID: stage.ID,
			Status:  fault.StatusFailed,
			ASGName: env.ASGName(),
			Error:   err.Error(),
		}
	} else {
		so.Fault = out
		rec = out.Record(run.ID, stage.ID)
	}
	if err := c.store.RecordFaultInjection(context.WithoutCancel(ctx), rec); err != nil {
		log.WithFields(log.Fields{"run_id": run.ID, "stage_id": stage.ID}).Error(err)
	}
}
