package controller

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rakutentech/fleetbench/config"
	"github.com/rakutentech/fleetbench/fault"
	"github.com/rakutentech/fleetbench/model"
	"github.com/rakutentech/fleetbench/planner"
)

// Dispatcher hands the whole dispatches of one second to the external
// executor. *model.Store persists them as dispatch ticks.
type Dispatcher interface {
	Dispatch(ctx context.Context, tick model.DispatchTick) error
}

type StageInjector interface {
	InjectForStage(ctx context.Context, run *model.LoadTestRun, stage *model.LoadTestStage,
		env *model.ExecutionEnvironment) (*fault.Outcome, error)
}

type RunStore interface {
	GetRun(ctx context.Context, id int64) (*model.LoadTestRun, error)
	GetRunIDsByStatus(ctx context.Context, status model.RunStatus) ([]int64, error)
	GetExecutionEnvironment(ctx context.Context, id int64) (*model.ExecutionEnvironment, error)
	MarkRunStarted(ctx context.Context, run *model.LoadTestRun, at time.Time) error
	MarkRunFinished(ctx context.Context, run *model.LoadTestRun, status model.RunStatus, at time.Time) error
	RecordFaultInjection(ctx context.Context, rec model.FaultInjectionRecord) error
}

type Controller struct {
	store      RunStore
	dispatcher Dispatcher
	injector   StageInjector
	tick       time.Duration
	now        func() time.Time

	// run id to the cancel func of runs executing in this process
	runningRuns sync.Map
}

func NewController(store RunStore, dispatcher Dispatcher, injector StageInjector) *Controller {
	tick := time.Second
	if config.SC != nil && config.SC.Controller != nil && config.SC.Controller.TickMs > 0 {
		tick = time.Duration(config.SC.Controller.TickMs) * time.Millisecond
	}
	return &Controller{
		store:      store,
		dispatcher: dispatcher,
		injector:   injector,
		tick:       tick,
		now:        time.Now,
	}
}

// LoadRun reads a run with its stages and the environment it targets.
func (c *Controller) LoadRun(ctx context.Context, runID int64) (*model.LoadTestRun, *model.ExecutionEnvironment, error) {
	run, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	env, err := c.store.GetExecutionEnvironment(ctx, run.ExecutionEnvironmentID)
	if err != nil {
		return nil, nil, err
	}
	return run, env, nil
}

// StartRun executes a pending run in the background. The returned error only
// covers what can be checked before the run starts. The run outlives ctx and
// is only stopped by StopRun.
func (c *Controller) StartRun(ctx context.Context, runID int64) error {
	run, env, err := c.LoadRun(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status != model.RunPending {
		return makeRunNotPendingError(runID, string(run.Status))
	}
	if err := planner.ValidateStages(run.Stages); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if _, loaded := c.runningRuns.LoadOrStore(runID, cancel); loaded {
		cancel()
		return makeRunInProgressError(runID)
	}
	go func() {
		defer c.runningRuns.Delete(runID)
		defer cancel()
		if _, err := c.ExecuteRun(runCtx, run, env); err != nil {
			log.WithField("run_id", runID).Error(err)
		}
	}()
	return nil
}

// StopRun cancels a run started by this process. It reports whether the run
// was found.
func (c *Controller) StopRun(runID int64) bool {
	v, ok := c.runningRuns.Load(runID)
	if !ok {
		return false
	}
	v.(context.CancelFunc)()
	return true
}

// PollPendingRuns starts every pending run it finds until ctx is done. This is
// the distributed mode entry point where runs are created by other processes.
func (c *Controller) PollPendingRuns(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		ids, err := c.store.GetRunIDsByStatus(ctx, model.RunPending)
		if err != nil {
			log.Error(err)
		}
		for _, id := range ids {
			if _, running := c.runningRuns.Load(id); running {
				continue
			}
			if err := c.StartRun(ctx, id); err != nil {
				log.WithField("run_id", id).Warn(err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
