package fault

import (
	"context"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rakutentech/fleetbench/config"
	"github.com/rakutentech/fleetbench/model"
)

const (
	StatusStarted = "started"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"

	ReasonNoActiveInstances = "no_active_asg_instances"
	ReasonFaultDisabled     = "fault_disabled"

	LifecycleInService = "InService"
	HealthHealthy      = "Healthy"

	MethodFIS = "fis"

	DefaultTimeout = 30 * time.Second
)

type Instance struct {
	InstanceID     string `json:"instance_id"`
	LifecycleState string `json:"lifecycle_state"`
	HealthStatus   string `json:"health_status"`
}

func (i Instance) active() bool {
	return i.LifecycleState == LifecycleInService && i.HealthStatus == HealthHealthy
}

// FleetTopologyQuerier lists the instances currently backing a fleet.
type FleetTopologyQuerier interface {
	DescribeFleet(ctx context.Context, name string) ([]Instance, error)
}

type ExperimentRequest struct {
	TemplateID        string
	TargetInstanceIDs []string
	Tags              map[string]string
}

type Experiment struct {
	ID    string `json:"id"`
	ARN   string `json:"arn"`
	State string `json:"state"`
}

// FaultExperimentStarter starts a chaos experiment against the given instances.
type FaultExperimentStarter interface {
	StartExperiment(ctx context.Context, req ExperimentRequest) (*Experiment, error)
}

type Outcome struct {
	Status            string   `json:"status"`
	Reason            string   `json:"reason,omitempty"`
	ASGName           string   `json:"asg_name"`
	TemplateID        string   `json:"template_id,omitempty"`
	ExperimentID      string   `json:"experiment_id,omitempty"`
	ExperimentARN     string   `json:"experiment_arn,omitempty"`
	ExperimentState   string   `json:"experiment_state,omitempty"`
	TargetInstanceIDs []string `json:"target_instance_ids,omitempty"`
}

// Record is the persisted form of an outcome.
func (o *Outcome) Record(runID, stageID int64) model.FaultInjectionRecord {
	return model.FaultInjectionRecord{
		RunID:             runID,
		StageID:           stageID,
		Status:            o.Status,
		Reason:            o.Reason,
		ASGName:           o.ASGName,
		TemplateID:        o.TemplateID,
		ExperimentARN:     o.ExperimentARN,
		TargetInstanceIDs: o.TargetInstanceIDs,
	}
}

type Injector struct {
	topology    FleetTopologyQuerier
	experiments FaultExperimentStarter
	timeout     time.Duration
}

func NewInjector(topology FleetTopologyQuerier, experiments FaultExperimentStarter, timeout time.Duration) *Injector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Injector{
		topology:    topology,
		experiments: experiments,
		timeout:     timeout,
	}
}

func (i *Injector) activeInstanceIDs(ctx context.Context, asgName string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	instances, err := i.topology.DescribeFleet(ctx, asgName)
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for _, inst := range instances {
		if inst.active() {
			ids = append(ids, inst.InstanceID)
		}
	}
	return ids, nil
}

func (i *Injector) startExperiment(ctx context.Context, req ExperimentRequest) (*Experiment, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	return i.experiments.StartExperiment(ctx, req)
}

// InjectForStage interrupts a deterministic share of the healthy instances of
// the environment's fleet. A fleet with nothing eligible is skipped, not an
// error. Each call makes at most one experiment start attempt.
func (i *Injector) InjectForStage(ctx context.Context, run *model.LoadTestRun, stage *model.LoadTestStage, env *model.ExecutionEnvironment) (*Outcome, error) {
	asgName := env.ASGName()
	logger := log.WithFields(log.Fields{
		"run_id":   run.ID,
		"stage_id": stage.ID,
		"asg_name": asgName,
	})
	fail := func(op string, err error) (*Outcome, error) {
		config.FaultInjectionCounter.WithLabelValues(StatusFailed, op).Inc()
		logger.WithError(err).Errorf("Fault injection failed at %s", op)
		return nil, &InjectionError{RunID: run.ID, StageID: stage.ID, ASGName: asgName, Op: op, Err: err}
	}
	if !stage.FaultEnabled {
		return i.skip(logger, asgName, ReasonFaultDisabled), nil
	}
	if stage.FaultMethod != "" && stage.FaultMethod != MethodFIS {
		return fail(OpStartExperiment, ErrUnsupportedMethod)
	}

	ids, err := i.activeInstanceIDs(ctx, asgName)
	if err != nil {
		return fail(OpDescribeFleet, err)
	}
	targets := SelectTargetInstanceIDs(ids, stage.FaultInterruptionRate)
	if len(targets) == 0 {
		return i.skip(logger, asgName, ReasonNoActiveInstances), nil
	}

	exp, err := i.startExperiment(ctx, ExperimentRequest{
		TemplateID:        stage.FaultExperimentTemplateID,
		TargetInstanceIDs: targets,
		Tags: map[string]string{
			"load_test_run_id":   strconv.FormatInt(run.ID, 10),
			"load_test_stage_id": strconv.FormatInt(stage.ID, 10),
			"asg_name":           asgName,
		},
	})
	if err != nil {
		return fail(OpStartExperiment, err)
	}
	config.FaultInjectionCounter.WithLabelValues(StatusStarted, "").Inc()
	logger.WithFields(log.Fields{
		"experiment": exp.ARN,
		"targets":    len(targets),
	}).Info("Fault experiment started")
	return &Outcome{
		Status:            StatusStarted,
		ASGName:           asgName,
		TemplateID:        stage.FaultExperimentTemplateID,
		ExperimentID:      exp.ID,
		ExperimentARN:     exp.ARN,
		ExperimentState:   exp.State,
		TargetInstanceIDs: targets,
	}, nil
}

func (i *Injector) skip(logger *log.Entry, asgName, reason string) *Outcome {
	config.FaultInjectionCounter.WithLabelValues(StatusSkipped, reason).Inc()
	logger.Infof("Fault injection skipped: %s", reason)
	return &Outcome{Status: StatusSkipped, Reason: reason, ASGName: asgName}
}
