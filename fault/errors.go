package fault

import (
	"errors"
	"fmt"
)

const (
	OpDescribeFleet   = "describe_fleet"
	OpStartExperiment = "start_experiment"
)

var (
	ErrFleetNotFound     = errors.New("fleet not found")
	ErrUnsupportedMethod = errors.New("unsupported fault method")
)

// InjectionError is an external failure while injecting a fault for a stage.
// It is reported to the caller as is and never retried here.
type InjectionError struct {
	RunID   int64
	StageID int64
	ASGName string
	Op      string
	Err     error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("fault injection for run %d stage %d on %q failed at %s: %v",
		e.RunID, e.StageID, e.ASGName, e.Op, e.Err)
}

func (e *InjectionError) Unwrap() error {
	return e.Err
}
