package controller

import (
	"errors"
	"fmt"
)

var (
	RunError = errors.New("Error with Run-")
)

func makeRunInProgressError(runID int64) error {
	return fmt.Errorf("%w%d is already in progress", RunError, runID)
}

func makeRunNotPendingError(runID int64, status string) error {
	return fmt.Errorf("%w%d is %s, only pending runs can start", RunError, runID, status)
}

func makeRunClaimedError(runID int64) error {
	return fmt.Errorf("%w%d was claimed by another controller", RunError, runID)
}
