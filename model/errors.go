package model

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotPending is returned when a run could not be claimed because it
// already left the pending state.
var ErrRunNotPending = errors.New("load test run is no longer pending")

type DBError struct {
	Err     error
	Message string
}

func (e *DBError) Error() string {
	return e.Message
}

func (e *DBError) Unwrap() error {
	return e.Err
}

// ValidationError names the field of a record that cannot be used.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// notFoundOr turns a missing row into a DBError and passes any other failure
// of the database through untouched.
func notFoundOr(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &DBError{Err: err, Message: message}
	}
	return err
}
