package api

import (
	"errors"
	"fmt"
)

var (
	invalidRequestErr = errors.New("400-")
	ServerErr         = errors.New("500-")
)

func makeInvalidRequestError(message string) error {
	return fmt.Errorf("%w%s", invalidRequestErr, message)
}

func makeInternalServerError(message string) error {
	return fmt.Errorf("%w%s", ServerErr, message)
}

func makeInvalidResourceError(resource string) error {
	return fmt.Errorf("%winvalid %s", invalidRequestErr, resource)
}
