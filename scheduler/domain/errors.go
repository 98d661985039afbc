package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidInput is returned when a request is malformed or out of range.
// Retrying the same request will never succeed.
//
// Analogous to an HTTP 400 level error
type InvalidInput struct {
	errMsg string
}

func NewInvalidInput(format string, args ...interface{}) error {
	return &InvalidInput{fmt.Sprintf(format, args...)}
}

func (e *InvalidInput) Error() string {
	return e.errMsg
}

// NotFound is returned when no job has the requested id.
//
// Analogous to an HTTP 404 level error
type NotFound struct {
	ID string
}

func NewNotFound(id string) error {
	return &NotFound{ID: id}
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("job %q not found", e.ID)
}

// IllegalTransition is returned when a mutation would skip or reverse a
// job's status. Callers inside the scheduler treat it as a bug.
type IllegalTransition struct {
	ID       string
	From, To Status
}

func NewIllegalTransition(id string, from, to Status) error {
	return &IllegalTransition{ID: id, From: from, To: to}
}

func (e *IllegalTransition) Error() string {
	return fmt.Sprintf("job %q cannot move from %s to %s", e.ID, e.From, e.To)
}

// IsInvalidInput unwraps err with errors.Cause.
func IsInvalidInput(err error) bool {
	_, ok := errors.Cause(err).(*InvalidInput)
	return ok
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFound)
	return ok
}

func IsIllegalTransition(err error) bool {
	_, ok := errors.Cause(err).(*IllegalTransition)
	return ok
}
