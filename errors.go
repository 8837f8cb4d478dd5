package main

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation rejects a booking save with no resolved start or type.
	ErrValidation = errors.New("invalid booking")

	// ErrTypeNotFound short-circuits financial projection.
	ErrTypeNotFound = errors.New("event type not found")

	// ErrStepNotLinked rejects mutations on a plan step with no backing task.
	ErrStepNotLinked = errors.New("plan step has no linked task")
)

// CapacityError reports a booking pushed past the hard daily maximum.
type CapacityError struct {
	Day   string
	Count int
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("day %s is at capacity (%d/%d events)", e.Day, e.Count, e.Limit)
}
