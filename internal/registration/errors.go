package registration

import (
	"errors"
	"fmt"
)

var (
	ErrNoActiveSession = errors.New("no active session")
	ErrValidation      = errors.New("validation failed")
	ErrPersistence     = errors.New("persistence failed")
)

// ValidationError reports input that does not fit the current step. The session is unchanged.
type ValidationError struct {
	Step   Step
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s at %s: %s", ErrValidation, e.Step, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// PersistenceError reports a failed append to a record sink.
type PersistenceError struct {
	Sink string
	Err  error
}

func NewPersistenceError(sink string, err error) *PersistenceError {
	return &PersistenceError{Sink: sink, Err: err}
}

func (e *PersistenceError) Error() string {
	if e.Sink == "" {
		return fmt.Sprintf("%s: %v", ErrPersistence, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Sink, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
