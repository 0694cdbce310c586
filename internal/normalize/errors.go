package normalize

import "errors"

// ErrInputNotFound is returned when the input dataset does not exist.
var ErrInputNotFound = errors.New("input file not found")

// ProcessingError wraps any other failure with the stage it happened in.
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &ProcessingError{Stage: stage, Err: err}
}
