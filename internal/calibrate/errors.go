package calibrate

import (
	"errors"
	"fmt"
)

// Calibration failure causes.
var (
	// ErrFiducial is returned when the fiducial locator does not find exactly
	// two markers.
	ErrFiducial = errors.New("expected exactly two fiducial markers")
	// ErrTooFewEdges is returned when fewer than two edges qualify.
	ErrTooFewEdges = errors.New("fewer than two keyboard edges found")
	// ErrDegenerateQuad is returned when the four corners cannot define a
	// projective transform.
	ErrDegenerateQuad = errors.New("keyboard corners do not form a valid quadrilateral")
)

// Error is a calibration failure tagged with the stage that produced it.
// Calibration failures are fatal: nothing downstream can run without a
// homography.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("calibration failed at %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError tags err with the calibration stage that failed.
func NewError(stage string, err error) error {
	return &Error{Stage: stage, Err: err}
}
