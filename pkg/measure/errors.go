package measure

import (
	"errors"
	"fmt"
)

// Failure taxonomy. These are contract violations, never retried, and always
// surface at the call that triggered them.
var (
	// ErrUnsupportedMeasurementMode is returned when a circuit requests
	// shot-based (finite-sample) measurement.
	ErrUnsupportedMeasurementMode = errors.New("shot-based measurement is not supported")

	// ErrDispatchFailure is returned when a measurement request matches no
	// computation path.
	ErrDispatchFailure = errors.New("measurement matches no computation path")

	// ErrPrecisionMismatch is returned at construction when the backend
	// precision and the state vector precision disagree, or when the
	// precision tag is not a supported value.
	ErrPrecisionMismatch = errors.New("backend and state vector precision mismatch")
)

// MeasureError wraps errors with operation context.
type MeasureError struct {
	Op  string // Operation name
	Err error  // Underlying error
}

// Error implements the error interface.
func (e *MeasureError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("measure: %v", e.Err)
	}
	return fmt.Sprintf("measure: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *MeasureError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *MeasureError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// wrapError wraps an error with operation context.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &MeasureError{Op: op, Err: err}
}
