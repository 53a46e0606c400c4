// Package errors provides the error taxonomy used across popsynth.
//
// It wraps github.com/cockroachdb/errors so every error created here carries
// a stack trace (visible with "%+v") while remaining compatible with the
// standard errors.Is / errors.As helpers.
//
// The taxonomy mirrors the failure classes of the generation pipeline:
//
//   - configuration errors (ValidationError wrapping ErrInvalidConfig or
//     ErrUnknownCategory) abort a run before any sampling happens
//   - ErrEmptyPartition marks a milieu partition whose correction is skipped
//   - ConvergenceWarning reports a shape correction that exhausted its
//     iteration budget; it is routed through Warn and never returned
//   - ErrPersistence wraps failures to write the output files
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

const prefix = "popsynth"

// Sentinel errors.
var (
	// ErrEmptyData is returned when an operation receives no rows.
	ErrEmptyData = errors.New("empty data")
	// ErrInvalidConfig marks configuration values that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnknownCategory marks a value outside a fixed lookup table.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrEmptyPartition marks a milieu partition with no members.
	ErrEmptyPartition = errors.New("empty partition")
	// ErrStageOrder is returned when a pipeline stage runs out of order.
	ErrStageOrder = errors.New("stage out of order")
	// ErrPersistence wraps failures to write generated output.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotFitted is returned when an encoder is used before Fit.
	ErrNotFitted = errors.New("not fitted")
)

// Re-exported helpers so callers only import one errors package.
var (
	New       = errors.New
	Newf      = errors.Newf
	Wrap      = errors.Wrap
	Wrapf     = errors.Wrapf
	Is        = errors.Is
	As        = errors.As
	Unwrap    = errors.Unwrap
	Mark      = errors.Mark
	WithStack = errors.WithStack
)

// ModelError is a failure inside a named operation, carrying its cause.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

// NewModelError creates a ModelError for op wrapping err.
func NewModelError(op, message string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Message: message, Err: err})
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s: %v", prefix, e.Op, e.Message, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ModelError) Unwrap() error {
	return e.Err
}

// ValueError reports an argument with an unusable value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
}

// ValidationError reports a configuration parameter that failed validation.
// It matches ErrInvalidConfig, or ErrUnknownCategory when Unknown is set.
type ValidationError struct {
	Param   string
	Message string
	Value   interface{}
	Unknown bool
}

// NewValidationError creates a ValidationError matching ErrInvalidConfig.
func NewValidationError(param, message string, value interface{}) error {
	return errors.WithStack(&ValidationError{Param: param, Message: message, Value: value})
}

// NewUnknownCategoryError creates a ValidationError matching ErrUnknownCategory.
func NewUnknownCategoryError(param string, value interface{}) error {
	return errors.WithStack(&ValidationError{
		Param:   param,
		Message: "value is not a known category",
		Value:   value,
		Unknown: true,
	})
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s (got %v)", prefix, e.Param, e.Message, e.Value)
}

// Is lets errors.Is match the configuration sentinels.
func (e *ValidationError) Is(target error) bool {
	if e.Unknown {
		return target == ErrUnknownCategory || target == ErrInvalidConfig
	}
	return target == ErrInvalidConfig
}

// ConvergenceWarning reports an iterative procedure that stopped on its
// iteration budget instead of its tolerance.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

// NewConvergenceWarning creates a ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("%s: %s did not converge after %d iterations: %s",
		prefix, w.Algorithm, w.Iterations, w.Message)
}

// Recover converts a panic inside op into an error stored in *err.
// It must be deferred directly.
func Recover(err *error, op string) {
	if r := recover(); r != nil {
		if rerr, ok := r.(error); ok {
			*err = errors.Wrapf(rerr, "%s: panic recovered", op)
			return
		}
		*err = errors.Newf("%s: panic recovered: %v", op, r)
	}
}
