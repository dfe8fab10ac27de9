package patch

import (
	"errors"
	"fmt"
)

// ValidationFailedError carries the full set of structural problems found in
// a patch. It is returned instead of the first error so callers can report a
// complete diagnostic.
type ValidationFailedError struct {
	Result ValidationResult
}

// Error implements the error interface.
func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("patch validation failed with %d error(s)", len(e.Result.Errors))
}

// ApplicationError reports a runtime application failure: a test mismatch,
// a vanished move source, an out-of-range index. OpIndex identifies the
// failing operation; the whole patch is discarded.
type ApplicationError struct {
	OpIndex int
	Op      Op
	Reason  string
	Err     error
}

// Error implements the error interface.
func (e *ApplicationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("patch application failed at op %d (%s): %s: %v", e.OpIndex, e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("patch application failed at op %d (%s): %s", e.OpIndex, e.Op, e.Reason)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// InverseError reports that the pre-image does not admit an inverse for some
// operation, e.g. a replace whose target path does not exist. Callers treat
// it like a validation failure.
type InverseError struct {
	OpIndex int
	Op      Op
	Reason  string
	Err     error
}

// Error implements the error interface.
func (e *InverseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inverse generation failed at op %d (%s): %s: %v", e.OpIndex, e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("inverse generation failed at op %d (%s): %s", e.OpIndex, e.Op, e.Reason)
}

func (e *InverseError) Unwrap() error {
	return e.Err
}

// IsValidationFailed reports whether err is (or wraps) a validation failure.
func IsValidationFailed(err error) bool {
	var ve *ValidationFailedError
	return errors.As(err, &ve)
}

// IsApplicationError reports whether err is (or wraps) an application failure.
func IsApplicationError(err error) bool {
	var ae *ApplicationError
	return errors.As(err, &ae)
}

// IsInverseError reports whether err is (or wraps) an inverse-generation
// failure.
func IsInverseError(err error) bool {
	var ie *InverseError
	return errors.As(err, &ie)
}
