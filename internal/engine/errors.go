package engine

import (
	"errors"
	"fmt"
)

// OptimisticLockError rejects a stale write: the caller declared the version
// it expected to modify and the stored document has moved past it. The
// document is untouched; the caller must re-fetch and retry. No retry happens
// inside the engine.
type OptimisticLockError struct {
	Expected int64
	Actual   int64
}

// Error implements the error interface.
func (e *OptimisticLockError) Error() string {
	return fmt.Sprintf("version conflict: expected %d, document is at %d", e.Expected, e.Actual)
}

// IsOptimisticLock reports whether err is (or wraps) a version conflict.
// Uses errors.As to handle wrapped errors.
func IsOptimisticLock(err error) bool {
	var le *OptimisticLockError
	return errors.As(err, &le)
}

// CheckVersion is the version guard. It must run before any mutation work
// begins so stale writes fail fast.
func CheckVersion(current, expected int64) error {
	if current != expected {
		return &OptimisticLockError{Expected: expected, Actual: current}
	}
	return nil
}
