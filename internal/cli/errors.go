package cli

import (
	"errors"

	"github.com/roach88/patchwork/internal/engine"
	"github.com/roach88/patchwork/internal/patch"
)

// outputPatchError renders an engine rejection in the configured format and
// returns the matching ExitError. Rejections are expected outcomes (exit 1),
// not command errors (exit 2).
func outputPatchError(formatter *OutputFormatter, err error) error {
	var lockErr *engine.OptimisticLockError
	if errors.As(err, &lockErr) {
		_ = formatter.Error(ErrCodeConflict, lockErr.Error(), map[string]int64{
			"expected": lockErr.Expected,
			"actual":   lockErr.Actual,
		})
		return WrapExitError(ExitFailure, "version conflict", err)
	}

	var valErr *patch.ValidationFailedError
	if errors.As(err, &valErr) {
		_ = formatter.Error(ErrCodeRejected, valErr.Error(), valErr.Result.Errors)
		return WrapExitError(ExitFailure, "patch validation failed", err)
	}

	var appErr *patch.ApplicationError
	if errors.As(err, &appErr) {
		_ = formatter.Error(ErrCodeRejected, appErr.Error(), map[string]any{
			"op_index": appErr.OpIndex,
			"op":       appErr.Op,
		})
		return WrapExitError(ExitFailure, "patch application failed", err)
	}

	var invErr *patch.InverseError
	if errors.As(err, &invErr) {
		_ = formatter.Error(ErrCodeRejected, invErr.Error(), map[string]any{
			"op_index": invErr.OpIndex,
			"op":       invErr.Op,
		})
		return WrapExitError(ExitFailure, "inverse generation failed", err)
	}

	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "patch request failed", err)
}
