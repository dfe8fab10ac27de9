package patch

import (
	"fmt"

	"github.com/roach88/patchwork/internal/doc"
	"github.com/roach88/patchwork/internal/pointer"
)

// Validation error codes.
const (
	CodeUnknownOp    = "PW001"
	CodeBadPointer   = "PW002"
	CodeMissingValue = "PW003"
	CodeMissingFrom  = "PW004"
	CodeTooManyOps   = "PW005"
	CodeReservedPath = "PW006"
	CodeBadMove      = "PW007"
	CodeBadTarget    = "PW008"
)

// DefaultMaxOperations is the operation-count ceiling applied when the
// validator is constructed with a non-positive limit. Oversized patches are
// rejected up front, not mid-application.
const DefaultMaxOperations = 128

// ValidationError describes one structural problem in a patch.
type ValidationError struct {
	OpIndex int    `json:"op_index"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds the outcome of static patch validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validator statically checks an operation list for structural legality
// before any mutation. Validation is read-only and collects ALL discovered
// errors, not just the first.
type Validator struct {
	maxOperations int
}

// NewValidator creates a validator with the given operation-count ceiling.
// A non-positive limit falls back to DefaultMaxOperations.
func NewValidator(maxOperations int) *Validator {
	if maxOperations <= 0 {
		maxOperations = DefaultMaxOperations
	}
	return &Validator{maxOperations: maxOperations}
}

// MaxOperations returns the configured ceiling.
func (v *Validator) MaxOperations() int {
	return v.maxOperations
}

// auditPrefix fences off the embedded audit log: the recorder is the only
// writer, so no operation may address it.
var auditPrefix = pointer.Pointer{doc.AuditKey}

// Validate checks every operation and returns the complete error list.
// The document is never touched; a failing result must prevent any
// subsequent inverse computation or application from running.
func (v *Validator) Validate(ops []Operation) ValidationResult {
	var errs []ValidationError

	if len(ops) > v.maxOperations {
		errs = append(errs, ValidationError{
			OpIndex: -1,
			Field:   "patch",
			Code:    CodeTooManyOps,
			Message: fmt.Sprintf("patch has %d operations, limit is %d", len(ops), v.maxOperations),
		})
		return ValidationResult{Valid: false, Errors: errs}
	}

	for i, op := range ops {
		errs = append(errs, validateOp(i, op)...)
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func validateOp(i int, op Operation) []ValidationError {
	var errs []ValidationError

	if !op.Op.Known() {
		errs = append(errs, ValidationError{
			OpIndex: i, Field: "op", Code: CodeUnknownOp,
			Message: fmt.Sprintf("unknown operation kind %q", op.Op),
		})
		// Without a kind the remaining per-kind checks are meaningless
		return errs
	}

	path, err := pointer.Parse(op.Path)
	if err != nil {
		errs = append(errs, ValidationError{
			OpIndex: i, Field: "path", Code: CodeBadPointer,
			Message: err.Error(),
		})
		path = nil
	}

	if path != nil && path.HasPrefix(auditPrefix) {
		errs = append(errs, ValidationError{
			OpIndex: i, Field: "path", Code: CodeReservedPath,
			Message: fmt.Sprintf("path %q addresses the reserved audit log", op.Path),
		})
	}

	if op.Op.NeedsValue() && op.Value == nil {
		errs = append(errs, ValidationError{
			OpIndex: i, Field: "value", Code: CodeMissingValue,
			Message: fmt.Sprintf("%s requires a value", op.Op),
		})
	}

	if op.Op.NeedsFrom() {
		if op.From == "" {
			errs = append(errs, ValidationError{
				OpIndex: i, Field: "from", Code: CodeMissingFrom,
				Message: fmt.Sprintf("%s requires a from path", op.Op),
			})
		} else {
			from, err := pointer.Parse(op.From)
			if err != nil {
				errs = append(errs, ValidationError{
					OpIndex: i, Field: "from", Code: CodeBadPointer,
					Message: err.Error(),
				})
			} else {
				if from.HasPrefix(auditPrefix) {
					errs = append(errs, ValidationError{
						OpIndex: i, Field: "from", Code: CodeReservedPath,
						Message: fmt.Sprintf("from %q addresses the reserved audit log", op.From),
					})
				}
				// RFC 6902: a move destination may not live inside its source
				if op.Op == OpMove && path != nil && len(from) < len(path) && path.HasPrefix(from) {
					errs = append(errs, ValidationError{
						OpIndex: i, Field: "from", Code: CodeBadMove,
						Message: fmt.Sprintf("cannot move %q into its own child %q", op.From, op.Path),
					})
				}
			}
		}
	}

	// Removing or moving away the document root would leave nothing behind
	if path != nil && path.IsRoot() && (op.Op == OpRemove || op.Op == OpMove) {
		errs = append(errs, ValidationError{
			OpIndex: i, Field: "path", Code: CodeBadTarget,
			Message: fmt.Sprintf("%s cannot target the document root", op.Op),
		})
	}

	// The "-" append token is legal only as the final token of an add target
	if path != nil && op.Op != OpAdd {
		for _, tok := range path {
			if tok == pointer.AppendToken {
				errs = append(errs, ValidationError{
					OpIndex: i, Field: "path", Code: CodeBadPointer,
					Message: "array token '-' is only legal for add",
				})
				break
			}
		}
	}

	return errs
}
