package cli

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/doc"
	"github.com/roach88/patchwork/internal/patch"
)

// ValidateResult holds validation results for output.
type ValidateResult struct {
	Valid  bool                    `json:"valid"`
	Errors []patch.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		maxOps     int
		schemaPath string
		docPath    string
	)

	cmd := &cobra.Command{
		Use:   "validate <patch-file>",
		Short: "Statically validate a patch without applying it",
		Long: `Check a patch for structural legality: well-formed pointers, required
members per operation kind, operation-count ceiling, reserved paths. All
problems are reported, not just the first. Nothing is mutated.

With --document and --schema, the document content is additionally checked
against a CUE schema. Schema validation is a caller-side concern: the patch
engine itself never validates business content.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], docPath, schemaPath, maxOps, cmd)
		},
	}

	cmd.Flags().IntVar(&maxOps, "max-ops", 0, "operation-count ceiling (0 = default)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "CUE schema to check the document against")
	cmd.Flags().StringVar(&docPath, "document", "", "document content file for the schema check")
	cmd.MarkFlagsRequiredTogether("schema", "document")

	return cmd
}

func runValidate(opts *RootOptions, patchPath, docPath, schemaPath string, maxOps int, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ops, err := LoadPatch(patchPath)
	if err != nil {
		return err
	}

	validator := patch.NewValidator(maxOps)
	result := validator.Validate(ops)
	formatter.VerboseLog("validated %d op(s) against a ceiling of %d", len(ops), validator.MaxOperations())

	if !result.Valid {
		_ = formatter.Error(ErrCodeRejected, fmt.Sprintf("patch has %d structural error(s)", len(result.Errors)), result.Errors)
		return NewExitError(ExitFailure, "patch validation failed")
	}

	if schemaPath != "" {
		if err := validateAgainstSchema(docPath, schemaPath); err != nil {
			_ = formatter.Error(ErrCodeRejected, err.Error(), nil)
			return NewExitError(ExitFailure, "schema validation failed")
		}
		formatter.VerboseLog("document %s satisfies schema %s", docPath, schemaPath)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidateResult{Valid: true})
	}
	fmt.Fprintln(formatter.Writer, "✓ patch is valid")
	return nil
}

// validateAgainstSchema unifies the document content with a CUE schema and
// requires the result to be concrete and error-free.
func validateAgainstSchema(docPath, schemaPath string) error {
	content, err := LoadValue(docPath)
	if err != nil {
		return err
	}
	canonical, err := doc.MarshalCanonical(content)
	if err != nil {
		return fmt.Errorf("canonicalize document: %w", err)
	}

	schemaBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaBytes, cue.Filename(schemaPath))
	if schema.Err() != nil {
		return fmt.Errorf("compile schema: %w", schema.Err())
	}

	// JSON is valid CUE, so the canonical document compiles directly
	data := ctx.CompileBytes(canonical, cue.Filename(docPath))
	if data.Err() != nil {
		return fmt.Errorf("compile document: %w", data.Err())
	}

	unified := schema.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("document does not satisfy schema: %w", err)
	}
	return nil
}
