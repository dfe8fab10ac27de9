package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/wI2L/jsondiff"

	"github.com/roach88/patchwork/internal/doc"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	var invertible bool

	cmd := &cobra.Command{
		Use:   "diff <content-file-a> <content-file-b>",
		Short: "Compute a patch transforming one document into another",
		Long: `Compute a JSON Patch that transforms the first document's content into
the second's. Both files are canonicalized before comparison, so key order
differences produce an empty patch.

With --invertible the diff carries test operations capturing the old values,
so the generated patch can be inverted without the pre-image.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(rootOpts, args[0], args[1], invertible, cmd)
		},
	}

	cmd.Flags().BoolVar(&invertible, "invertible", false,
		"emit test operations so the diff is invertible standalone")
	return cmd
}

func runDiff(opts *RootOptions, pathA, pathB string, invertible bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	a, err := LoadValue(pathA)
	if err != nil {
		return err
	}
	b, err := LoadValue(pathB)
	if err != nil {
		return err
	}

	// Canonicalize both sides so the diff reflects structural differences
	// only, never serialization noise
	aJSON, err := doc.MarshalCanonical(a)
	if err != nil {
		return WrapExitError(ExitCommandError, "canonicalize "+pathA, err)
	}
	bJSON, err := doc.MarshalCanonical(b)
	if err != nil {
		return WrapExitError(ExitCommandError, "canonicalize "+pathB, err)
	}

	var diffOpts []jsondiff.Option
	if invertible {
		diffOpts = append(diffOpts, jsondiff.Invertible())
	}

	diff, err := jsondiff.CompareJSON(aJSON, bJSON, diffOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "compute diff", err)
	}

	formatter.VerboseLog("diff has %d op(s)", len(diff))

	if formatter.Format == "json" {
		return formatter.Success(diff)
	}

	data, err := json.MarshalIndent(diff, "", "  ")
	if err != nil {
		return WrapExitError(ExitCommandError, "encode diff", err)
	}
	_, err = formatter.Writer.Write(append(data, '\n'))
	return err
}
