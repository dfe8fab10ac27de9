package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/patch"
)

// NewInvertCommand creates the invert command.
func NewInvertCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invert <content-file> <patch-file>",
		Short: "Compute the inverse of a patch against a document",
		Long: `Compute the operation list that would undo a patch.

The inverse is computed against the given pre-image content, accumulated in
reverse order of the forward list, and printed as a JSON Patch array.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvert(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runInvert(opts *RootOptions, contentPath, patchPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	content, err := LoadValue(contentPath)
	if err != nil {
		return err
	}
	ops, err := LoadPatch(patchPath)
	if err != nil {
		return err
	}

	inverse, err := patch.Inverse(ops, content)
	if err != nil {
		return outputPatchError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(inverse)
	}

	// Text format prints the bare patch array, ready to feed back into apply
	data, err := json.MarshalIndent(inverse, "", "  ")
	if err != nil {
		return WrapExitError(ExitCommandError, "encode inverse patch", err)
	}
	_, err = formatter.Writer.Write(append(data, '\n'))
	return err
}
