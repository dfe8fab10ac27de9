package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/doc"
)

// HashResult is the payload printed by the hash command.
type HashResult struct {
	ContentHash string `json:"content_hash"`
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <content-file>",
		Short: "Compute the canonical content hash of a document",
		Long: `Compute the canonical content hash of a JSON or YAML document.

The content is canonicalized (sorted keys, NFC strings, fixed number
formatting) before hashing, so structurally equal documents hash identically
regardless of key order. The embedded audit log, if present, is excluded.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runHash(opts *RootOptions, contentPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	content, err := LoadValue(contentPath)
	if err != nil {
		return err
	}

	hash, err := doc.ContentHash(content)
	if err != nil {
		return WrapExitError(ExitCommandError, "hash content", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(HashResult{ContentHash: hash})
	}
	_, err = fmt.Fprintln(formatter.Writer, hash)
	return err
}
