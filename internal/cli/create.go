package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/doc"
	"github.com/roach88/patchwork/internal/store"
)

// CreateResult is the payload printed after document creation.
type CreateResult struct {
	ID          string `json:"id"`
	Version     int64  `json:"version"`
	ContentHash string `json:"content_hash"`
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <db> <content-file>",
		Short: "Create a new versioned document from a content file",
		Long: `Create a new document in the store from a JSON or YAML content file.

The document starts at version 1 with its canonical content hash computed.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runCreate(opts *RootOptions, dbPath, contentPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	content, err := LoadValue(contentPath)
	if err != nil {
		return err
	}

	d, err := doc.New(content)
	if err != nil {
		return WrapExitError(ExitCommandError, "create document", err)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer s.Close()

	id, err := s.CreateDocument(cmd.Context(), d)
	if err != nil {
		return WrapExitError(ExitCommandError, "store document", err)
	}

	formatter.VerboseLog("created document %s at version 1", id)
	return formatter.Success(CreateResult{
		ID:          id,
		Version:     d.Version,
		ContentHash: d.ContentHash,
	})
}
