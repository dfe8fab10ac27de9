package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/store"
)

// HistoryEntry is one revision row as printed by the history command.
type HistoryEntry struct {
	Version     int64     `json:"version"`
	ContentHash string    `json:"content_hash"`
	Actor       string    `json:"actor,omitempty"`
	OpCount     int       `json:"op_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryResult is the payload printed by the history command.
type HistoryResult struct {
	DocumentID     string         `json:"document_id"`
	CurrentVersion int64          `json:"current_version"`
	Revisions      []HistoryEntry `json:"revisions"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var withPatches bool

	cmd := &cobra.Command{
		Use:   "history <db> <doc-id>",
		Short: "List a document's revision history",
		Long: `List a document's revisions, oldest first. Each row names the version it
produced, the resulting content hash, the recording actor, and when it was
committed. With --patches the stored forward and inverse operation lists are
included as well.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args[0], args[1], withPatches, cmd)
		},
	}

	cmd.Flags().BoolVar(&withPatches, "patches", false,
		"include the stored forward and inverse patches")
	return cmd
}

func runHistory(opts *RootOptions, dbPath, docID string, withPatches bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := cmd.Context()

	s, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer s.Close()

	d, err := s.GetDocument(ctx, docID)
	if err != nil {
		return WrapExitError(ExitCommandError, "load document", err)
	}

	revs, err := s.Revisions(ctx, docID)
	if err != nil {
		return WrapExitError(ExitCommandError, "list revisions", err)
	}

	if withPatches && formatter.Format == "json" {
		return formatter.Success(struct {
			DocumentID     string           `json:"document_id"`
			CurrentVersion int64            `json:"current_version"`
			Revisions      []store.Revision `json:"revisions"`
		}{docID, d.Version, revs})
	}

	entries := make([]HistoryEntry, 0, len(revs))
	for _, rev := range revs {
		entries = append(entries, HistoryEntry{
			Version:     rev.Version,
			ContentHash: rev.ContentHash,
			Actor:       rev.Actor,
			OpCount:     len(rev.Patch),
			CreatedAt:   rev.CreatedAt,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(HistoryResult{
			DocumentID:     docID,
			CurrentVersion: d.Version,
			Revisions:      entries,
		})
	}

	fmt.Fprintf(formatter.Writer, "%s (version %d, %d revision(s))\n", docID, d.Version, len(entries))
	for _, e := range entries {
		actor := e.Actor
		if actor == "" {
			actor = "-"
		}
		fmt.Fprintf(formatter.Writer, "  v%-4d %s  %2d op(s)  %-12s %s\n",
			e.Version, e.ContentHash, e.OpCount, actor,
			e.CreatedAt.UTC().Format(time.RFC3339))
	}
	return nil
}
