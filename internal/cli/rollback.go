package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/engine"
	"github.com/roach88/patchwork/internal/store"
)

// NewRollbackCommand creates the rollback command.
func NewRollbackCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		actor  string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "rollback <db> <doc-id>",
		Short: "Undo the latest revision by applying its stored inverse",
		Long: `Undo a document's latest revision by applying the inverse patch stored
alongside it.

Rollback is a roll-forward: the version still increments and the rollback
itself becomes a revision with its own audit entry and inverse, so history
stays append-only and a rollback can itself be rolled back.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollback(rootOpts, args[0], args[1], actor, dryRun, cmd)
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "actor recorded in the audit entry")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"compute the rollback without storing anything")
	return cmd
}

func runRollback(opts *RootOptions, dbPath, docID, actor string, dryRun bool, cmd *cobra.Command) error {
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
	if d.Version == 1 {
		_ = formatter.Error(ErrCodeBadInput, "document is at version 1, nothing to roll back", nil)
		return NewExitError(ExitFailure, "nothing to roll back")
	}

	// The revision that produced the current version carries the inverse
	// restoring the one before it
	rev, err := s.GetRevision(ctx, docID, d.Version)
	if err != nil {
		return WrapExitError(ExitCommandError, "load revision", err)
	}
	formatter.VerboseLog("rolling back %s from version %d using %d inverse op(s)",
		docID, d.Version, len(rev.InversePatch))

	eng := engine.New()
	result, err := eng.Apply(d, engine.Request{
		ExpectedVersion: d.Version,
		Patch:           rev.InversePatch,
		Evidence:        []string{fmt.Sprintf("rollback of version %d", d.Version)},
		DryRun:          dryRun,
		Actor:           actor,
	})
	if err != nil {
		return outputPatchError(formatter, err)
	}

	if !dryRun {
		err = s.CommitRevision(ctx, docID, d.Version, result.Document, store.Revision{
			DocumentID:   docID,
			Version:      result.NewVersion,
			Patch:        rev.InversePatch,
			InversePatch: result.InversePatch,
			ContentHash:  result.NewContentHash,
			Actor:        actor,
			CreatedAt:    result.AppliedAt,
		})
		if err != nil {
			return outputPatchError(formatter, err)
		}
	}

	return formatter.Success(ApplyResult{
		Success:      true,
		DocumentID:   docID,
		NewVersion:   result.NewVersion,
		ContentHash:  result.NewContentHash,
		InversePatch: result.InversePatch,
		AppliedAt:    result.AppliedAt,
		DryRun:       dryRun,
	})
}
