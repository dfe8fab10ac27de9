package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/engine"
	"github.com/roach88/patchwork/internal/patch"
	"github.com/roach88/patchwork/internal/store"
)

// ApplyResult is the payload printed after a patch request.
type ApplyResult struct {
	Success      bool              `json:"success"`
	DocumentID   string            `json:"document_id"`
	NewVersion   int64             `json:"new_version"`
	ContentHash  string            `json:"content_hash"`
	InversePatch []patch.Operation `json:"inverse_patch"`
	AppliedAt    time.Time         `json:"applied_at"`
	DryRun       bool              `json:"dry_run,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		expectVersion int64
		dryRun        bool
		actor         string
		evidence      []string
		maxOps        int
	)

	cmd := &cobra.Command{
		Use:   "apply <db> <doc-id> <patch-file>",
		Short: "Apply a patch to a stored document",
		Long: `Apply a JSON Patch to a stored document.

The patch is validated, its inverse is computed against the pre-image, and
the operations are applied atomically. On success the document's version
increments by one, its canonical content hash is recomputed, an audit entry
is appended inside the document, and the revision (patch + inverse) is
recorded in the store.

With --dry-run the would-be hash and inverse patch are reported but nothing
is stored: no version bump, no audit entry, no revision row.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(rootOpts, applyParams{
				dbPath:        args[0],
				docID:         args[1],
				patchPath:     args[2],
				expectVersion: expectVersion,
				dryRun:        dryRun,
				actor:         actor,
				evidence:      evidence,
				maxOps:        maxOps,
			}, cmd)
		},
	}

	cmd.Flags().Int64Var(&expectVersion, "expect-version", 0,
		"version the document is expected to be at (0 = current)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"compute the result without storing anything")
	cmd.Flags().StringVar(&actor, "actor", "", "actor recorded in the audit entry")
	cmd.Flags().StringArrayVar(&evidence, "evidence", nil,
		"evidence reference recorded in the audit entry (repeatable)")
	cmd.Flags().IntVar(&maxOps, "max-ops", 0,
		"operation-count ceiling (0 = default)")

	return cmd
}

type applyParams struct {
	dbPath        string
	docID         string
	patchPath     string
	expectVersion int64
	dryRun        bool
	actor         string
	evidence      []string
	maxOps        int
}

func runApply(opts *RootOptions, p applyParams, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := cmd.Context()

	ops, err := LoadPatch(p.patchPath)
	if err != nil {
		return err
	}

	s, err := store.Open(p.dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer s.Close()

	d, err := s.GetDocument(ctx, p.docID)
	if err != nil {
		return WrapExitError(ExitCommandError, "load document", err)
	}

	expected := p.expectVersion
	if expected == 0 {
		expected = d.Version
	}
	formatter.VerboseLog("document %s at version %d, applying %d op(s)", p.docID, d.Version, len(ops))

	eng := engine.New(engine.WithMaxOperations(p.maxOps))
	result, err := eng.Apply(d, engine.Request{
		ExpectedVersion: expected,
		Patch:           ops,
		Evidence:        p.evidence,
		DryRun:          p.dryRun,
		Actor:           p.actor,
	})
	if err != nil {
		return outputPatchError(formatter, err)
	}

	if !p.dryRun {
		err = s.CommitRevision(ctx, p.docID, d.Version, result.Document, store.Revision{
			DocumentID:   p.docID,
			Version:      result.NewVersion,
			Patch:        ops,
			InversePatch: result.InversePatch,
			ContentHash:  result.NewContentHash,
			Actor:        p.actor,
			CreatedAt:    result.AppliedAt,
		})
		if err != nil {
			return outputPatchError(formatter, err)
		}
	}

	return formatter.Success(ApplyResult{
		Success:      true,
		DocumentID:   p.docID,
		NewVersion:   result.NewVersion,
		ContentHash:  result.NewContentHash,
		InversePatch: result.InversePatch,
		AppliedAt:    result.AppliedAt,
		DryRun:       p.dryRun,
	})
}
