package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/engine"
	"github.com/roach88/patchwork/internal/store"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <db> <doc-id> <patch-file>",
		Short: "Re-check a patch file against a document on every save",
		Long: `Watch a patch file and dry-run it against the stored document whenever
the file changes. Nothing is ever committed; each run reports whether the
patch would apply cleanly and what the resulting content hash would be.

Useful while authoring a patch by hand: leave the watcher running and save
the file to see the verdict.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, args[0], args[1], args[2], cmd)
		},
	}
	return cmd
}

func runWatch(opts *RootOptions, dbPath, docID, patchPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := cmd.Context()

	s, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer s.Close()

	abs, err := filepath.Abs(patchPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve patch path", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitCommandError, "create watcher", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file itself so editors that save
	// via rename-and-replace keep triggering events
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return WrapExitError(ExitCommandError, "watch directory", err)
	}

	check := func() {
		d, err := s.GetDocument(ctx, docID)
		if err != nil {
			fmt.Fprintf(formatter.Writer, "✗ load document: %v\n", err)
			return
		}
		ops, err := LoadPatch(patchPath)
		if err != nil {
			fmt.Fprintf(formatter.Writer, "✗ %v\n", err)
			return
		}

		eng := engine.New()
		result, err := eng.Apply(d, engine.Request{
			ExpectedVersion: d.Version,
			Patch:           ops,
			DryRun:          true,
		})
		if err != nil {
			fmt.Fprintf(formatter.Writer, "✗ %v\n", err)
			return
		}
		fmt.Fprintf(formatter.Writer, "✓ %d op(s) apply cleanly to %s@%d, would produce %s\n",
			len(ops), docID, d.Version, result.NewContentHash)
	}

	fmt.Fprintf(formatter.Writer, "watching %s (ctrl-c to stop)\n", patchPath)
	check()

	// Editors fire bursts of events per save; collapse them with a short
	// settle timer before re-checking
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			settle = time.After(100 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			formatter.VerboseLog("watch error: %v", err)
		case <-settle:
			settle = nil
			check()
		}
	}
}
