package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"filekebab/internal/journal"
	"filekebab/internal/vault"
)

var undoDryRun bool

var undoCmd = &cobra.Command{
	Use:   "undo [run-id]",
	Short: "Revert the renames of a journaled run",
	Long: `Rename every entry a run renamed back to its previous name, newest
rename first. Without a run ID the most recent run that renamed something
is reverted. The undo itself is journaled as a run of its own and cannot
be undone again.

Examples:
  filekebab undo             # Revert the latest run
  filekebab undo --dry-run   # Show what would be reverted
  filekebab undo <run-id>    # Revert a specific run`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		settings := store.Snapshot()
		if !settings.Journal.Enabled {
			return errors.New("the journal is disabled; nothing can be undone")
		}

		v, err := vault.NewFS(vaultPath)
		if err != nil {
			return err
		}
		// A dry run only reads the journal.
		var jw *journal.Writer
		if !undoDryRun {
			jw, err = openJournal(settings)
			if err != nil {
				return err
			}
			defer jw.Close()
		}

		undoer := journal.NewUndoer(journal.NewReader(settings.JournalDir(vaultPath)), jw, v, vaultPath)

		var runID journal.RunID
		if len(args) == 1 {
			runID = journal.RunID(args[0])
		} else {
			runID, err = undoer.LatestRun()
			if err != nil {
				return err
			}
		}

		if undoDryRun {
			preview, err := undoer.Preview(runID)
			if err != nil {
				return err
			}
			out.UndoPreview(preview)
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := undoer.Undo(ctx, runID)
		if result == nil {
			return err
		}
		out.UndoResult(result)
		if err != nil {
			return err
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d renames could not be reverted", len(result.Failed))
		}
		return nil
	},
}

func init() {
	undoCmd.Flags().BoolVar(&undoDryRun, "dry-run", false, "show what would be reverted without renaming")
	rootCmd.AddCommand(undoCmd)
}
