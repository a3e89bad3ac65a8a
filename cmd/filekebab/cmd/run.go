package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"filekebab/internal/dispatch"
	"filekebab/internal/orchestrator"
	"filekebab/internal/rename"
	"filekebab/internal/vault"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sweep the whole vault once",
	Long: `Reconcile every entry of the vault once. Files are renamed before the
folders that contain them. Hidden entries are never visited.

Use "filekebab status" to preview the renames first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		settings := store.Snapshot()

		v, err := vault.NewFS(vaultPath)
		if err != nil {
			return err
		}

		dispatchOpts := []dispatch.Option{dispatch.WithLogger(logger)}
		opts := []orchestrator.Option{
			orchestrator.WithLogger(logger),
			orchestrator.WithProgress(out),
		}
		jw, err := openJournal(settings)
		if err != nil {
			return err
		}
		if jw != nil {
			defer jw.Close()
			dispatchOpts = append(dispatchOpts, dispatch.WithRecorder(jw))
			opts = append(opts, orchestrator.WithJournal(jw))
		}

		d := dispatch.New(store, rename.New(v, rename.WithLogger(logger)), dispatchOpts...)
		o := orchestrator.New(v, store, d, opts...)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		start := time.Now()
		result, err := o.Run(ctx)
		if result == nil {
			return err
		}
		summary := orchestrator.GenerateSummary(result, time.Since(start), verbose)
		out.RunResult(result, summary)
		if err != nil {
			return err
		}
		if summary.HasErrors() {
			return fmt.Errorf("%d renames failed", summary.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
