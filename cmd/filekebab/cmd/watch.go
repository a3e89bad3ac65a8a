package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"filekebab/internal/config"
	"filekebab/internal/dispatch"
	"filekebab/internal/journal"
	"filekebab/internal/rename"
	"filekebab/internal/vault"
	"filekebab/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rename entries as the vault changes",
	Long: `Watch the vault and bring entries to their kebab-case names as they are
renamed, created (when renameOnCreate is set) or edited (when
useFirstHeading is set).

Naming settings are reloaded when the settings file changes. Watch
settings (debounce, ignore patterns) apply on the next start.

Stop with Ctrl+C; a summary is printed on exit.`,
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
		jw, err := openJournal(settings)
		if err != nil {
			return err
		}
		if jw != nil {
			defer jw.Close()
			if _, err := jw.StartRun(journal.ModeWatch, vaultPath); err != nil {
				return err
			}
			dispatchOpts = append(dispatchOpts, dispatch.WithRecorder(jw))
		}

		d := dispatch.New(store, rename.New(v, rename.WithLogger(logger)), dispatchOpts...)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		settingsWatcher, err := config.NewWatcher(store,
			config.WithWatchLogger(logger),
			config.WithReloadHook(func(s config.Settings) {
				out.Verbose("Settings reloaded from %s", store.Path())
			}))
		if err != nil {
			return err
		}
		if err := settingsWatcher.Start(ctx); err != nil {
			return err
		}
		defer settingsWatcher.Stop()

		wcfg := watcher.DefaultWatchConfig()
		wcfg.Debounce = settings.Watch.Debounce()
		wcfg.NotesExtension = settings.NotesExtension
		wcfg.IgnorePatterns = settings.Watch.IgnorePatterns

		w := watcher.New(v, wcfg, d.Dispatch,
			watcher.WithLogger(logger),
			watcher.WithHeadingNaming(func() bool { return store.Snapshot().UseFirstHeading }))
		if err := w.Start(ctx); err != nil {
			return err
		}

		out.Info("Watching %s (Ctrl+C to stop)", vaultPath)
		<-ctx.Done()

		summary := w.Stop()
		if jw != nil {
			if err := jw.EndRun(journal.RunSummary{
				Renamed:   summary.Renamed,
				Unchanged: summary.Unchanged,
				Failed:    summary.Failed,
				Skipped:   summary.Skipped,
			}); err != nil {
				logger.Warn("failed to end journal run", "error", err)
			}
		}

		out.Info("Stopped after %s: %d renamed, %d unchanged, %d failed, %d skipped",
			summary.Duration.Round(time.Second), summary.Renamed, summary.Unchanged, summary.Failed, summary.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
