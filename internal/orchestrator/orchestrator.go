// Package orchestrator runs whole-vault sweeps: reconciling every entry once
// and reporting what a sweep would change.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"filekebab/internal/config"
	"filekebab/internal/dispatch"
	"filekebab/internal/journal"
	"filekebab/internal/logging"
	"filekebab/internal/rename"
	"filekebab/internal/scanner"
	"filekebab/internal/title"
	"filekebab/internal/vault"
)

// Journal brackets a sweep with run records.
type Journal interface {
	StartRun(mode journal.Mode, vaultRoot string) (journal.RunID, error)
	EndRun(summary journal.RunSummary) error
}

// Progress reports sweep progress to the user.
type Progress interface {
	StartProgress(total int)
	UpdateProgress(current int, message string)
	EndProgress()
}

// RunResult collects the outcomes of a sweep.
type RunResult struct {
	RunID     journal.RunID
	Renamed   []rename.Outcome
	Failed    []rename.Outcome
	Excluded  []rename.Outcome
	Unchanged []rename.Outcome
	Scanned   int
}

// Orchestrator sweeps one vault.
type Orchestrator struct {
	vault      *vault.FS
	settings   dispatch.SettingsSource
	dispatcher *dispatch.Dispatcher
	journal    Journal
	progress   Progress
	logger     *slog.Logger
	scanOpts   scanner.ScanOptions
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithJournal records the sweep as a journal run.
func WithJournal(j Journal) Option {
	return func(o *Orchestrator) {
		o.journal = j
	}
}

// WithProgress reports per-entry progress.
func WithProgress(p Progress) Option {
	return func(o *Orchestrator) {
		o.progress = p
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithScanOptions overrides how the vault is enumerated.
func WithScanOptions(opts scanner.ScanOptions) Option {
	return func(o *Orchestrator) {
		o.scanOpts = opts
	}
}

// New creates an Orchestrator. The dispatcher performs the renames; the
// settings source must be the one the dispatcher reads.
func New(v *vault.FS, settings dispatch.SettingsSource, d *dispatch.Dispatcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		vault:      v,
		settings:   settings,
		dispatcher: d,
		logger:     logging.Discard(),
		scanOpts:   scanner.DefaultScanOptions(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run reconciles every entry of the vault once. Files are visited before
// the folders that contain them. Cancelling ctx stops the sweep between
// entries; the entry already dispatched is reconciled to completion and the
// partial result is returned with ctx's error.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	entries, err := scanner.ScanWithOptions(o.vault.Root(), o.scanOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to scan vault: %w", err)
	}

	result := &RunResult{Scanned: len(entries)}

	if o.journal != nil {
		runID, err := o.journal.StartRun(journal.ModeSweep, o.vault.Root())
		if err != nil {
			return nil, fmt.Errorf("failed to start journal run: %w", err)
		}
		result.RunID = runID
	}

	if o.progress != nil {
		o.progress.StartProgress(len(entries))
	}

	reconcileCtx := context.WithoutCancel(ctx)
	var runErr error
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if o.progress != nil {
			o.progress.UpdateProgress(i+1, "Reconciling")
		}

		out := o.dispatcher.Dispatch(reconcileCtx, o.eventFor(entry))
		result.add(out)
	}

	if o.progress != nil {
		o.progress.EndProgress()
	}

	if o.journal != nil {
		if err := o.journal.EndRun(result.journalSummary()); err != nil {
			o.logger.Warn("failed to end journal run", "run", result.RunID, "error", err)
		}
	}

	return result, runErr
}

// eventFor picks the event a sweep replays for entry: a metadata change for
// notes when heading-derived naming is on, otherwise a rename.
func (o *Orchestrator) eventFor(entry vault.Entry) dispatch.Event {
	settings := o.settings.Snapshot()
	if !settings.UseFirstHeading || !isNote(entry, settings) {
		return dispatch.Event{Kind: dispatch.KindRenamed, Entry: entry}
	}

	abs, err := o.vault.Abs(entry.Path)
	if err != nil {
		return dispatch.Event{Kind: dispatch.KindRenamed, Entry: entry}
	}
	md, err := title.ReadFile(abs)
	if err != nil {
		o.logger.Debug("metadata unavailable", "path", entry.Path, "error", err)
		md = nil
	}
	return dispatch.Event{Kind: dispatch.KindMetadataChanged, Entry: entry, Metadata: md}
}

func isNote(entry vault.Entry, settings config.Settings) bool {
	return !entry.IsContainer && settings.NotesExtension != "" &&
		strings.EqualFold(entry.Ext(), settings.NotesExtension)
}

func (r *RunResult) add(out rename.Outcome) {
	switch {
	case out.Renamed():
		r.Renamed = append(r.Renamed, out)
	case out.Failed():
		r.Failed = append(r.Failed, out)
	case out.Reason == rename.ReasonExcluded:
		r.Excluded = append(r.Excluded, out)
	default:
		r.Unchanged = append(r.Unchanged, out)
	}
}

func (r *RunResult) journalSummary() journal.RunSummary {
	return journal.RunSummary{
		Renamed:   len(r.Renamed),
		Unchanged: len(r.Unchanged),
		Failed:    len(r.Failed),
		Skipped:   len(r.Excluded),
	}
}

// RunFromVault is a convenience that wires a default pipeline for root with
// the given settings and runs one sweep.
func RunFromVault(ctx context.Context, root string, settings config.Settings) (*RunSummary, error) {
	v, err := vault.NewFS(root)
	if err != nil {
		return nil, err
	}
	store := config.NewStore(config.DefaultPath(root), settings)
	o := New(v, store, dispatch.New(store, rename.New(v)))

	start := time.Now()
	result, err := o.Run(ctx)
	if result == nil {
		return nil, err
	}
	return GenerateSummary(result, time.Since(start), false), err
}
