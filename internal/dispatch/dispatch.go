// Package dispatch routes vault lifecycle events to the rename reconciler.
package dispatch

import (
	"context"
	"log/slog"

	"filekebab/internal/config"
	"filekebab/internal/logging"
	"filekebab/internal/rename"
	"filekebab/internal/title"
	"filekebab/internal/vault"
)

// Kind is the type of a lifecycle event.
type Kind string

const (
	KindRenamed         Kind = "renamed"
	KindCreated         Kind = "created"
	KindMetadataChanged Kind = "metadata-changed"
)

// Event is a lifecycle event observed by the host. Metadata is only read
// for KindMetadataChanged; nil means metadata is unavailable.
type Event struct {
	Kind     Kind
	Entry    vault.Entry
	Metadata *title.Metadata
}

// Reasons for events the dispatcher declines to act on.
const (
	ReasonCreateDisabled  rename.Reason = "CREATE_DISABLED"
	ReasonHeadingDisabled rename.Reason = "HEADING_DISABLED"
	ReasonUnknownEvent    rename.Reason = "UNKNOWN_EVENT"
)

// SettingsSource supplies the settings snapshot for each event.
type SettingsSource interface {
	Snapshot() config.Settings
}

// Recorder journals reconciliation outcomes.
type Recorder interface {
	Record(trigger string, out rename.Outcome) error
}

// Dispatcher selects the candidate-name strategy for each event and hands
// it to the reconciler.
type Dispatcher struct {
	settings   SettingsSource
	reconciler *rename.Reconciler
	recorder   Recorder
	logger     *slog.Logger
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder journals renamed and failed outcomes.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Dispatcher.
func New(settings SettingsSource, reconciler *rename.Reconciler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		settings:   settings,
		reconciler: reconciler,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch handles one event to completion. The settings snapshot is taken
// once, at the start.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) rename.Outcome {
	settings := d.settings.Snapshot()

	var candidate string
	switch ev.Kind {
	case KindRenamed:
		candidate = title.FromPath(ev.Entry)
	case KindCreated:
		if !settings.RenameOnCreate {
			return declined(ev.Entry, ReasonCreateDisabled)
		}
		candidate = title.FromPath(ev.Entry)
	case KindMetadataChanged:
		if !settings.UseFirstHeading {
			return declined(ev.Entry, ReasonHeadingDisabled)
		}
		candidate = title.FromMetadata(ev.Entry, ev.Metadata)
	default:
		return declined(ev.Entry, ReasonUnknownEvent)
	}

	out := d.reconciler.Reconcile(ctx, ev.Entry, candidate, settings.RenameConfig())
	d.observe(ev, out)
	return out
}

func (d *Dispatcher) observe(ev Event, out rename.Outcome) {
	switch out.Status {
	case rename.StatusRenamed:
		d.logger.Info("renamed",
			"event", ev.Kind,
			"path", out.Entry.Path,
			"target", out.NewPath,
			"attempts", out.Attempts)
	case rename.StatusFailed:
		d.logger.Error("rename failed",
			"event", ev.Kind,
			"path", out.Entry.Path,
			"target", out.Target,
			"attempts", out.Attempts,
			"error", out.Err)
	default:
		d.logger.Debug("unchanged",
			"event", ev.Kind,
			"path", out.Entry.Path,
			"reason", out.Reason)
		return
	}

	if d.recorder == nil {
		return
	}
	if err := d.recorder.Record(string(ev.Kind), out); err != nil {
		d.logger.Warn("failed to journal outcome", "path", out.Entry.Path, "error", err)
	}
}

func declined(entry vault.Entry, reason rename.Reason) rename.Outcome {
	return rename.Outcome{
		Status: rename.StatusUnchanged,
		Reason: reason,
		Entry:  entry,
	}
}
