package rename

import (
	"context"
	"errors"
	"log/slog"

	"filekebab/internal/logging"
	"filekebab/internal/policy"
	"filekebab/internal/vault"
)

// DefaultMaxRetries bounds the suffixed attempts after the canonical name
// is rejected.
const DefaultMaxRetries = 99

// Config is the settings snapshot a reconciliation runs with.
type Config struct {
	Policy     policy.Config
	MaxRetries int
}

// DefaultConfig returns the default reconciliation settings.
func DefaultConfig() Config {
	return Config{
		Policy:     policy.DefaultConfig(),
		MaxRetries: DefaultMaxRetries,
	}
}

// Reconciler applies plans through the host rename primitive.
type Reconciler struct {
	host   vault.Renamer
	logger *slog.Logger
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for per-attempt diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Reconciler renaming through host.
func New(host vault.Renamer, opts ...Option) *Reconciler {
	r := &Reconciler{
		host:   host,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile brings entry to the canonical form of candidateBaseName.
//
// Attempts run one at a time: first the canonical name, then
// "<name>-1<ext>" through "<name>-<MaxRetries><ext>". At most one rename
// succeeds. Exhausting the bound yields a failed Outcome carrying an
// *ExhaustedRetriesError that wraps the last host error.
func (r *Reconciler) Reconcile(ctx context.Context, entry vault.Entry, candidateBaseName string, cfg Config) Outcome {
	plan := PlanRename(entry, candidateBaseName, cfg.Policy)
	out := Outcome{
		Entry:     entry,
		Target:    plan.Target,
		Reason:    plan.Reason,
		Exclusion: plan.Exclusion,
	}
	if plan.Skip {
		out.Status = StatusUnchanged
		return out
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		target := entry.Sibling(plan.Candidate.Name(attempt))
		if target == entry.Path {
			// The canonical name is taken and the entry already carries the
			// next free suffix.
			out.Status = StatusUnchanged
			out.Reason = ReasonAlreadySuffixed
			return out
		}

		out.Attempts++
		err := r.host.Rename(ctx, entry, target)
		if err == nil {
			out.Status = StatusRenamed
			out.NewPath = target
			out.Reason = ""
			if attempt > 0 {
				out.Reason = ReasonSuffixed
			}
			return out
		}

		lastErr = err
		if isTerminal(err) {
			out.Status = StatusFailed
			out.Reason = ReasonHostError
			out.Err = err
			return out
		}
		r.logger.Debug("rename attempt rejected",
			"path", entry.Path,
			"target", target,
			"attempt", attempt,
			"error", err)
	}

	out.Status = StatusFailed
	out.Reason = ReasonExhausted
	out.Err = &ExhaustedRetriesError{
		Path:     entry.Path,
		Attempts: out.Attempts,
		Last:     lastErr,
	}
	return out
}

// isTerminal reports errors that another suffix cannot fix.
func isTerminal(err error) bool {
	return errors.Is(err, vault.ErrEntryMissing) ||
		errors.Is(err, vault.ErrCrossDirectory) ||
		errors.Is(err, vault.ErrOutsideVault) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
