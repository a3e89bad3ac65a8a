// Package rename brings vault entries to their canonical kebab-case names,
// resolving name collisions with numeric suffixes.
package rename

import (
	"fmt"

	"filekebab/internal/policy"
	"filekebab/internal/vault"
)

// Status is the terminal state of one reconciliation.
type Status string

const (
	StatusUnchanged Status = "UNCHANGED"
	StatusRenamed   Status = "RENAMED"
	StatusFailed    Status = "FAILED"
)

// Reason details why a reconciliation ended the way it did.
type Reason string

const (
	ReasonExcluded         Reason = "EXCLUDED"
	ReasonAlreadyCanonical Reason = "ALREADY_CANONICAL"
	ReasonEmptyName        Reason = "EMPTY_NAME"
	ReasonAlreadySuffixed  Reason = "ALREADY_SUFFIXED"
	ReasonSuffixed         Reason = "SUFFIXED"
	ReasonExhausted        Reason = "RETRIES_EXHAUSTED"
	ReasonHostError        Reason = "HOST_ERROR"
)

// Outcome is the tagged result of a reconciliation.
type Outcome struct {
	Status    Status
	Reason    Reason
	Exclusion policy.Reason // Set when Reason is ReasonExcluded
	Entry     vault.Entry   // Entry as observed at event time
	Target    string        // Canonical target path
	NewPath   string        // Applied path (renamed only)
	Attempts  int           // Host rename calls made
	Err       error         // Failure cause (failed only)
}

// Unchanged reports whether the entry kept its name.
func (o Outcome) Unchanged() bool { return o.Status == StatusUnchanged }

// Renamed reports whether a rename was applied.
func (o Outcome) Renamed() bool { return o.Status == StatusRenamed }

// Failed reports whether the reconciliation failed.
func (o Outcome) Failed() bool { return o.Status == StatusFailed }

func (o Outcome) String() string {
	switch o.Status {
	case StatusRenamed:
		return fmt.Sprintf("renamed %s -> %s", o.Entry.Path, o.NewPath)
	case StatusFailed:
		return fmt.Sprintf("failed %s: %v", o.Entry.Path, o.Err)
	default:
		return fmt.Sprintf("unchanged %s (%s)", o.Entry.Path, o.Reason)
	}
}

// ExhaustedRetriesError is returned when every suffixed name was rejected.
type ExhaustedRetriesError struct {
	Path     string
	Attempts int
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("rename %s: gave up after %d attempts: %v", e.Path, e.Attempts, e.Last)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Last
}
