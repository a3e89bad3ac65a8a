// Package journal keeps an append-only JSON Lines record of the renames
// filekebab applies to a vault.
package journal

import (
	"time"

	"github.com/google/uuid"
)

// RunID identifies one filekebab execution (a watch session or a sweep).
type RunID string

// NewRunID returns a fresh random run ID.
func NewRunID() RunID {
	return RunID(uuid.NewString())
}

// EventType represents the type of journal record.
type EventType string

const (
	EventRunStart     EventType = "RUN_START"
	EventRunEnd       EventType = "RUN_END"
	EventRename       EventType = "RENAME"
	EventRenameFailed EventType = "RENAME_FAILED"
	EventRotation     EventType = "ROTATION"
	EventPrune        EventType = "RETENTION_PRUNE"
)

// Status represents the outcome recorded by an event.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// Mode is how a run was started.
type Mode string

const (
	ModeWatch Mode = "WATCH"
	ModeSweep Mode = "SWEEP"
	ModeUndo  Mode = "UNDO"
)

// Record is a single journal line.
type Record struct {
	Timestamp       time.Time
	RunID           RunID
	EventType       EventType
	Status          Status
	Trigger         string // Event kind that caused the rename
	SourcePath      string // Vault-relative path before the rename
	DestinationPath string // Vault-relative path after the rename
	Reason          string
	Attempts        int
	Error           string
	Metadata        map[string]string
}

// RunSummary counts reconciliation outcomes for a run.
type RunSummary struct {
	Renamed   int `json:"renamed"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Config holds journal settings.
type Config struct {
	Directory    string
	RotationSize int64           // Rotate the active log when it reaches this size; 0 disables
	Retention    RetentionPolicy // Applied to rotated segments after each rotation
}

// DefaultRotationSize is the active log size that triggers rotation.
const DefaultRotationSize = 10 * 1024 * 1024

const (
	activeLogName = "filekebab-journal.jsonl"
	segmentPrefix = "filekebab-journal-"
	segmentSuffix = ".jsonl"
)
