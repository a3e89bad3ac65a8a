package journal

import (
	"context"
	"errors"
	"fmt"

	"filekebab/internal/rename"
	"filekebab/internal/vault"
)

// TriggerUndo is the trigger recorded for renames made by an undo run.
const TriggerUndo = "undo"

var (
	// ErrNothingToUndo is returned when the journal holds no undoable run.
	ErrNothingToUndo = errors.New("no run to undo")
	// ErrUndoRun is returned when asked to undo an undo run.
	ErrUndoRun = errors.New("cannot undo an UNDO run; undo the original run instead")
	// ErrAlreadyUndone is returned when a later undo run already targeted
	// the run.
	ErrAlreadyUndone = errors.New("run has already been undone")
	// ErrReadOnly is returned by Undo on an Undoer built without a writer.
	ErrReadOnly = errors.New("undoer has no journal writer")
)

// UndoHost is the part of the vault an undo needs.
type UndoHost interface {
	Entry(relPath string) (vault.Entry, error)
	Rename(ctx context.Context, entry vault.Entry, newPath string) error
}

// UndoFailure describes one rename that could not be reverted.
type UndoFailure struct {
	SourcePath string // Name the entry had before the run
	DestPath   string // Name the run gave it
	Err        error
}

// UndoResult summarizes an undo.
type UndoResult struct {
	UndoRunID   RunID
	TargetRunID RunID
	Restored    int
	Failed      []UndoFailure
}

// UndoPreview lists the renames an undo would revert, newest first.
type UndoPreview struct {
	TargetRunID RunID
	Renames     []Record
}

// Undoer reverts the renames of a journaled run.
type Undoer struct {
	reader *Reader
	writer *Writer
	host   UndoHost
	root   string
}

// NewUndoer creates an Undoer. Reverted renames are journaled through writer
// as a run of their own. A nil writer gives an Undoer that can only
// LatestRun and Preview.
func NewUndoer(reader *Reader, writer *Writer, host UndoHost, vaultRoot string) *Undoer {
	return &Undoer{reader: reader, writer: writer, host: host, root: vaultRoot}
}

// LatestRun returns the most recent run that renamed something, is not
// itself an undo and has not been undone.
func (u *Undoer) LatestRun() (RunID, error) {
	all, err := u.reader.ReadAll()
	if err != nil {
		return "", err
	}
	renamed := make(map[RunID]bool)
	undone := make(map[RunID]bool)
	for _, rec := range all {
		switch {
		case rec.EventType == EventRename:
			renamed[rec.RunID] = true
		case rec.EventType == EventRunStart && rec.Metadata["mode"] == string(ModeUndo):
			undone[RunID(rec.Metadata["target"])] = true
		}
	}
	for i := len(all) - 1; i >= 0; i-- {
		rec := all[i]
		if rec.EventType != EventRunStart || rec.Metadata["mode"] == string(ModeUndo) {
			continue
		}
		if renamed[rec.RunID] && !undone[rec.RunID] {
			return rec.RunID, nil
		}
	}
	return "", ErrNothingToUndo
}

// Preview returns what Undo would revert without touching the vault.
func (u *Undoer) Preview(runID RunID) (*UndoPreview, error) {
	renames, err := u.undoable(runID)
	if err != nil {
		return nil, err
	}
	return &UndoPreview{TargetRunID: runID, Renames: renames}, nil
}

// Undo renames every entry the run renamed back to its previous name,
// newest rename first. An entry that was moved or whose old name is taken
// again is reported as a failure; the remaining renames still run.
func (u *Undoer) Undo(ctx context.Context, runID RunID) (*UndoResult, error) {
	if u.writer == nil {
		return nil, ErrReadOnly
	}
	renames, err := u.undoable(runID)
	if err != nil {
		return nil, err
	}

	undoRun, err := u.writer.StartUndoRun(u.root, runID)
	if err != nil {
		return nil, err
	}
	result := &UndoResult{UndoRunID: undoRun, TargetRunID: runID}

	for _, rec := range renames {
		if err := ctx.Err(); err != nil {
			u.end(result)
			return result, err
		}

		out := u.revert(ctx, rec)
		if out.Renamed() {
			result.Restored++
		} else {
			result.Failed = append(result.Failed, UndoFailure{
				SourcePath: rec.SourcePath,
				DestPath:   rec.DestinationPath,
				Err:        out.Err,
			})
		}
		if err := u.writer.Record(TriggerUndo, out); err != nil {
			u.end(result)
			return result, err
		}
	}

	if err := u.end(result); err != nil {
		return result, err
	}
	return result, nil
}

func (u *Undoer) revert(ctx context.Context, rec Record) rename.Outcome {
	out := rename.Outcome{Target: rec.SourcePath, Attempts: 1}

	entry, err := u.host.Entry(rec.DestinationPath)
	if err != nil {
		out.Status = rename.StatusFailed
		out.Reason = rename.ReasonHostError
		out.Entry = vault.NewEntry(rec.DestinationPath, false)
		out.Err = fmt.Errorf("%s: %w", rec.DestinationPath, vault.ErrEntryMissing)
		return out
	}
	out.Entry = entry

	if err := u.host.Rename(ctx, entry, rec.SourcePath); err != nil {
		out.Status = rename.StatusFailed
		out.Reason = rename.ReasonHostError
		out.Err = err
		return out
	}
	out.Status = rename.StatusRenamed
	out.NewPath = rec.SourcePath
	return out
}

func (u *Undoer) end(result *UndoResult) error {
	return u.writer.EndRun(RunSummary{
		Renamed: result.Restored,
		Failed:  len(result.Failed),
	})
}

// undoable returns the successful renames of runID, newest first.
func (u *Undoer) undoable(runID RunID) ([]Record, error) {
	all, err := u.reader.ReadAll()
	if err != nil {
		return nil, err
	}

	found := false
	var renames []Record
	for _, rec := range all {
		if rec.EventType == EventRunStart && rec.Metadata["mode"] == string(ModeUndo) &&
			rec.Metadata["target"] == string(runID) {
			return nil, ErrAlreadyUndone
		}
		if rec.RunID != runID {
			continue
		}
		found = true
		if rec.EventType == EventRunStart && rec.Metadata["mode"] == string(ModeUndo) {
			return nil, ErrUndoRun
		}
		if rec.EventType == EventRename {
			renames = append(renames, rec)
		}
	}
	if !found {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	for i, j := 0, len(renames)-1; i < j; i, j = i+1, j-1 {
		renames[i], renames[j] = renames[j], renames[i]
	}
	return renames, nil
}
