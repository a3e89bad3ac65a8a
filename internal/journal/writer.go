package journal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"filekebab/internal/rename"
)

// ErrNoActiveRun is returned when a record is written outside a run.
var ErrNoActiveRun = errors.New("no active run: call StartRun first")

// Writer appends records to the active journal file. Every record is
// flushed and synced before the write returns.
type Writer struct {
	mu         sync.Mutex
	file       *os.File
	writer     *bufio.Writer
	logPath    string
	config     Config
	currentRun RunID
	now        func() time.Time
}

// NewWriter opens the journal in cfg.Directory for appending, creating the
// directory and file when needed.
func NewWriter(cfg Config) (*Writer, error) {
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	logPath := filepath.Join(cfg.Directory, activeLogName)
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	return &Writer{
		file:    file,
		writer:  bufio.NewWriter(file),
		logPath: logPath,
		config:  cfg,
		now:     time.Now,
	}, nil
}

// StartRun begins a run and writes its RUN_START record.
func (w *Writer) StartRun(mode Mode, vaultRoot string) (RunID, error) {
	return w.startRun(map[string]string{
		"mode":  string(mode),
		"vault": vaultRoot,
	})
}

// StartUndoRun begins a run reverting target.
func (w *Writer) StartUndoRun(vaultRoot string, target RunID) (RunID, error) {
	return w.startRun(map[string]string{
		"mode":   string(ModeUndo),
		"vault":  vaultRoot,
		"target": string(target),
	})
}

func (w *Writer) startRun(metadata map[string]string) (RunID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	runID := NewRunID()
	rec := Record{
		Timestamp: w.now(),
		RunID:     runID,
		EventType: EventRunStart,
		Status:    StatusSuccess,
		Metadata:  metadata,
	}
	if err := w.writeLocked(rec); err != nil {
		return "", fmt.Errorf("failed to write RUN_START record: %w", err)
	}

	w.currentRun = runID
	return runID, nil
}

// Record journals a reconciliation outcome. Unchanged outcomes are not
// recorded.
func (w *Writer) Record(trigger string, out rename.Outcome) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == "" {
		return ErrNoActiveRun
	}

	rec := Record{
		Timestamp:  w.now(),
		RunID:      w.currentRun,
		Trigger:    trigger,
		SourcePath: out.Entry.Path,
		Reason:     string(out.Reason),
		Attempts:   out.Attempts,
	}
	switch out.Status {
	case rename.StatusRenamed:
		rec.EventType = EventRename
		rec.Status = StatusSuccess
		rec.DestinationPath = out.NewPath
	case rename.StatusFailed:
		rec.EventType = EventRenameFailed
		rec.Status = StatusFailure
		rec.DestinationPath = out.Target
		if out.Err != nil {
			rec.Error = out.Err.Error()
		}
	default:
		return nil
	}

	return w.writeLocked(rec)
}

// EndRun writes the RUN_END record with the run's summary.
func (w *Writer) EndRun(summary RunSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == "" {
		return ErrNoActiveRun
	}

	rec := Record{
		Timestamp: w.now(),
		RunID:     w.currentRun,
		EventType: EventRunEnd,
		Status:    StatusSuccess,
		Metadata: map[string]string{
			"renamed":   strconv.Itoa(summary.Renamed),
			"unchanged": strconv.Itoa(summary.Unchanged),
			"failed":    strconv.Itoa(summary.Failed),
			"skipped":   strconv.Itoa(summary.Skipped),
		},
	}
	if summary.Failed > 0 {
		rec.Status = StatusFailure
	}
	if err := w.writeLocked(rec); err != nil {
		return fmt.Errorf("failed to write RUN_END record: %w", err)
	}

	w.currentRun = ""
	return nil
}

// CurrentRunID returns the active run ID, or "" outside a run.
func (w *Writer) CurrentRunID() RunID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentRun
}

// LogPath returns the path of the active journal file.
func (w *Writer) LogPath() string {
	return w.logPath
}

// Close flushes buffered data and closes the journal file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}
	return nil
}

func (w *Writer) writeLocked(rec Record) error {
	if err := w.appendLocked(rec); err != nil {
		return err
	}
	if rec.EventType == EventRotation {
		return nil
	}
	return w.rotateIfNeededLocked()
}

func (w *Writer) appendLocked(rec Record) error {
	data, err := rec.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush record: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync record to disk: %w", err)
	}
	return nil
}

// rotateIfNeededLocked moves the active log aside once it reaches the
// rotation size. A ROTATION record closes the old segment.
func (w *Writer) rotateIfNeededLocked() error {
	if w.config.RotationSize <= 0 {
		return nil
	}
	info, err := w.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat journal: %w", err)
	}
	if info.Size() < w.config.RotationSize {
		return nil
	}

	segment := segmentName(w.now())
	if err := w.appendLocked(Record{
		Timestamp: w.now(),
		RunID:     w.currentRun,
		EventType: EventRotation,
		Status:    StatusSuccess,
		Metadata: map[string]string{
			"previousFile": activeLogName,
			"newFile":      segment,
		},
	}); err != nil {
		return fmt.Errorf("failed to write rotation record: %w", err)
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close journal for rotation: %w", err)
	}
	if err := os.Rename(w.logPath, filepath.Join(w.config.Directory, segment)); err != nil {
		return fmt.Errorf("failed to rotate journal: %w", err)
	}

	file, err := os.OpenFile(w.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal after rotation: %w", err)
	}
	w.file = file
	w.writer = bufio.NewWriter(file)

	return w.pruneLocked()
}

// pruneLocked applies the retention policy and journals what it removed.
func (w *Writer) pruneLocked() error {
	if !w.config.Retention.enabled() {
		return nil
	}
	result, err := Prune(w.config.Directory, w.config.Retention, w.now())
	if err != nil {
		return err
	}
	if len(result.Pruned) == 0 {
		return nil
	}
	return w.appendLocked(Record{
		Timestamp: w.now(),
		RunID:     w.currentRun,
		EventType: EventPrune,
		Status:    StatusSuccess,
		Metadata: map[string]string{
			"segments":   strings.Join(result.Pruned, ","),
			"bytesFreed": strconv.FormatInt(result.BytesFreed, 10),
		},
	})
}
