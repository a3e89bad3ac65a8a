// Package output handles CLI output formatting including verbose mode and progress indicators.
package output

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"filekebab/internal/journal"
	"filekebab/internal/orchestrator"
	"filekebab/internal/rename"

	"golang.org/x/term"
)

// Config holds output configuration.
type Config struct {
	Verbose   bool      // Enable verbose output
	Writer    io.Writer // Output destination (default: os.Stdout)
	ErrWriter io.Writer // Error output destination (default: os.Stderr)
	IsTTY     bool      // Whether output is a terminal
}

// Output handles formatted output with verbose and progress support.
type Output struct {
	config          Config
	progressActive  bool
	progressTotal   int
	progressCurrent int
	progressMu      sync.Mutex
}

// New creates a new Output instance with the given configuration.
func New(config Config) *Output {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	if config.ErrWriter == nil {
		config.ErrWriter = os.Stderr
	}
	return &Output{
		config: config,
	}
}

// DefaultConfig returns a Config writing to the standard streams, with TTY
// detection on stdout.
func DefaultConfig() Config {
	return Config{
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		IsTTY:     term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// Verbose prints a message only when verbose mode is enabled.
func (o *Output) Verbose(format string, args ...interface{}) {
	if !o.config.Verbose {
		return
	}
	o.println(o.config.Writer, format, args...)
}

// Info prints an informational message (always shown).
func (o *Output) Info(format string, args ...interface{}) {
	o.println(o.config.Writer, format, args...)
}

// Error prints an error message to stderr.
func (o *Output) Error(format string, args ...interface{}) {
	o.println(o.config.ErrWriter, format, args...)
}

func (o *Output) println(w io.Writer, format string, args ...interface{}) {
	o.clearProgressLine()
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(w, msg)
}

// clearProgressLine clears the current progress line if active.
func (o *Output) clearProgressLine() {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	if o.progressActive && o.config.IsTTY {
		fmt.Fprint(o.config.Writer, "\r"+strings.Repeat(" ", 60)+"\r")
	}
}

// progressShown reports whether the progress line is drawn at all: only on a
// terminal, and never interleaved with verbose lines.
func (o *Output) progressShown() bool {
	return o.config.IsTTY && !o.config.Verbose
}

// StartProgress begins a progress indicator session.
func (o *Output) StartProgress(total int) {
	if !o.progressShown() {
		return
	}
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	o.progressActive = true
	o.progressTotal = total
	o.progressCurrent = 0
}

// UpdateProgress updates the progress indicator in place.
func (o *Output) UpdateProgress(current int, message string) {
	if !o.progressShown() {
		return
	}
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	if !o.progressActive {
		return
	}
	o.progressCurrent = current
	if message == "" {
		message = "Processing entry"
	}
	fmt.Fprintf(o.config.Writer, "\r%s %d/%d...", message, current, o.progressTotal)
}

// EndProgress clears the progress indicator.
func (o *Output) EndProgress() {
	if !o.progressShown() {
		return
	}
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	if !o.progressActive {
		return
	}
	o.progressActive = false
	fmt.Fprint(o.config.Writer, "\r"+strings.Repeat(" ", 60)+"\r")
}

// IsVerbose returns whether verbose mode is enabled.
func (o *Output) IsVerbose() bool {
	return o.config.Verbose
}

// IsTTY returns whether the output is a terminal.
func (o *Output) IsTTY() bool {
	return o.config.IsTTY
}

// Outcome prints one reconciliation outcome. Renames and failures are
// always shown; unchanged entries only in verbose mode.
func (o *Output) Outcome(out rename.Outcome) {
	switch out.Status {
	case rename.StatusRenamed:
		o.Info("  %s -> %s", out.Entry.Path, out.NewPath)
	case rename.StatusFailed:
		o.Error("  %s: %v", out.Entry.Path, out.Err)
	default:
		reason := string(out.Reason)
		if out.Exclusion != "" {
			reason += " (" + string(out.Exclusion) + ")"
		}
		o.Verbose("  %s: %s", out.Entry.Path, reason)
	}
}

// RunResult prints the outcomes of a sweep followed by its summary line.
func (o *Output) RunResult(result *orchestrator.RunResult, summary *orchestrator.RunSummary) {
	for _, out := range result.Renamed {
		o.Outcome(out)
	}
	for _, out := range result.Failed {
		o.Outcome(out)
	}
	if o.config.Verbose {
		for _, out := range result.Unchanged {
			o.Outcome(out)
		}
		for _, out := range result.Excluded {
			o.Outcome(out)
		}
	}
	o.Info("%s", summary.String())
	if o.config.Verbose && len(summary.ByReason) > 0 {
		for _, reason := range sortedKeys(summary.ByReason) {
			o.Info("  %-28s %d", reason, summary.ByReason[reason])
		}
	}
}

// Status prints a dry-run analysis grouped by directory.
func (o *Output) Status(result *orchestrator.StatusResult) {
	if result.Pending == 0 {
		o.Info("Nothing to rename.")
	}
	for _, dir := range result.Directories() {
		status := result.ByDirectory[dir]
		label := dir
		if label == "" {
			label = "(vault root)"
		}
		o.Info("%s (%d)", label, len(status.Renames))
		for _, r := range status.Renames {
			line := fmt.Sprintf("  %s -> %s", baseName(r.Source), baseName(r.Target))
			if r.Collision {
				line += "  [taken, will be suffixed]"
			}
			o.Info("%s", line)
		}
	}
	o.Info("%d pending, %d canonical, %d excluded", result.Pending, result.Canonical, result.Excluded)
	for _, reason := range sortedKeys(result.Skipped) {
		o.Verbose("  %s: %d", reason, result.Skipped[reason])
	}
}

// Records prints journal records, one per line.
func (o *Output) Records(records []journal.Record) {
	if len(records) == 0 {
		o.Info("No journal entries.")
		return
	}
	for _, rec := range records {
		o.Info("%s", FormatRecord(rec))
	}
}

// FormatRecord renders a journal record as a single line.
func FormatRecord(rec journal.Record) string {
	ts := rec.Timestamp.Local().Format(time.DateTime)
	switch rec.EventType {
	case journal.EventRename:
		return fmt.Sprintf("%s  %-8s %s -> %s", ts, rec.Trigger, rec.SourcePath, rec.DestinationPath)
	case journal.EventRenameFailed:
		return fmt.Sprintf("%s  %-8s %s FAILED after %d attempts: %s", ts, rec.Trigger, rec.SourcePath, rec.Attempts, rec.Error)
	default:
		return fmt.Sprintf("%s  %s %s", ts, rec.EventType, rec.RunID)
	}
}

// UndoPreview prints the renames an undo would revert.
func (o *Output) UndoPreview(preview *journal.UndoPreview) {
	if len(preview.Renames) == 0 {
		o.Info("Run %s renamed nothing.", preview.TargetRunID)
		return
	}
	o.Info("Undoing run %s would revert %d renames:", preview.TargetRunID, len(preview.Renames))
	for _, rec := range preview.Renames {
		o.Info("  %s -> %s", rec.DestinationPath, rec.SourcePath)
	}
}

// UndoResult prints the outcome of an undo.
func (o *Output) UndoResult(result *journal.UndoResult) {
	for _, f := range result.Failed {
		o.Error("  %s -> %s: %v", f.DestPath, f.SourcePath, f.Err)
	}
	o.Info("Reverted %d renames of run %s (%d failed)", result.Restored, result.TargetRunID, len(result.Failed))
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func baseName(rel string) string {
	return path.Base(rel)
}
