package orchestrator

import (
	"fmt"
	"time"
)

// RunSummary contains statistics from a sweep.
type RunSummary struct {
	Scanned   int            // Entries enumerated
	Renamed   int            // Entries renamed
	Unchanged int            // Entries already canonical or otherwise kept
	Excluded  int            // Entries exempt by policy
	Failed    int            // Entries whose rename failed
	Duration  time.Duration  // Total processing time
	ByReason  map[string]int // Unchanged/excluded breakdown (verbose mode only)
}

// GenerateSummary creates a summary from a sweep result. When verbose is
// true, ByReason counts kept entries per reason.
func GenerateSummary(result *RunResult, duration time.Duration, verbose bool) *RunSummary {
	if result == nil {
		return &RunSummary{Duration: duration}
	}

	summary := &RunSummary{
		Scanned:   result.Scanned,
		Renamed:   len(result.Renamed),
		Unchanged: len(result.Unchanged),
		Excluded:  len(result.Excluded),
		Failed:    len(result.Failed),
		Duration:  duration,
	}

	if verbose {
		summary.ByReason = make(map[string]int)
		for _, out := range result.Unchanged {
			summary.ByReason[string(out.Reason)]++
		}
		for _, out := range result.Excluded {
			summary.ByReason["excluded:"+string(out.Exclusion)]++
		}
	}

	return summary
}

// HasErrors reports whether any rename failed.
func (s *RunSummary) HasErrors() bool {
	return s.Failed > 0
}

// String returns the one-line summary printed after a sweep.
func (s *RunSummary) String() string {
	return fmt.Sprintf("Scanned %d entries: %d renamed, %d unchanged, %d excluded, %d failed (%s)",
		s.Scanned, s.Renamed, s.Unchanged, s.Excluded, s.Failed, s.Duration.Round(time.Millisecond))
}
