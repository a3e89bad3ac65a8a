package orchestrator

import (
	"fmt"
	"os"
	"sort"

	"filekebab/internal/rename"
	"filekebab/internal/scanner"
	"filekebab/internal/title"
	"filekebab/internal/vault"
)

// PlannedRename is one rename a sweep would attempt.
type PlannedRename struct {
	Source string // Vault-relative path today
	Target string // Canonical vault-relative path
	// Collision is set when the target is already taken, on disk or by an
	// earlier planned rename; the sweep would then fall back to a suffix.
	Collision bool
}

// DirectoryStatus holds the planned renames of one directory.
type DirectoryStatus struct {
	Directory string // Vault-relative; "" is the vault root
	Renames   []PlannedRename
}

// StatusResult contains the dry-run analysis of a vault.
type StatusResult struct {
	ByDirectory map[string]*DirectoryStatus
	Pending     int            // Total planned renames
	Canonical   int            // Entries already carrying their canonical name
	Excluded    int            // Entries exempt by policy
	Skipped     map[string]int // Other kept entries per reason
}

// Directories returns the directories with planned renames in sorted order.
func (r *StatusResult) Directories() []string {
	dirs := make([]string, 0, len(r.ByDirectory))
	for d := range r.ByDirectory {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// Status analyzes the vault without modifying anything. It plans every
// entry the way Run would and groups the pending renames by directory.
func (o *Orchestrator) Status() (*StatusResult, error) {
	entries, err := scanner.ScanWithOptions(o.vault.Root(), o.scanOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to scan vault: %w", err)
	}

	settings := o.settings.Snapshot()
	policyCfg := settings.PolicyConfig()

	result := &StatusResult{
		ByDirectory: make(map[string]*DirectoryStatus),
		Skipped:     make(map[string]int),
	}
	claimed := make(map[string]bool)

	for _, entry := range entries {
		candidate := title.FromPath(entry)
		if settings.UseFirstHeading && isNote(entry, settings) {
			candidate = o.headingCandidate(entry)
		}

		plan := rename.PlanRename(entry, candidate, policyCfg)
		if plan.Skip {
			switch plan.Reason {
			case rename.ReasonExcluded:
				result.Excluded++
			case rename.ReasonAlreadyCanonical:
				result.Canonical++
			default:
				result.Skipped[string(plan.Reason)]++
			}
			continue
		}

		planned := PlannedRename{
			Source:    entry.Path,
			Target:    plan.Target,
			Collision: claimed[plan.Target] || o.taken(entry, plan.Target),
		}
		claimed[plan.Target] = true

		dir := entry.Dir()
		status, ok := result.ByDirectory[dir]
		if !ok {
			status = &DirectoryStatus{Directory: dir}
			result.ByDirectory[dir] = status
		}
		status.Renames = append(status.Renames, planned)
		result.Pending++
	}

	return result, nil
}

func (o *Orchestrator) headingCandidate(entry vault.Entry) string {
	abs, err := o.vault.Abs(entry.Path)
	if err != nil {
		return title.FromPath(entry)
	}
	md, err := title.ReadFile(abs)
	if err != nil {
		md = nil
	}
	return title.FromMetadata(entry, md)
}

// taken reports whether target exists as a different file than entry.
func (o *Orchestrator) taken(entry vault.Entry, target string) bool {
	targetAbs, err := o.vault.Abs(target)
	if err != nil {
		return false
	}
	targetInfo, err := os.Lstat(targetAbs)
	if err != nil {
		return false
	}
	srcAbs, err := o.vault.Abs(entry.Path)
	if err != nil {
		return true
	}
	srcInfo, err := os.Lstat(srcAbs)
	if err != nil {
		return true
	}
	// Case-only renames on case-insensitive filesystems resolve to the
	// entry itself.
	return !os.SameFile(srcInfo, targetInfo)
}
