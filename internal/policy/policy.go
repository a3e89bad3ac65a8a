// Package policy decides which vault entries are exempt from name
// normalization.
package policy

import (
	"strings"

	"filekebab/internal/vault"
)

// DefaultNotesExtension is the document extension recognized in notes-only
// mode.
const DefaultNotesExtension = ".md"

// Config is an immutable snapshot of the exclusion settings.
type Config struct {
	IncludeContainers bool   // Rename folders
	IncludeOtherFiles bool   // Rename files other than notes (attachments)
	NotesExtension    string // Note extension for notes-only mode (default ".md")
	ExcludeByPrefix   bool   // Skip paths starting with ExclusionPrefix
	ExclusionPrefix   string // Prefix for ExcludeByPrefix (default "_")
}

// DefaultConfig returns the exclusion defaults.
func DefaultConfig() Config {
	return Config{
		IncludeContainers: true,
		IncludeOtherFiles: false,
		NotesExtension:    DefaultNotesExtension,
		ExcludeByPrefix:   true,
		ExclusionPrefix:   "_",
	}
}

// Reason explains why an entry is excluded.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonHidden    Reason = "hidden"
	ReasonPrefix    Reason = "prefix"
	ReasonContainer Reason = "container"
	ReasonNotANote  Reason = "not-a-note"
)

// Evaluate applies the exclusion rules in order, first match wins:
//  1. hidden paths (leading ".") are always excluded
//  2. paths starting with the exclusion prefix, when enabled
//  3. containers, when folders are out of scope
//  4. files whose extension is not the notes extension, in notes-only mode
func Evaluate(entry vault.Entry, cfg Config) (bool, Reason) {
	if strings.HasPrefix(entry.Path, ".") {
		return true, ReasonHidden
	}

	if cfg.ExcludeByPrefix && cfg.ExclusionPrefix != "" && strings.HasPrefix(entry.Path, cfg.ExclusionPrefix) {
		return true, ReasonPrefix
	}

	if entry.IsContainer {
		if !cfg.IncludeContainers {
			return true, ReasonContainer
		}
		return false, ReasonNone
	}

	if !cfg.IncludeOtherFiles && !strings.EqualFold(entry.Ext(), cfg.notesExtension()) {
		return true, ReasonNotANote
	}

	return false, ReasonNone
}

// IsExcluded reports whether entry is exempt from normalization.
func IsExcluded(entry vault.Entry, cfg Config) bool {
	excluded, _ := Evaluate(entry, cfg)
	return excluded
}

func (c Config) notesExtension() string {
	if c.NotesExtension == "" {
		return DefaultNotesExtension
	}
	if !strings.HasPrefix(c.NotesExtension, ".") {
		return "." + c.NotesExtension
	}
	return c.NotesExtension
}
