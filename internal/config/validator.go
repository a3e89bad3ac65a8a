package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxRetriesLimit caps maxRetries; larger bounds only slow down failures.
const MaxRetriesLimit = 10000

// ValidationSeverity represents the severity of a validation issue.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ConfigValidationError represents a single validation issue.
type ConfigValidationError struct {
	Field    string             // Option with the issue (e.g. "watch.ignorePatterns[2]")
	Message  string             // Human-readable description
	Severity ValidationSeverity // "error" or "warning"
}

func (e ConfigValidationError) String() string {
	return fmt.Sprintf("%s: %s: %s", e.Severity, e.Field, e.Message)
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	Errors   []ConfigValidationError
	Warnings []ConfigValidationError
	Valid    bool // True if no errors (warnings OK)
}

// Err returns a ConfigError summarizing the errors, or nil when valid.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return &ConfigError{Type: ValidationError, Message: strings.Join(msgs, "; ")}
}

// ValidateSettings checks settings for errors and returns all findings.
func ValidateSettings(s *Settings) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ConfigValidationError{},
		Warnings: []ConfigValidationError{},
		Valid:    true,
	}

	var findings []ConfigValidationError
	findings = append(findings, ValidateNaming(s)...)
	findings = append(findings, ValidateRetries(s)...)
	findings = append(findings, ValidateWatch(s)...)
	findings = append(findings, ValidateJournal(s)...)

	for _, f := range findings {
		if f.Severity == SeverityError {
			result.Errors = append(result.Errors, f)
		} else {
			result.Warnings = append(result.Warnings, f)
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateNaming checks the exclusion and extension options.
func ValidateNaming(s *Settings) []ConfigValidationError {
	var errs []ConfigValidationError

	if s.ExcludeByPrefix && s.ExclusionPrefix == "" {
		errs = append(errs, ConfigValidationError{
			Field:    "exclusionPrefix",
			Message:  "excludeByPrefix is enabled but the prefix is empty; nothing will be excluded",
			Severity: SeverityWarning,
		})
	}
	if strings.HasPrefix(s.ExclusionPrefix, ".") {
		errs = append(errs, ConfigValidationError{
			Field:    "exclusionPrefix",
			Message:  "paths starting with \".\" are always excluded",
			Severity: SeverityWarning,
		})
	}
	if strings.ContainsAny(s.ExclusionPrefix, `\`) {
		errs = append(errs, ConfigValidationError{
			Field:    "exclusionPrefix",
			Message:  "use \"/\" as the path separator",
			Severity: SeverityError,
		})
	}

	switch {
	case s.NotesExtension == "":
		if !s.IncludeOtherFiles {
			errs = append(errs, ConfigValidationError{
				Field:    "notesExtension",
				Message:  "empty, \".md\" is used",
				Severity: SeverityWarning,
			})
		}
	case strings.ContainsAny(s.NotesExtension, `/\`):
		errs = append(errs, ConfigValidationError{
			Field:    "notesExtension",
			Message:  "must not contain a path separator: " + s.NotesExtension,
			Severity: SeverityError,
		})
	case strings.Count(s.NotesExtension, ".") > 1 || (strings.Contains(s.NotesExtension, ".") && !strings.HasPrefix(s.NotesExtension, ".")):
		errs = append(errs, ConfigValidationError{
			Field:    "notesExtension",
			Message:  "an extension holds a single leading dot: " + s.NotesExtension,
			Severity: SeverityError,
		})
	}

	return errs
}

// ValidateRetries checks the retry bound.
func ValidateRetries(s *Settings) []ConfigValidationError {
	var errs []ConfigValidationError
	switch {
	case s.MaxRetries < 0:
		errs = append(errs, ConfigValidationError{
			Field:    "maxRetries",
			Message:  "must be a non-negative integer",
			Severity: SeverityError,
		})
	case s.MaxRetries > MaxRetriesLimit:
		errs = append(errs, ConfigValidationError{
			Field:    "maxRetries",
			Message:  fmt.Sprintf("must not exceed %d", MaxRetriesLimit),
			Severity: SeverityError,
		})
	case s.MaxRetries == 0:
		errs = append(errs, ConfigValidationError{
			Field:    "maxRetries",
			Message:  "collisions will not be resolved with numeric suffixes",
			Severity: SeverityWarning,
		})
	}
	return errs
}

// ValidateWatch checks the watcher options.
func ValidateWatch(s *Settings) []ConfigValidationError {
	var errs []ConfigValidationError

	if s.Watch.DebounceMs < 0 {
		errs = append(errs, ConfigValidationError{
			Field:    "watch.debounceMs",
			Message:  "must be a non-negative integer",
			Severity: SeverityError,
		})
	} else if s.UseFirstHeading && s.Watch.DebounceMs < 100 {
		errs = append(errs, ConfigValidationError{
			Field:    "watch.debounceMs",
			Message:  "below 100ms, notes may be renamed while still being typed",
			Severity: SeverityWarning,
		})
	}

	for i, pattern := range s.Watch.IgnorePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, ConfigValidationError{
				Field:    fmt.Sprintf("watch.ignorePatterns[%d]", i),
				Message:  "invalid glob pattern: " + pattern,
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// ValidateJournal checks the journal retention options.
func ValidateJournal(s *Settings) []ConfigValidationError {
	var errs []ConfigValidationError

	if s.Journal.MaxSegments < 0 {
		errs = append(errs, ConfigValidationError{
			Field:    "journal.maxSegments",
			Message:  "must be a non-negative integer",
			Severity: SeverityError,
		})
	}
	if s.Journal.RetentionDays < 0 {
		errs = append(errs, ConfigValidationError{
			Field:    "journal.retentionDays",
			Message:  "must be a non-negative integer",
			Severity: SeverityError,
		})
	}
	if !s.Journal.Enabled && (s.Journal.MaxSegments > 0 || s.Journal.RetentionDays > 0) {
		errs = append(errs, ConfigValidationError{
			Field:    "journal.enabled",
			Message:  "retention is set but the journal is disabled",
			Severity: SeverityWarning,
		})
	}

	return errs
}
