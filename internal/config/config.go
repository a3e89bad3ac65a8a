// Package config handles settings loading, validation and persistence for
// filekebab.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"filekebab/internal/policy"
	"filekebab/internal/rename"
)

// ConfigErrorType represents the type of configuration error.
type ConfigErrorType string

const (
	FileNotFound    ConfigErrorType = "FILE_NOT_FOUND"
	InvalidJSON     ConfigErrorType = "INVALID_JSON"
	ValidationError ConfigErrorType = "VALIDATION_ERROR"
	UnknownKey      ConfigErrorType = "UNKNOWN_KEY"
	WriteFailed     ConfigErrorType = "WRITE_FAILED"
)

// ConfigError represents an error that occurred while handling settings.
type ConfigError struct {
	Type    ConfigErrorType
	Path    string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	switch e.Type {
	case FileNotFound:
		return fmt.Sprintf("settings file not found: %s", e.Path)
	case InvalidJSON:
		return fmt.Sprintf("invalid JSON in settings file %s: %s", e.Path, e.Message)
	case ValidationError:
		return fmt.Sprintf("settings validation error: %s", e.Message)
	case UnknownKey:
		return fmt.Sprintf("unknown setting: %s", e.Message)
	case WriteFailed:
		return fmt.Sprintf("failed to write settings file %s: %s", e.Path, e.Message)
	default:
		return fmt.Sprintf("settings error: %s", e.Message)
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

const (
	// DirName is the per-vault directory holding filekebab state.
	DirName = ".filekebab"
	// FileName is the settings file inside DirName.
	FileName = "settings.json"

	DefaultDebounceMs = 750
)

// DefaultIgnorePatterns are editor and sync temp files the watcher skips.
var DefaultIgnorePatterns = []string{
	"*.tmp",
	"*.swp",
	"*.swx",
	"*~",
	".#*",
	"#*#",
	"*.crdownload",
	"*.part",
}

// WatchSettings configures the vault watcher.
type WatchSettings struct {
	DebounceMs     int      `json:"debounceMs"`
	IgnorePatterns []string `json:"ignorePatterns"`
}

// Debounce returns the debounce window as a duration.
func (w WatchSettings) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// JournalSettings configures the rename journal.
type JournalSettings struct {
	Enabled       bool   `json:"enabled"`
	Directory     string `json:"directory,omitempty"` // Relative to the vault when not absolute
	MaxSegments   int    `json:"maxSegments"`         // Rotated segments kept; 0 keeps all
	RetentionDays int    `json:"retentionDays"`       // Age limit for rotated segments; 0 disables
}

// MaxAge returns the segment age limit as a duration.
func (j JournalSettings) MaxAge() time.Duration {
	return time.Duration(j.RetentionDays) * 24 * time.Hour
}

// Settings holds every filekebab option. A Settings value is treated as an
// immutable snapshot once published through a Store.
type Settings struct {
	ExcludeByPrefix   bool            `json:"excludeByPrefix"`
	ExclusionPrefix   string          `json:"exclusionPrefix"`
	IncludeFolders    bool            `json:"includeFolders"`
	IncludeOtherFiles bool            `json:"includeOtherFiles"`
	NotesExtension    string          `json:"notesExtension"`
	RenameOnCreate    bool            `json:"renameOnCreate"`
	UseFirstHeading   bool            `json:"useFirstHeading"`
	MaxRetries        int             `json:"maxRetries"`
	Watch             WatchSettings   `json:"watch"`
	Journal           JournalSettings `json:"journal"`
}

// Defaults returns the default settings.
func Defaults() Settings {
	return Settings{
		ExcludeByPrefix:   true,
		ExclusionPrefix:   "_",
		IncludeFolders:    true,
		IncludeOtherFiles: false,
		NotesExtension:    policy.DefaultNotesExtension,
		RenameOnCreate:    false,
		UseFirstHeading:   false,
		MaxRetries:        rename.DefaultMaxRetries,
		Watch: WatchSettings{
			DebounceMs:     DefaultDebounceMs,
			IgnorePatterns: append([]string(nil), DefaultIgnorePatterns...),
		},
		Journal: JournalSettings{
			Enabled: true,
		},
	}
}

// DefaultPath returns the settings file location for a vault.
func DefaultPath(vaultRoot string) string {
	return filepath.Join(vaultRoot, DirName, FileName)
}

// PolicyConfig returns the exclusion snapshot for these settings.
func (s Settings) PolicyConfig() policy.Config {
	return policy.Config{
		IncludeContainers: s.IncludeFolders,
		IncludeOtherFiles: s.IncludeOtherFiles,
		NotesExtension:    s.NotesExtension,
		ExcludeByPrefix:   s.ExcludeByPrefix,
		ExclusionPrefix:   s.ExclusionPrefix,
	}
}

// RenameConfig returns the reconciliation snapshot for these settings.
func (s Settings) RenameConfig() rename.Config {
	return rename.Config{
		Policy:     s.PolicyConfig(),
		MaxRetries: s.MaxRetries,
	}
}

// JournalDir resolves the journal directory against the vault root.
func (s Settings) JournalDir(vaultRoot string) string {
	dir := s.Journal.Directory
	if dir == "" {
		return filepath.Join(vaultRoot, DirName, "journal")
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(vaultRoot, dir)
}

// Clone returns a deep copy of the settings.
func (s Settings) Clone() Settings {
	c := s
	c.Watch.IgnorePatterns = append([]string(nil), s.Watch.IgnorePatterns...)
	return c
}

// Load reads a settings file and merges it over the defaults. Options absent
// from the file keep their default values.
func Load(filePath string) (*Settings, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Type: FileNotFound, Path: filePath, Err: err}
		}
		return nil, &ConfigError{
			Type:    FileNotFound,
			Path:    filePath,
			Message: err.Error(),
			Err:     err,
		}
	}
	return parse(filePath, data)
}

// LoadOrCreate loads settings if the file exists, or returns the defaults if
// it does not.
func LoadOrCreate(filePath string) (*Settings, error) {
	s, err := Load(filePath)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) && cfgErr.Type == FileNotFound && errors.Is(err, os.ErrNotExist) {
			defaults := Defaults()
			return &defaults, nil
		}
		return nil, err
	}
	return s, nil
}

func parse(filePath string, data []byte) (*Settings, error) {
	settings := Defaults()
	if strings.TrimSpace(string(data)) == "" {
		return &settings, nil
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, &ConfigError{
			Type:    InvalidJSON,
			Path:    filePath,
			Message: err.Error(),
			Err:     err,
		}
	}
	if settings.Watch.IgnorePatterns == nil {
		settings.Watch.IgnorePatterns = []string{}
	}
	return &settings, nil
}

// Save serializes settings as indented JSON, creating the parent directory
// when needed.
func Save(settings *Settings, filePath string) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return &ConfigError{Type: InvalidJSON, Path: filePath, Message: err.Error(), Err: err}
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return &ConfigError{Type: WriteFailed, Path: filePath, Message: err.Error(), Err: err}
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return &ConfigError{Type: WriteFailed, Path: filePath, Message: err.Error(), Err: err}
	}
	return nil
}

// Keys lists the option names accepted by Set, in display order.
func Keys() []string {
	return []string{
		"excludeByPrefix",
		"exclusionPrefix",
		"includeFolders",
		"includeOtherFiles",
		"notesExtension",
		"renameOnCreate",
		"useFirstHeading",
		"maxRetries",
		"watch.debounceMs",
		"watch.ignorePatterns",
		"journal.enabled",
		"journal.directory",
		"journal.maxSegments",
		"journal.retentionDays",
	}
}

// Set updates one option from its string form. List options take a
// comma-separated value; an empty value clears the list.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "excludeByPrefix":
		return setBool(&s.ExcludeByPrefix, key, value)
	case "exclusionPrefix":
		s.ExclusionPrefix = value
	case "includeFolders":
		return setBool(&s.IncludeFolders, key, value)
	case "includeOtherFiles":
		return setBool(&s.IncludeOtherFiles, key, value)
	case "notesExtension":
		s.NotesExtension = value
	case "renameOnCreate":
		return setBool(&s.RenameOnCreate, key, value)
	case "useFirstHeading":
		return setBool(&s.UseFirstHeading, key, value)
	case "maxRetries":
		return setInt(&s.MaxRetries, key, value)
	case "watch.debounceMs":
		return setInt(&s.Watch.DebounceMs, key, value)
	case "watch.ignorePatterns":
		s.Watch.IgnorePatterns = splitList(value)
	case "journal.enabled":
		return setBool(&s.Journal.Enabled, key, value)
	case "journal.directory":
		s.Journal.Directory = value
	case "journal.maxSegments":
		return setInt(&s.Journal.MaxSegments, key, value)
	case "journal.retentionDays":
		return setInt(&s.Journal.RetentionDays, key, value)
	default:
		return &ConfigError{Type: UnknownKey, Message: key}
	}
	return nil
}

// Get returns the string form of one option.
func (s Settings) Get(key string) (string, error) {
	switch key {
	case "excludeByPrefix":
		return strconv.FormatBool(s.ExcludeByPrefix), nil
	case "exclusionPrefix":
		return s.ExclusionPrefix, nil
	case "includeFolders":
		return strconv.FormatBool(s.IncludeFolders), nil
	case "includeOtherFiles":
		return strconv.FormatBool(s.IncludeOtherFiles), nil
	case "notesExtension":
		return s.NotesExtension, nil
	case "renameOnCreate":
		return strconv.FormatBool(s.RenameOnCreate), nil
	case "useFirstHeading":
		return strconv.FormatBool(s.UseFirstHeading), nil
	case "maxRetries":
		return strconv.Itoa(s.MaxRetries), nil
	case "watch.debounceMs":
		return strconv.Itoa(s.Watch.DebounceMs), nil
	case "watch.ignorePatterns":
		return strings.Join(s.Watch.IgnorePatterns, ","), nil
	case "journal.enabled":
		return strconv.FormatBool(s.Journal.Enabled), nil
	case "journal.directory":
		return s.Journal.Directory, nil
	case "journal.maxSegments":
		return strconv.Itoa(s.Journal.MaxSegments), nil
	case "journal.retentionDays":
		return strconv.Itoa(s.Journal.RetentionDays), nil
	default:
		return "", &ConfigError{Type: UnknownKey, Message: key}
	}
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return &ConfigError{
			Type:    ValidationError,
			Message: fmt.Sprintf("%s must be true or false, got %q", key, value),
			Err:     err,
		}
	}
	*dst = b
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return &ConfigError{
			Type:    ValidationError,
			Message: fmt.Sprintf("%s must be an integer, got %q", key, value),
			Err:     err,
		}
	}
	*dst = n
	return nil
}

func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
