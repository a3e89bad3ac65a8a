package watcher

import (
	"path/filepath"
	"strings"

	"filekebab/internal/config"
)

// FileFilter skips editor and sync temp files by name.
type FileFilter struct {
	patterns []string
}

// NewFileFilter creates a FileFilter. A nil pattern list selects the
// default editor temp patterns; an empty list ignores nothing.
func NewFileFilter(patterns []string) *FileFilter {
	if patterns == nil {
		patterns = config.DefaultIgnorePatterns
	}
	return &FileFilter{
		patterns: append([]string(nil), patterns...),
	}
}

// ShouldIgnore reports whether the base name of path matches any pattern.
// Glob matching follows filepath.Match. A pattern starting with "." and
// holding no wildcard also matches as a case-insensitive suffix, so ".tmp"
// ignores "Draft.TMP".
func (f *FileFilter) ShouldIgnore(path string) bool {
	name := filepath.Base(path)
	for _, pattern := range f.patterns {
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			return true
		}
		if strings.HasPrefix(pattern, ".") && !strings.ContainsAny(pattern, "*?[") {
			if strings.HasSuffix(strings.ToLower(name), strings.ToLower(pattern)) {
				return true
			}
		}
	}
	return false
}

// Patterns returns a copy of the ignore patterns.
func (f *FileFilter) Patterns() []string {
	return append([]string(nil), f.patterns...)
}
