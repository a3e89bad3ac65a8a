// Package vault models entries of a document vault and the host operations
// filekebab needs from it: resolving entries and renaming them.
package vault

import (
	"path"
	"strings"

	"filekebab/internal/normalizer"
)

// Entry is a named node in the vault: a document file or a container
// (folder). Path is vault-relative and slash separated; it identifies the
// entry.
type Entry struct {
	Path        string
	Name        string
	IsContainer bool
}

// NewEntry builds an Entry from a vault-relative path.
func NewEntry(relPath string, isContainer bool) Entry {
	p := CleanPath(relPath)
	return Entry{
		Path:        p,
		Name:        path.Base(p),
		IsContainer: isContainer,
	}
}

// CleanPath normalizes a vault-relative path to slash form without a leading
// "./" or "/".
func CleanPath(relPath string) string {
	p := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// Dir returns the vault-relative directory containing the entry, or "" for
// entries at the vault root.
func (e Entry) Dir() string {
	d := path.Dir(e.Path)
	if d == "." {
		return ""
	}
	return d
}

// BaseName returns the name without its extension.
func (e Entry) BaseName() string {
	base, _ := normalizer.SplitExt(e.Name, e.IsContainer)
	return base
}

// Ext returns the extension including the leading dot, or "".
func (e Entry) Ext() string {
	_, ext := normalizer.SplitExt(e.Name, e.IsContainer)
	return ext
}

// Sibling returns the vault-relative path of name placed next to the entry.
func (e Entry) Sibling(name string) string {
	return path.Join(e.Dir(), name)
}

// Depth returns the number of path segments above the entry.
func (e Entry) Depth() int {
	if e.Path == "" {
		return 0
	}
	return strings.Count(e.Path, "/")
}

// Renamed returns a copy of the entry moved to newPath.
func (e Entry) Renamed(newPath string) Entry {
	return NewEntry(newPath, e.IsContainer)
}
