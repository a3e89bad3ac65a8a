package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrCrossDirectory is returned when a rename would move an entry into a
// different directory.
var ErrCrossDirectory = errors.New("rename would move entry to another directory")

// errTargetExists is the internal signal from the platform rename helpers.
var errTargetExists = errors.New("target exists")

// Renamer is the host rename primitive. Rename either applies newPath or
// leaves the entry untouched; it never overwrites an existing entry.
type Renamer interface {
	Rename(ctx context.Context, entry Entry, newPath string) error
}

// FS is a vault rooted at a directory of the local filesystem.
type FS struct {
	root string
}

// NewFS opens the vault rooted at dir.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault %s: not a directory", dir)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault root.
func (f *FS) Root() string {
	return f.root
}

// Abs resolves a vault-relative path to an absolute filesystem path.
func (f *FS) Abs(relPath string) (string, error) {
	p := CleanPath(relPath)
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%s: %w", relPath, ErrOutsideVault)
	}
	return filepath.Join(f.root, filepath.FromSlash(p)), nil
}

// Rel converts an absolute filesystem path to a vault-relative path.
func (f *FS) Rel(absPath string) (string, error) {
	rel, err := filepath.Rel(f.root, absPath)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s: %w", absPath, ErrOutsideVault)
	}
	return CleanPath(rel), nil
}

// Entry looks up the entry at a vault-relative path.
func (f *FS) Entry(relPath string) (Entry, error) {
	abs, err := f.Abs(relPath)
	if err != nil {
		return Entry{}, err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, fmt.Errorf("%s: %w", relPath, ErrEntryMissing)
		}
		return Entry{}, err
	}
	return NewEntry(relPath, info.IsDir()), nil
}

// EntryAt looks up the entry at an absolute filesystem path.
func (f *FS) EntryAt(absPath string) (Entry, error) {
	rel, err := f.Rel(absPath)
	if err != nil {
		return Entry{}, err
	}
	return f.Entry(rel)
}

// Rename renames entry to newPath within the same directory. An occupied
// target yields a *CollisionError; a vanished source yields ErrEntryMissing.
func (f *FS) Rename(ctx context.Context, entry Entry, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	newPath = CleanPath(newPath)
	if newPath == entry.Path {
		return nil
	}
	if NewEntry(newPath, entry.IsContainer).Dir() != entry.Dir() {
		return fmt.Errorf("%s -> %s: %w", entry.Path, newPath, ErrCrossDirectory)
	}

	src, err := f.Abs(entry.Path)
	if err != nil {
		return err
	}
	dst, err := f.Abs(newPath)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(src); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", entry.Path, ErrEntryMissing)
		}
		return err
	}

	err = renameNoReplace(src, dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errTargetExists):
		return &CollisionError{Path: entry.Path, Target: newPath}
	case os.IsNotExist(err):
		return fmt.Errorf("%s: %w", entry.Path, ErrEntryMissing)
	default:
		return err
	}
}

// renameChecked is the portable no-clobber rename: it refuses an existing
// target unless the target is the source itself (a case-only rename on a
// case-insensitive filesystem).
func renameChecked(src, dst string) error {
	dstInfo, err := os.Lstat(dst)
	if err == nil {
		srcInfo, serr := os.Lstat(src)
		if serr != nil || !os.SameFile(srcInfo, dstInfo) {
			return errTargetExists
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.Rename(src, dst)
}

// sameFile reports whether both paths resolve to the same file.
func sameFile(a, b string) bool {
	ai, err := os.Lstat(a)
	if err != nil {
		return false
	}
	bi, err := os.Lstat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
