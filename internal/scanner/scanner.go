// Package scanner enumerates the entries of a vault for a sweep.
package scanner

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"

	"filekebab/internal/vault"
)

// ScanErrorType represents the type of scanning error.
type ScanErrorType string

const (
	// DirectoryNotFound indicates the directory does not exist.
	DirectoryNotFound ScanErrorType = "DIRECTORY_NOT_FOUND"
	// PermissionDenied indicates insufficient permissions to read the directory.
	PermissionDenied ScanErrorType = "PERMISSION_DENIED"
	// SymlinkError indicates a symlink was encountered with "error" policy.
	SymlinkError ScanErrorType = "SYMLINK_ERROR"
)

// Symlink policy constants
const (
	SymlinkPolicyFollow = "follow"
	SymlinkPolicySkip   = "skip"
	SymlinkPolicyError  = "error"
)

// ScanError represents an error that occurred during scanning.
type ScanError struct {
	Type ScanErrorType
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return string(e.Type) + ": " + e.Path
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// ScanOptions configures scanning behavior.
type ScanOptions struct {
	MaxDepth      int    // Directory levels to descend (0 = vault root only, -1 = unlimited)
	SymlinkPolicy string // "follow", "skip", or "error"
}

// DefaultScanOptions returns the default scan options: the whole vault,
// symlinks skipped.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		MaxDepth:      -1,
		SymlinkPolicy: SymlinkPolicySkip,
	}
}

// Scan lists every non-hidden entry below the vault root. Entries come
// deepest first and every folder follows its contents, so renaming in
// order never invalidates a path that is still to be visited.
func Scan(root string) ([]vault.Entry, error) {
	return ScanWithOptions(root, DefaultScanOptions())
}

// ScanWithOptions scans the vault with configurable options.
func ScanWithOptions(root string, opts ScanOptions) ([]vault.Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ScanError{Type: DirectoryNotFound, Path: root, Err: err}
		}
		if os.IsPermission(err) {
			return nil, &ScanError{Type: PermissionDenied, Path: root, Err: err}
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, &ScanError{
			Type: DirectoryNotFound,
			Path: root,
			Err:  errors.New("path is not a directory"),
		}
	}

	return scanDirectory(root, "", opts, 0)
}

// scanDirectory walks dir (vault-relative rel) in post order.
func scanDirectory(dir, rel string, opts ScanOptions, depth int) ([]vault.Entry, error) {
	children, err := os.ReadDir(dir)
	if err != nil {
		if os.IsPermission(err) {
			return nil, &ScanError{Type: PermissionDenied, Path: dir, Err: err}
		}
		return nil, err
	}

	var entries []vault.Entry
	for _, child := range children {
		name := child.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		fullPath := filepath.Join(dir, name)
		childRel := path.Join(rel, name)

		info, err := os.Lstat(fullPath)
		if err != nil {
			continue // vanished since ReadDir
		}

		if info.Mode()&os.ModeSymlink != 0 {
			switch opts.SymlinkPolicy {
			case SymlinkPolicyError:
				return nil, &ScanError{
					Type: SymlinkError,
					Path: fullPath,
					Err:  errors.New("symlink encountered with error policy"),
				}
			case SymlinkPolicyFollow:
				// The link itself is renamed; linked folders are not descended
				// into, which also rules out cycles.
				target, err := os.Stat(fullPath)
				if err != nil {
					continue // broken link
				}
				entries = append(entries, vault.NewEntry(childRel, target.IsDir()))
			}
			continue
		}

		if info.IsDir() {
			if opts.MaxDepth == -1 || depth < opts.MaxDepth {
				sub, err := scanDirectory(fullPath, childRel, opts, depth+1)
				if err != nil {
					return nil, err
				}
				entries = append(entries, sub...)
			}
			entries = append(entries, vault.NewEntry(childRel, true))
			continue
		}

		entries = append(entries, vault.NewEntry(childRel, false))
	}

	return entries, nil
}
