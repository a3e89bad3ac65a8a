package vault

import (
	"errors"
	"fmt"
)

// ErrEntryMissing is returned when the entry to rename no longer exists.
var ErrEntryMissing = errors.New("entry does not exist")

// ErrOutsideVault is returned when a path escapes the vault root.
var ErrOutsideVault = errors.New("path is outside the vault")

// CollisionError reports that the rename target is already occupied.
type CollisionError struct {
	Path   string
	Target string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("cannot rename %s: %s already exists", e.Path, e.Target)
}

// IsCollision reports whether err is, or wraps, a CollisionError.
func IsCollision(err error) bool {
	var ce *CollisionError
	return errors.As(err, &ce)
}
