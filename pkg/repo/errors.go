package repo

import (
	"errors"
	"fmt"

	"github.com/davinirjr/pygit2/pkg/object"
)

// ErrNotRepository reports a directory that is not a repository: it lacks
// the objects/, refs/, or HEAD markers.
var ErrNotRepository = errors.New("not a repository")

// ErrNilRepository reports wrapper construction without an owning
// repository.
var ErrNilRepository = errors.New("nil repository")

// ErrUnwritten reports reading through a wrapper whose object has not been
// persisted yet. The condition is recoverable: Write the wrapper first.
var ErrUnwritten = errors.New("object not yet written")

// ErrTypeMismatch reports a typed lookup that found an object of a
// different kind.
var ErrTypeMismatch = errors.New("object type mismatch")

// ErrEntryNotFound reports a tree entry name that is not present.
var ErrEntryNotFound = errors.New("tree entry not found")

// ErrIndexOutOfRange reports a tree entry index outside [-len, len).
var ErrIndexOutOfRange = errors.New("tree entry index out of range")

// UnresolvedEntryError reports a tree entry whose identifier names no
// object in the owning repository.
type UnresolvedEntryError struct {
	Name string
	ID   object.Oid
}

func (e *UnresolvedEntryError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("tree entry %q: unresolved object %s", e.Name, e.ID)
}

func (e *UnresolvedEntryError) Is(target error) bool {
	return target == object.ErrNotFound
}
