package repo

import (
	"fmt"

	"github.com/davinirjr/pygit2/pkg/object"
)

// Object is the common surface of repository object wrappers. A wrapper
// either views a persisted object (its identifier is set) or stages a new
// one built in memory (identifier unset until Write).
type Object interface {
	// Type returns the wrapper's object kind.
	Type() object.Type

	// ID returns the object identifier and whether it is set. An unset
	// identifier means the object has not been written yet.
	ID() (object.Oid, bool)

	// ReadRaw re-reads the persisted payload by identifier. It fails with
	// ErrUnwritten when the object has not been written.
	ReadRaw() ([]byte, error)

	// Write persists the wrapper's current state and records the resulting
	// identifier.
	Write() (object.Oid, error)

	// Owner returns the owning repository.
	Owner() *Repository
}

// baseObject carries the owner reference and identifier state shared by all
// wrappers. The owner reference keeps the repository alive for as long as
// any of its objects is held.
type baseObject struct {
	repo  *Repository
	id    object.Oid
	idSet bool
}

func (b *baseObject) ID() (object.Oid, bool) {
	return b.id, b.idSet
}

func (b *baseObject) Owner() *Repository {
	return b.repo
}

// readRaw fetches the persisted payload, checking lifecycle and the stored
// type tag.
func (b *baseObject) readRaw(want object.Type) ([]byte, error) {
	if !b.idSet {
		return nil, fmt.Errorf("%s %w", want, ErrUnwritten)
	}
	if b.repo.closed {
		return nil, object.ErrClosed
	}
	t, payload, err := b.repo.odb.Read(b.id)
	if err != nil {
		return nil, err
	}
	if t != want {
		return nil, fmt.Errorf("object %s is a %s, not a %s: %w", b.id, t, want, ErrTypeMismatch)
	}
	return payload, nil
}

// write persists a payload under the given type tag and records the
// identifier.
func (b *baseObject) write(t object.Type, payload []byte) (object.Oid, error) {
	if b.repo.closed {
		return object.Oid{}, object.ErrClosed
	}
	id, err := b.repo.odb.Write(t, payload)
	if err != nil {
		return object.Oid{}, err
	}
	b.id = id
	b.idSet = true
	return id, nil
}

// tagObject is the generic wrapper for annotated tag objects. Tags are
// stored opaque, so the wrapper exposes only the base Object surface.
type tagObject struct {
	baseObject
}

func newTagObject(r *Repository, id object.Oid) *tagObject {
	return &tagObject{baseObject{repo: r, id: id, idSet: true}}
}

func (t *tagObject) Type() object.Type {
	return object.TypeTag
}

func (t *tagObject) ReadRaw() ([]byte, error) {
	return t.readRaw(object.TypeTag)
}

func (t *tagObject) Write() (object.Oid, error) {
	payload, err := t.ReadRaw()
	if err != nil {
		return object.Oid{}, err
	}
	return t.write(object.TypeTag, payload)
}
