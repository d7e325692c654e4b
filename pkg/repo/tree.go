package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/davinirjr/pygit2/pkg/object"
)

// Tree wraps a tree object and exposes its entries by name and by position.
// Indexed access accepts negative positions counted from the end.
type Tree struct {
	baseObject
	entries []*TreeEntry
}

// NewTree creates an empty, unwritten tree owned by r.
func NewTree(r *Repository) (*Tree, error) {
	if r == nil {
		return nil, ErrNilRepository
	}
	return &Tree{baseObject: baseObject{repo: r}}, nil
}

// newTreeFrom wraps a persisted tree payload.
func newTreeFrom(r *Repository, id object.Oid, payload []byte) (*Tree, error) {
	obj, err := object.UnmarshalTree(payload)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", id, err)
	}
	t := &Tree{baseObject: baseObject{repo: r, id: id, idSet: true}}
	t.entries = make([]*TreeEntry, len(obj.Entries))
	for i, e := range obj.Entries {
		t.entries[i] = &TreeEntry{
			tree:       t,
			name:       e.Name,
			id:         e.ID,
			attributes: e.Mode,
		}
	}
	return t, nil
}

func (t *Tree) Type() object.Type {
	return object.TypeTree
}

// Len returns the number of entries.
func (t *Tree) Len() int {
	return len(t.entries)
}

// Contains reports whether an entry with the given name exists.
func (t *Tree) Contains(name string) bool {
	return t.indexOf(name) >= 0
}

func (t *Tree) indexOf(name string) int {
	for i, e := range t.entries {
		if e.name == name {
			return i
		}
	}
	return -1
}

// fixIndex translates a possibly negative position into a slice index.
// Positions from -n to n-1 are valid for a tree of n entries.
func (t *Tree) fixIndex(i int) (int, error) {
	n := len(t.entries)
	if i >= n || i < -n {
		return 0, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, n)
	}
	if i < 0 {
		i += n
	}
	return i, nil
}

// Entry returns the entry with the given name.
func (t *Tree) Entry(name string) (*TreeEntry, error) {
	i := t.indexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("tree entry %q: %w", name, ErrEntryNotFound)
	}
	return t.entries[i], nil
}

// EntryByIndex returns the entry at position i. Negative positions count
// from the end.
func (t *Tree) EntryByIndex(i int) (*TreeEntry, error) {
	i, err := t.fixIndex(i)
	if err != nil {
		return nil, err
	}
	return t.entries[i], nil
}

// Entries returns the entries in stored order. The slice is a copy; the
// entries themselves are the live views.
func (t *Tree) Entries() []*TreeEntry {
	out := make([]*TreeEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// AddEntry records an entry pointing at the object named by hex. An
// existing entry with the same name is overwritten in place; otherwise the
// entry is appended. The target object need not exist yet.
func (t *Tree) AddEntry(hex, name string, attributes uint32) (*TreeEntry, error) {
	id, err := object.ParseOid(hex)
	if err != nil {
		return nil, fmt.Errorf("add tree entry %q: %w", name, err)
	}
	if err := validateEntryName(name); err != nil {
		return nil, fmt.Errorf("add tree entry: %w", err)
	}
	if i := t.indexOf(name); i >= 0 {
		e := t.entries[i]
		e.id = id
		e.attributes = attributes
		return e, nil
	}
	e := &TreeEntry{tree: t, name: name, id: id, attributes: attributes}
	t.entries = append(t.entries, e)
	return e, nil
}

// RemoveEntry removes the entry with the given name.
func (t *Tree) RemoveEntry(name string) error {
	i := t.indexOf(name)
	if i < 0 {
		return fmt.Errorf("tree entry %q: %w", name, ErrEntryNotFound)
	}
	t.removeAt(i)
	return nil
}

// RemoveEntryByIndex removes the entry at position i. Negative positions
// count from the end.
func (t *Tree) RemoveEntryByIndex(i int) error {
	i, err := t.fixIndex(i)
	if err != nil {
		return err
	}
	t.removeAt(i)
	return nil
}

func (t *Tree) removeAt(i int) {
	t.entries[i].tree = nil
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
}

// ReadRaw re-reads the persisted payload.
func (t *Tree) ReadRaw() ([]byte, error) {
	return t.readRaw(object.TypeTree)
}

// Write serializes the tree and persists it. Entries are sorted by name in
// the serialized form regardless of insertion order.
func (t *Tree) Write() (object.Oid, error) {
	obj := &object.TreeObj{Entries: make([]object.TreeEntry, len(t.entries))}
	for i, e := range t.entries {
		obj.Entries[i] = object.TreeEntry{
			Name: e.name,
			Mode: e.attributes,
			ID:   e.id,
		}
	}
	return t.write(object.TypeTree, object.MarshalTree(obj))
}

// TreeEntry is a live view into one slot of a Tree. Mutations take effect
// when the owning tree is written.
type TreeEntry struct {
	tree       *Tree
	name       string
	id         object.Oid
	attributes uint32
}

// Name returns the entry name.
func (e *TreeEntry) Name() string {
	return e.name
}

// SetName renames the entry.
func (e *TreeEntry) SetName(name string) error {
	if err := validateEntryName(name); err != nil {
		return fmt.Errorf("rename tree entry: %w", err)
	}
	e.name = name
	return nil
}

// ID returns the identifier of the object the entry points at.
func (e *TreeEntry) ID() object.Oid {
	return e.id
}

// SetID repoints the entry at the object named by hex.
func (e *TreeEntry) SetID(hex string) error {
	id, err := object.ParseOid(hex)
	if err != nil {
		return fmt.Errorf("tree entry %q: %w", e.name, err)
	}
	e.id = id
	return nil
}

// Attributes returns the entry's mode bits.
func (e *TreeEntry) Attributes() uint32 {
	return e.attributes
}

// SetAttributes replaces the entry's mode bits.
func (e *TreeEntry) SetAttributes(attributes uint32) {
	e.attributes = attributes
}

// Tree returns the tree this entry belongs to, or nil after removal.
func (e *TreeEntry) Tree() *Tree {
	return e.tree
}

// Resolve looks up the object the entry points at in the repository that
// owns the tree. A dangling entry yields an UnresolvedEntryError.
func (e *TreeEntry) Resolve() (Object, error) {
	if e.tree == nil || e.tree.repo == nil {
		return nil, ErrNilRepository
	}
	obj, err := e.tree.repo.Lookup(e.id.String())
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return nil, &UnresolvedEntryError{Name: e.name, ID: e.id}
		}
		return nil, err
	}
	return obj, nil
}

// validateEntryName rejects names that cannot appear in a serialized tree.
func validateEntryName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty entry name")
	case name == "." || name == "..":
		return fmt.Errorf("reserved entry name %q", name)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("entry name %q contains forbidden character", name)
	}
	return nil
}
