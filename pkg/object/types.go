package object

import "fmt"

// Type tags the kind of a stored object. The set is closed: these values
// are fixed by the storage format and double as pack entry type codes.
type Type int8

const (
	// TypeAny matches any concrete kind in type-erased operations.
	TypeAny Type = -2

	TypeCommit Type = 1
	TypeTree   Type = 2
	TypeBlob   Type = 3
	TypeTag    Type = 4
)

// String returns the envelope header name for the type.
func (t Type) String() string {
	switch t {
	case TypeAny:
		return "any"
	case TypeCommit:
		return "commit"
	case TypeTree:
		return "tree"
	case TypeBlob:
		return "blob"
	case TypeTag:
		return "tag"
	default:
		return fmt.Sprintf("type(%d)", int8(t))
	}
}

// ParseType maps an envelope header name to its type tag.
func ParseType(s string) (Type, error) {
	switch s {
	case "commit":
		return TypeCommit, nil
	case "tree":
		return TypeTree, nil
	case "blob":
		return TypeBlob, nil
	case "tag":
		return TypeTag, nil
	default:
		return 0, fmt.Errorf("unknown object type %q", s)
	}
}

// Valid reports whether t is one of the four concrete storable kinds.
func (t Type) Valid() bool {
	switch t {
	case TypeCommit, TypeTree, TypeBlob, TypeTag:
		return true
	default:
		return false
	}
}

// TreeEntry is one (mode, name, identifier) record in a tree payload.
type TreeEntry struct {
	Mode uint32
	Name string
	ID   Oid
}

// TreeObj holds tree entries in storage order.
type TreeObj struct {
	Entries []TreeEntry
}

// CommitObj is the decoded form of a commit payload.
type CommitObj struct {
	Tree      Oid
	Parents   []Oid
	Author    Signature
	Committer Signature
	GPGSig    string
	Message   string
}
