package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/davinirjr/pygit2/pkg/object"
)

// Repository is an opened repository directory: a content-addressed object
// database under objects/, refs under refs/, a HEAD file, and an optional
// config.toml.
type Repository struct {
	dir    string
	odb    *object.Database
	config *Config
	closed bool
}

// Init creates a new repository at path: objects/ (with pack/), refs/heads/,
// refs/tags/, and HEAD pointing at refs/heads/main. It fails if HEAD already
// exists.
func Init(path string) (*Repository, error) {
	headPath := filepath.Join(path, "HEAD")
	if _, err := os.Stat(headPath); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", path)
	}

	odb, err := object.Init(filepath.Join(path, "objects"))
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	dirs := []string{
		filepath.Join(path, "refs", "heads"),
		filepath.Join(path, "refs", "tags"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	if err := os.WriteFile(headPath, []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	return &Repository{
		dir:    path,
		odb:    odb,
		config: defaultConfig(),
	}, nil
}

// Open opens the repository directory at path. The path names the
// repository directory itself; it must contain objects/, refs/, and HEAD.
func Open(path string) (*Repository, error) {
	for _, marker := range []string{"objects", "refs"} {
		info, err := os.Stat(filepath.Join(path, marker))
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("open repository %s: missing %s: %w", path, marker, ErrNotRepository)
		}
	}
	if _, err := os.Stat(filepath.Join(path, "HEAD")); err != nil {
		return nil, fmt.Errorf("open repository %s: missing HEAD: %w", path, ErrNotRepository)
	}

	odb, err := object.Open(filepath.Join(path, "objects"))
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}

	r := &Repository{dir: path, odb: odb}

	cfg, err := readConfig(r.configPath())
	if err != nil {
		odb.Close()
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}
	r.config = cfg
	if err := odb.SetCompression(cfg.Core.Compression); err != nil {
		odb.Close()
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}

	return r, nil
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Odb returns the underlying object database.
func (r *Repository) Odb() *object.Database {
	return r.odb
}

// Close releases the repository's resources. The first call closes; later
// calls are no-ops. Operations on a closed repository fail with
// object.ErrClosed.
func (r *Repository) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.odb.Close()
}

// Contains reports whether the repository holds an object with the given
// hex identifier. A malformed identifier is an error; plain absence is not.
func (r *Repository) Contains(hex string) (bool, error) {
	id, err := object.ParseOid(hex)
	if err != nil {
		return false, err
	}
	if r.closed {
		return false, object.ErrClosed
	}
	return r.odb.Has(id)
}

// ReadRaw returns the stored type tag and payload for the given hex
// identifier.
func (r *Repository) ReadRaw(hex string) (object.Type, []byte, error) {
	id, err := object.ParseOid(hex)
	if err != nil {
		return 0, nil, err
	}
	if r.closed {
		return 0, nil, object.ErrClosed
	}
	return r.odb.Read(id)
}

// Lookup retrieves the object with the given hex identifier, wrapped
// according to its stored type. The returned wrapper is a view of persisted
// state: its identifier is set.
func (r *Repository) Lookup(hex string) (Object, error) {
	id, err := object.ParseOid(hex)
	if err != nil {
		return nil, err
	}
	return r.lookup(id)
}

func (r *Repository) lookup(id object.Oid) (Object, error) {
	if r.closed {
		return nil, object.ErrClosed
	}
	t, payload, err := r.odb.Read(id)
	if err != nil {
		return nil, err
	}
	return r.wrap(id, t, payload)
}

// wrap dispatches on the stored type tag. The tag set is closed; the
// database never yields anything outside it.
func (r *Repository) wrap(id object.Oid, t object.Type, payload []byte) (Object, error) {
	switch t {
	case object.TypeCommit:
		return newCommitFrom(r, id, payload)
	case object.TypeTree:
		return newTreeFrom(r, id, payload)
	case object.TypeBlob:
		return newBlobFrom(r, id), nil
	case object.TypeTag:
		return newTagObject(r, id), nil
	default:
		panic(fmt.Sprintf("corrupt object %s: unknown type tag %d", id, t))
	}
}

// LookupCommit retrieves a commit by hex identifier, failing with
// ErrTypeMismatch when the object is of another kind.
func (r *Repository) LookupCommit(hex string) (*Commit, error) {
	obj, err := r.Lookup(hex)
	if err != nil {
		return nil, err
	}
	commit, ok := obj.(*Commit)
	if !ok {
		return nil, fmt.Errorf("object %s is a %s, not a commit: %w", hex, obj.Type(), ErrTypeMismatch)
	}
	return commit, nil
}

// LookupTree retrieves a tree by hex identifier, failing with
// ErrTypeMismatch when the object is of another kind.
func (r *Repository) LookupTree(hex string) (*Tree, error) {
	obj, err := r.Lookup(hex)
	if err != nil {
		return nil, err
	}
	tree, ok := obj.(*Tree)
	if !ok {
		return nil, fmt.Errorf("object %s is a %s, not a tree: %w", hex, obj.Type(), ErrTypeMismatch)
	}
	return tree, nil
}

// LookupBlob retrieves a blob by hex identifier, failing with
// ErrTypeMismatch when the object is of another kind.
func (r *Repository) LookupBlob(hex string) (*Blob, error) {
	obj, err := r.Lookup(hex)
	if err != nil {
		return nil, err
	}
	blob, ok := obj.(*Blob)
	if !ok {
		return nil, fmt.Errorf("object %s is a %s, not a blob: %w", hex, obj.Type(), ErrTypeMismatch)
	}
	return blob, nil
}
