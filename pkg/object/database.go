package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// DefaultCompression selects the zlib default level for object writes.
const DefaultCompression = zlib.DefaultCompression

// ErrNotFound reports a well-formed identifier absent from the database.
var ErrNotFound = errors.New("object not found")

// ErrClosed reports use of a database after Close.
var ErrClosed = errors.New("object database is closed")

// Database is a content-addressed object database rooted at a directory:
// loose objects live at <dir>/<2-hex>/<38-hex> as zlib-compressed envelopes
// "type len\0content", packed objects under <dir>/pack as pack/idx pairs.
// Identifiers are the SHA-1 of the uncompressed envelope.
//
// A Database is single-goroutine: it performs no locking of its own.
type Database struct {
	dir         string
	compression int

	packs  map[string]*packHandle
	closed bool
}

// packHandle is a lazily opened pack: parsed index plus the open pack file.
type packHandle struct {
	file  *os.File
	size  int64
	index *PackIndex
}

// Open opens an existing object database rooted at dir.
func Open(dir string) (*Database, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open object database %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open object database %s: not a directory", dir)
	}
	return &Database{
		dir:         dir,
		compression: zlib.DefaultCompression,
		packs:       make(map[string]*packHandle),
	}, nil
}

// Init creates the database directory layout at dir and opens it.
func Init(dir string) (*Database, error) {
	if err := os.MkdirAll(filepath.Join(dir, "pack"), 0o755); err != nil {
		return nil, fmt.Errorf("init object database %s: %w", dir, err)
	}
	return Open(dir)
}

// Dir returns the database root directory.
func (db *Database) Dir() string {
	return db.dir
}

// SetCompression sets the zlib level used for loose object writes.
func (db *Database) SetCompression(level int) error {
	if level < zlib.HuffmanOnly || level > zlib.BestCompression {
		return fmt.Errorf("compression level %d out of range", level)
	}
	db.compression = level
	return nil
}

// Close releases held pack file handles. The first call closes; later calls
// are no-ops. All other operations fail with ErrClosed afterwards.
func (db *Database) Close() error {
	if db.closed {
		return nil
	}
	db.closed = true

	var firstErr error
	for name, h := range db.packs {
		if h.file == nil {
			continue
		}
		if err := h.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close pack %s: %w", name, err)
		}
	}
	db.packs = nil
	return firstErr
}

// objectPath returns the loose object path for an identifier.
func (db *Database) objectPath(id Oid) string {
	hexID := id.String()
	return filepath.Join(db.dir, hexID[:2], hexID[2:])
}

func (db *Database) packDir() string {
	return filepath.Join(db.dir, "pack")
}

// Has reports whether the database contains an object with the given
// identifier, in either the loose tier or a pack. Plain absence is never an
// error.
func (db *Database) Has(id Oid) (bool, error) {
	if db.closed {
		return false, ErrClosed
	}
	if _, err := os.Stat(db.objectPath(id)); err == nil {
		return true, nil
	}

	bases, err := db.packBases()
	if err != nil {
		return false, err
	}
	for _, base := range bases {
		h, err := db.openPack(base)
		if err != nil {
			return false, err
		}
		if _, ok := h.index.Find(id); ok {
			return true, nil
		}
	}
	return false, nil
}

// Read retrieves an object by identifier, returning its type tag and
// decompressed payload. Absence fails with ErrNotFound.
func (db *Database) Read(id Oid) (Type, []byte, error) {
	if db.closed {
		return 0, nil, ErrClosed
	}

	t, data, err := db.readLoose(id)
	if err == nil {
		return t, data, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return 0, nil, err
	}

	t, data, ok, err := db.readPacked(id)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		return 0, nil, fmt.Errorf("object read %s: %w", id, ErrNotFound)
	}
	return t, data, nil
}

// Write stores an object and returns its identifier. Writes are atomic: the
// compressed envelope goes to a temp file renamed into place. Writing an
// object that already exists is a no-op returning the same identifier.
func (db *Database) Write(t Type, data []byte) (Oid, error) {
	if db.closed {
		return Oid{}, ErrClosed
	}
	if !t.Valid() {
		return Oid{}, fmt.Errorf("object write: invalid type %s", t)
	}

	id := HashObject(t, data)

	// Fast path: already exists.
	if ok, err := db.Has(id); err != nil {
		return Oid{}, err
	} else if ok {
		return id, nil
	}

	hexID := id.String()
	dir := filepath.Join(db.dir, hexID[:2])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Oid{}, fmt.Errorf("object write mkdir: %w", err)
	}

	// Atomic write via temp + rename.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return Oid{}, fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	zw, err := zlib.NewWriterLevel(tmp, db.compression)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return Oid{}, fmt.Errorf("object write zlib: %w", err)
	}
	if _, err := zw.Write(makeEnvelope(t, data)); err != nil {
		zw.Close()
		tmp.Close()
		os.Remove(tmpName)
		return Oid{}, fmt.Errorf("object write: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return Oid{}, fmt.Errorf("object write flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return Oid{}, fmt.Errorf("object write close: %w", err)
	}

	if err := os.Rename(tmpName, db.objectPath(id)); err != nil {
		os.Remove(tmpName)
		return Oid{}, fmt.Errorf("object write rename: %w", err)
	}

	return id, nil
}

// readLoose reads and decodes a loose object. A missing file surfaces as a
// wrapped os.ErrNotExist so callers can fall through to packs.
func (db *Database) readLoose(id Oid) (Type, []byte, error) {
	raw, err := os.ReadFile(db.objectPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil, fmt.Errorf("object read %s: %w", id, err)
		}
		return 0, nil, fmt.Errorf("object read %s: %w", id, err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return 0, nil, fmt.Errorf("object read %s: zlib: %w", id, err)
	}
	envelope, err := io.ReadAll(zr)
	if err != nil {
		_ = zr.Close()
		return 0, nil, fmt.Errorf("object read %s: decompress: %w", id, err)
	}
	if err := zr.Close(); err != nil {
		return 0, nil, fmt.Errorf("object read %s: close zlib stream: %w", id, err)
	}

	t, data, err := parseEnvelope(envelope)
	if err != nil {
		return 0, nil, fmt.Errorf("object read %s: %w", id, err)
	}
	return t, data, nil
}

// readPacked searches every pack index for the identifier and decodes the
// matching entry in place.
func (db *Database) readPacked(id Oid) (Type, []byte, bool, error) {
	bases, err := db.packBases()
	if err != nil {
		return 0, nil, false, err
	}
	for _, base := range bases {
		h, err := db.openPack(base)
		if err != nil {
			return 0, nil, false, err
		}
		entry, ok := h.index.Find(id)
		if !ok {
			continue
		}

		kind, data, err := readPackEntryAt(h.file, int64(entry.Offset), h.size)
		if err != nil {
			return 0, nil, false, fmt.Errorf("object read %s: pack %s: %w", id, base+".pack", err)
		}
		t, ok := storedType(kind)
		if !ok {
			return 0, nil, false, fmt.Errorf("object read %s: pack %s: unsupported entry type %d", id, base+".pack", kind)
		}
		if computed := HashObject(t, data); computed != id {
			return 0, nil, false, fmt.Errorf("object read %s: pack %s: hash mismatch (computed %s)", id, base+".pack", computed)
		}
		return t, data, true, nil
	}
	return 0, nil, false, nil
}

// openPack returns the cached handle for a pack, parsing its index and
// opening the pack file on first use.
func (db *Database) openPack(base string) (*packHandle, error) {
	if h, ok := db.packs[base]; ok {
		return h, nil
	}

	idxData, err := os.ReadFile(filepath.Join(db.packDir(), base+".idx"))
	if err != nil {
		return nil, fmt.Errorf("read pack index %s: %w", base+".idx", err)
	}
	idx, err := ReadPackIndex(idxData)
	if err != nil {
		return nil, fmt.Errorf("parse pack index %s: %w", base+".idx", err)
	}

	f, err := os.Open(filepath.Join(db.packDir(), base+".pack"))
	if err != nil {
		return nil, fmt.Errorf("open pack %s: %w", base+".pack", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat pack %s: %w", base+".pack", err)
	}

	h := &packHandle{file: f, size: info.Size(), index: idx}
	db.packs[base] = h
	return h, nil
}

// packBases lists pack base names (no extension) that have an index file.
func (db *Database) packBases() ([]string, error) {
	entries, err := os.ReadDir(db.packDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read pack dir: %w", err)
	}

	bases := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".idx") {
			continue
		}
		bases = append(bases, strings.TrimSuffix(entry.Name(), ".idx"))
	}
	sort.Strings(bases)
	return bases, nil
}

// listLooseIDs enumerates loose object identifiers from the fanout layout.
func (db *Database) listLooseIDs() ([]Oid, error) {
	fanoutDirs, err := os.ReadDir(db.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read objects dir: %w", err)
	}

	ids := make([]Oid, 0)
	for _, fanoutDir := range fanoutDirs {
		if !fanoutDir.IsDir() {
			continue
		}
		prefix := fanoutDir.Name()
		if prefix == "pack" || !isHexComponent(prefix, 2) {
			continue
		}

		objectEntries, err := os.ReadDir(filepath.Join(db.dir, prefix))
		if err != nil {
			return nil, fmt.Errorf("read objects fanout %s: %w", prefix, err)
		}
		for _, objectEntry := range objectEntries {
			if objectEntry.IsDir() {
				continue
			}
			suffix := objectEntry.Name()
			if !isHexComponent(suffix, OidHexLen-2) {
				continue
			}
			id, err := ParseOid(prefix + suffix)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})
	return ids, nil
}

func isHexComponent(s string, expectedLen int) bool {
	if len(s) != expectedLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			continue
		}
		return false
	}
	return true
}

// makeEnvelope builds the uncompressed on-disk form "type len\0content".
func makeEnvelope(t Type, data []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", t, len(data))
	out := make([]byte, 0, len(header)+len(data))
	out = append(out, header...)
	out = append(out, data...)
	return out
}

// parseEnvelope splits "type len\0content" and validates the declared
// length.
func parseEnvelope(raw []byte) (Type, []byte, error) {
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return 0, nil, fmt.Errorf("invalid envelope (no NUL)")
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	name, lenText, ok := strings.Cut(header, " ")
	if !ok {
		return 0, nil, fmt.Errorf("invalid envelope header %q", header)
	}
	t, err := ParseType(name)
	if err != nil {
		return 0, nil, err
	}
	length, err := strconv.Atoi(lenText)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid envelope length %q: %w", lenText, err)
	}
	if len(content) != length {
		return 0, nil, fmt.Errorf("envelope length mismatch (header=%d, actual=%d)", length, len(content))
	}
	return t, content, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteCommit serializes and stores a CommitObj.
func (db *Database) WriteCommit(c *CommitObj) (Oid, error) {
	return db.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a commit.
func (db *Database) ReadCommit(id Oid) (*CommitObj, error) {
	t, data, err := db.Read(id)
	if err != nil {
		return nil, err
	}
	if t != TypeCommit {
		return nil, fmt.Errorf("object %s: type mismatch: got %s, want %s", id, t, TypeCommit)
	}
	return UnmarshalCommit(data)
}

// WriteTree serializes and stores a TreeObj.
func (db *Database) WriteTree(tr *TreeObj) (Oid, error) {
	return db.Write(TypeTree, MarshalTree(tr))
}

// ReadTree reads and deserializes a tree.
func (db *Database) ReadTree(id Oid) (*TreeObj, error) {
	t, data, err := db.Read(id)
	if err != nil {
		return nil, err
	}
	if t != TypeTree {
		return nil, fmt.Errorf("object %s: type mismatch: got %s, want %s", id, t, TypeTree)
	}
	return UnmarshalTree(data)
}
