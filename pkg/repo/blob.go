package repo

import (
	"github.com/davinirjr/pygit2/pkg/object"
)

// Blob wraps a blob object. Blob payloads are opaque bytes and are read-only
// through the wrapper; new content goes in through the object database.
type Blob struct {
	baseObject
	data    []byte
	dataSet bool
}

// NewBlob creates an empty, unwritten blob owned by r.
func NewBlob(r *Repository) (*Blob, error) {
	if r == nil {
		return nil, ErrNilRepository
	}
	return &Blob{baseObject: baseObject{repo: r}}, nil
}

// newBlobFrom wraps a persisted blob without reading its payload.
func newBlobFrom(r *Repository, id object.Oid) *Blob {
	return &Blob{baseObject: baseObject{repo: r, id: id, idSet: true}}
}

func (b *Blob) Type() object.Type {
	return object.TypeBlob
}

// Data returns the blob payload, reading it from the database on first use
// for persisted blobs.
func (b *Blob) Data() ([]byte, error) {
	if b.dataSet {
		return b.data, nil
	}
	data, err := b.readRaw(object.TypeBlob)
	if err != nil {
		return nil, err
	}
	b.data = data
	b.dataSet = true
	return b.data, nil
}

// ReadRaw re-reads the persisted payload.
func (b *Blob) ReadRaw() ([]byte, error) {
	return b.readRaw(object.TypeBlob)
}

// Write persists the blob payload. A fresh blob with no payload persists as
// the empty blob.
func (b *Blob) Write() (object.Oid, error) {
	if !b.dataSet && b.idSet {
		data, err := b.readRaw(object.TypeBlob)
		if err != nil {
			return object.Oid{}, err
		}
		b.data = data
		b.dataSet = true
	}
	return b.write(object.TypeBlob, b.data)
}
