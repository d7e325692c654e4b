package object

import (
	"crypto/sha1"
	"fmt"
)

// HashBytes computes the raw SHA-1 of data.
func HashBytes(data []byte) Oid {
	return Oid(sha1.Sum(data))
}

// HashObject computes an object's identifier: the SHA-1 of the envelope
// "type len\0content".
func HashObject(t Type, data []byte) Oid {
	header := fmt.Sprintf("%s %d\x00", t, len(data))
	h := sha1.New()
	h.Write([]byte(header))
	h.Write(data)
	var id Oid
	copy(id[:], h.Sum(nil))
	return id
}
