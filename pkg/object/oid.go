package object

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// OidRawLen is the byte width of an object identifier.
	OidRawLen = 20
	// OidHexLen is the length of an identifier's hexadecimal text form.
	OidHexLen = 40
)

// ErrInvalidOid reports malformed identifier text: wrong length or
// non-hex characters.
var ErrInvalidOid = errors.New("invalid object id")

// Oid is a fixed-width object identifier: the SHA-1 of an object's envelope.
type Oid [OidRawLen]byte

// ParseOid decodes a 40-character hex string into an Oid. Validation happens
// before any store access; either hex case is accepted, the canonical text
// form is lowercase.
func ParseOid(s string) (Oid, error) {
	var id Oid
	if len(s) != OidHexLen {
		return id, fmt.Errorf("%w: %q has length %d, want %d", ErrInvalidOid, s, len(s), OidHexLen)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("%w: %q: %v", ErrInvalidOid, s, err)
	}
	copy(id[:], raw)
	return id, nil
}

// OidFromBytes copies a raw 20-byte identifier.
func OidFromBytes(raw []byte) (Oid, error) {
	var id Oid
	if len(raw) != OidRawLen {
		return id, fmt.Errorf("%w: raw id has %d bytes, want %d", ErrInvalidOid, len(raw), OidRawLen)
	}
	copy(id[:], raw)
	return id, nil
}

// String returns the canonical lowercase hex form.
func (id Oid) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is the all-zero identifier.
func (id Oid) IsZero() bool {
	return id == Oid{}
}

// Compare orders identifiers by raw byte value, returning -1, 0, or 1.
func (id Oid) Compare(other Oid) int {
	return bytes.Compare(id[:], other[:])
}
