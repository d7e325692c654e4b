package object

import (
	"fmt"
	"strconv"
	"strings"
)

// Signature is a person record on a commit: display name, contact address,
// and a Unix timestamp.
type Signature struct {
	Name  string
	Email string
	When  int64
}

// String renders the canonical header form "Name <email> timestamp +0000".
func (s Signature) String() string {
	return fmt.Sprintf("%s <%s> %d +0000", s.Name, s.Email, s.When)
}

// ParseSignature parses the header form. A trailing timezone field is
// accepted and discarded; the timestamp is kept in Unix form.
func ParseSignature(text string) (Signature, error) {
	nameEnd := strings.Index(text, " <")
	emailEnd := strings.Index(text, "> ")
	if nameEnd < 0 || emailEnd < 0 || emailEnd < nameEnd {
		return Signature{}, fmt.Errorf("malformed signature %q", text)
	}

	name := text[:nameEnd]
	email := text[nameEnd+2 : emailEnd]
	fields := strings.Fields(text[emailEnd+2:])
	if len(fields) < 1 {
		return Signature{}, fmt.Errorf("malformed signature %q: missing timestamp", text)
	}
	when, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("malformed signature %q: bad timestamp: %w", text, err)
	}

	return Signature{Name: name, Email: email, When: when}, nil
}

// CommitSigningPayload returns the canonical bytes that are signed for a
// commit: the serialized form with the signature field cleared.
func CommitSigningPayload(c *CommitObj) []byte {
	if c == nil {
		return nil
	}
	copyCommit := *c
	copyCommit.GPGSig = ""
	return MarshalCommit(&copyCommit)
}
