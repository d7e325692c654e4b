package repo

import (
	"fmt"
	"strings"

	"github.com/davinirjr/pygit2/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be carried in the commit's gpgsig header.
type CommitSigner func(payload []byte) (string, error)

// Commit wraps a commit object. Fresh commits start empty and mutable;
// Write serializes the current state and records the identifier.
type Commit struct {
	baseObject
	obj object.CommitObj
}

// NewCommit creates an empty, unwritten commit owned by r.
func NewCommit(r *Repository) (*Commit, error) {
	if r == nil {
		return nil, ErrNilRepository
	}
	return &Commit{baseObject: baseObject{repo: r}}, nil
}

// newCommitFrom wraps a persisted commit payload.
func newCommitFrom(r *Repository, id object.Oid, payload []byte) (*Commit, error) {
	obj, err := object.UnmarshalCommit(payload)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", id, err)
	}
	return &Commit{
		baseObject: baseObject{repo: r, id: id, idSet: true},
		obj:        *obj,
	}, nil
}

func (c *Commit) Type() object.Type {
	return object.TypeCommit
}

// Message returns the full commit message.
func (c *Commit) Message() string {
	return c.obj.Message
}

// SetMessage replaces the commit message. The identifier is not recomputed
// until Write.
func (c *Commit) SetMessage(msg string) {
	c.obj.Message = msg
}

// ShortMessage returns the first line of the message, derived from the
// current message on every call.
func (c *Commit) ShortMessage() string {
	msg := c.obj.Message
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		return msg[:idx]
	}
	return msg
}

// Author returns the author signature.
func (c *Commit) Author() object.Signature {
	return c.obj.Author
}

// SetAuthor replaces the author signature.
func (c *Commit) SetAuthor(sig object.Signature) {
	c.obj.Author = sig
}

// Committer returns the committer signature.
func (c *Commit) Committer() object.Signature {
	return c.obj.Committer
}

// SetCommitter replaces the committer signature.
func (c *Commit) SetCommitter(sig object.Signature) {
	c.obj.Committer = sig
}

// CommitTime returns the committer timestamp in Unix form.
func (c *Commit) CommitTime() int64 {
	return c.obj.Committer.When
}

// TreeID returns the identifier of the commit's tree. A fresh commit has a
// zero tree identifier.
func (c *Commit) TreeID() object.Oid {
	return c.obj.Tree
}

// SetTree points the commit at a tree.
func (c *Commit) SetTree(id object.Oid) {
	c.obj.Tree = id
}

// Tree looks up the commit's tree in the owning repository.
func (c *Commit) Tree() (*Tree, error) {
	return c.repo.LookupTree(c.obj.Tree.String())
}

// ParentIDs returns the parent identifiers in order.
func (c *Commit) ParentIDs() []object.Oid {
	out := make([]object.Oid, len(c.obj.Parents))
	copy(out, c.obj.Parents)
	return out
}

// AddParent appends a parent identifier.
func (c *Commit) AddParent(id object.Oid) {
	c.obj.Parents = append(c.obj.Parents, id)
}

// RawSignature returns the detached signature carried in the gpgsig header,
// if any.
func (c *Commit) RawSignature() string {
	return c.obj.GPGSig
}

// SetRawSignature attaches a detached signature. The encoded value must be
// a single line.
func (c *Commit) SetRawSignature(sig string) error {
	if strings.Contains(sig, "\n") {
		return fmt.Errorf("raw signature must be a single line")
	}
	c.obj.GPGSig = sig
	return nil
}

// SigningPayload returns the canonical bytes a signer must sign: the
// serialized commit with the signature header cleared.
func (c *Commit) SigningPayload() []byte {
	return object.CommitSigningPayload(&c.obj)
}

// Sign computes the signing payload, runs the signer, and attaches the
// result.
func (c *Commit) Sign(signer CommitSigner) error {
	if signer == nil {
		return fmt.Errorf("sign commit: nil signer")
	}
	sig, err := signer(c.SigningPayload())
	if err != nil {
		return fmt.Errorf("sign commit: %w", err)
	}
	return c.SetRawSignature(sig)
}

// ReadRaw re-reads the persisted payload.
func (c *Commit) ReadRaw() ([]byte, error) {
	return c.readRaw(object.TypeCommit)
}

// Write serializes the commit and persists it.
func (c *Commit) Write() (object.Oid, error) {
	return c.write(object.TypeCommit, object.MarshalCommit(&c.obj))
}
