package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Tree entry mode bits, in their canonical octal forms.
const (
	ModeTree     uint32 = 0o40000
	ModeBlob     uint32 = 0o100644
	ModeBlobExec uint32 = 0o100755
	ModeSymlink  uint32 = 0o120000
)

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H     (zero or more)
//	author N <E> T +0000
//	committer N <E> T +0000
//	gpgsig S     (optional, single line)
//
//	message
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	if strings.TrimSpace(c.GPGSig) != "" {
		fmt.Fprintf(&buf, "gpgsig %s\n", c.GPGSig)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses a CommitObj from its serialized form.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: missing header/message separator")
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	c := &CommitObj{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q", line)
		}
		switch key {
		case "tree":
			id, err := ParseOid(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: tree: %w", err)
			}
			c.Tree = id
		case "parent":
			id, err := ParseOid(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: parent: %w", err)
			}
			c.Parents = append(c.Parents, id)
		case "author":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author = sig
		case "committer":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer = sig
		case "gpgsig":
			c.GPGSig = val
		default:
			return nil, fmt.Errorf("unmarshal commit: unknown header key %q", key)
		}
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj in the canonical binary form: for each
// entry, "<octal mode> <name>\x00" followed by the 20 raw identifier bytes.
// Entries are sorted by name for deterministic output.
func MarshalTree(tr *TreeObj) []byte {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		fmt.Fprintf(&buf, "%o %s\x00", e.Mode, e.Name)
		buf.Write(e.ID[:])
	}
	return buf.Bytes()
}

// UnmarshalTree parses a TreeObj from its serialized form, preserving the
// stored entry order.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	rest := data
	for len(rest) > 0 {
		nulIdx := bytes.IndexByte(rest, 0)
		if nulIdx < 0 {
			return nil, fmt.Errorf("unmarshal tree: truncated entry header")
		}
		header := string(rest[:nulIdx])
		modeText, name, ok := strings.Cut(header, " ")
		if !ok || name == "" {
			return nil, fmt.Errorf("unmarshal tree: malformed entry %q", header)
		}
		mode, err := strconv.ParseUint(modeText, 8, 32)
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: bad mode %q: %w", modeText, err)
		}

		rest = rest[nulIdx+1:]
		if len(rest) < OidRawLen {
			return nil, fmt.Errorf("unmarshal tree: truncated id for entry %q", name)
		}
		id, err := OidFromBytes(rest[:OidRawLen])
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}
		rest = rest[OidRawLen:]

		tr.Entries = append(tr.Entries, TreeEntry{
			Mode: uint32(mode),
			Name: name,
			ID:   id,
		})
	}
	return tr, nil
}
