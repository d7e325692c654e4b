package object

import (
	"bytes"
	"fmt"
	"sort"
)

// ReachableSet returns all object identifiers reachable from roots by
// following object references. Missing roots are ignored.
func (db *Database) ReachableSet(roots []Oid) (map[Oid]struct{}, error) {
	roots = uniqueOids(roots)
	out := make(map[Oid]struct{}, len(roots))
	if len(roots) == 0 {
		return out, nil
	}

	stack := make([]Oid, 0, len(roots))
	stack = append(stack, roots...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id.IsZero() {
			continue
		}
		if _, ok := out[id]; ok {
			continue
		}
		ok, err := db.Has(id)
		if err != nil {
			return nil, fmt.Errorf("reachable set probe %s: %w", id, err)
		}
		if !ok {
			continue
		}
		out[id] = struct{}{}

		t, data, err := db.Read(id)
		if err != nil {
			return nil, fmt.Errorf("reachable set read %s: %w", id, err)
		}
		refs, err := referencedIDs(t, data)
		if err != nil {
			return nil, fmt.Errorf("reachable set parse %s (%s): %w", id, t, err)
		}
		stack = append(stack, refs...)
	}

	return out, nil
}

func referencedIDs(t Type, data []byte) ([]Oid, error) {
	switch t {
	case TypeBlob:
		return nil, nil
	case TypeTag:
		if target, ok := tagTarget(data); ok {
			return []Oid{target}, nil
		}
		return nil, nil
	case TypeCommit:
		commit, err := UnmarshalCommit(data)
		if err != nil {
			return nil, err
		}
		refs := make([]Oid, 0, 1+len(commit.Parents))
		refs = append(refs, commit.Tree)
		refs = append(refs, commit.Parents...)
		return refs, nil
	case TypeTree:
		tree, err := UnmarshalTree(data)
		if err != nil {
			return nil, err
		}
		refs := make([]Oid, 0, len(tree.Entries))
		for _, e := range tree.Entries {
			refs = append(refs, e.ID)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported object type %s", t)
	}
}

// tagTarget extracts the target identifier from an annotated tag payload.
// Tags are stored opaque; only the leading "object <hex>" line matters for
// reachability, so a malformed payload yields no references rather than an
// error.
func tagTarget(data []byte) (Oid, bool) {
	line := data
	if idx := bytes.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	rest, ok := bytes.CutPrefix(line, []byte("object "))
	if !ok {
		return Oid{}, false
	}
	id, err := ParseOid(string(rest))
	if err != nil {
		return Oid{}, false
	}
	return id, true
}

func uniqueOids(in []Oid) []Oid {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[Oid]struct{}, len(in))
	out := make([]Oid, 0, len(in))
	for _, id := range in {
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}
