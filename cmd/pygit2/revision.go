package main

import (
	"fmt"

	"github.com/davinirjr/pygit2/pkg/object"
	"github.com/davinirjr/pygit2/pkg/repo"
)

// resolveRevision turns a command line revision into an object identifier.
// A full hex identifier is used as is; anything else goes through ref
// resolution, so "HEAD", "main" and "refs/tags/v1" all work.
func resolveRevision(r *repo.Repository, rev string) (object.Oid, error) {
	if id, err := object.ParseOid(rev); err == nil {
		return id, nil
	}
	return r.ResolveRef(rev)
}

// resolveTree peels a revision to a tree: tree identifiers are used
// directly, commits yield their root tree, annotated tags are not peeled.
func resolveTree(r *repo.Repository, rev string) (*repo.Tree, error) {
	id, err := resolveRevision(r, rev)
	if err != nil {
		return nil, err
	}
	obj, err := r.Lookup(id.String())
	if err != nil {
		return nil, err
	}
	switch o := obj.(type) {
	case *repo.Tree:
		return o, nil
	case *repo.Commit:
		return o.Tree()
	default:
		return nil, fmt.Errorf("%s is a %s, not a tree", rev, obj.Type())
	}
}

// entryTypeName names the object kind a tree entry mode implies.
func entryTypeName(mode uint32) string {
	if mode == object.ModeTree {
		return "tree"
	}
	return "blob"
}

// shortHex trims a hex identifier to the display length used in compact
// output.
func shortHex(id object.Oid) string {
	return id.String()[:8]
}
