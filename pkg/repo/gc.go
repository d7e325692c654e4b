package repo

import (
	"github.com/davinirjr/pygit2/pkg/object"
)

// GC packs loose objects reachable from refs and prunes the rest. HEAD
// counts as a root, so a detached HEAD keeps its history alive.
func (r *Repository) GC() (*object.GCSummary, error) {
	refs, err := r.ListRefs("")
	if err != nil {
		return nil, err
	}

	roots := make([]object.Oid, 0, len(refs)+1)
	for _, id := range refs {
		roots = append(roots, id)
	}
	if id, err := r.ResolveRef("HEAD"); err == nil {
		roots = append(roots, id)
	}

	return r.odb.GCReachable(roots)
}

// Verify checks the integrity of every object in the repository database.
func (r *Repository) Verify() (*object.VerifySummary, error) {
	return r.odb.Verify()
}
