package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/davinirjr/pygit2/pkg/object"
)

func TestGCPacksReachableAndPrunesUnreachable(t *testing.T) {
	r := tempRepo(t)

	keepBlob := writeTestBlob(t, r, []byte("keep me"))
	tree := writeTestTree(t, r, "keep.txt", keepBlob)
	head := writeTestCommit(t, r, tree, nil, "initial")
	if err := r.UpdateRef("refs/heads/main", head); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	orphan := writeTestBlob(t, r, []byte("nobody references this"))

	summary, err := r.GC()
	if err != nil {
		t.Fatalf("GC: %v", err)
	}
	if summary.PackedObjects != 3 {
		t.Errorf("PackedObjects = %d, want 3", summary.PackedObjects)
	}
	if summary.PrunedObjects != 4 {
		t.Errorf("PrunedObjects = %d, want 4", summary.PrunedObjects)
	}
	if _, err := os.Stat(summary.PackFile); err != nil {
		t.Errorf("pack file: %v", err)
	}
	if _, err := os.Stat(summary.IndexFile); err != nil {
		t.Errorf("index file: %v", err)
	}

	// Reachable history survives in the pack.
	for _, id := range []object.Oid{keepBlob, tree, head} {
		ok, err := r.Contains(id.String())
		if err != nil {
			t.Fatalf("Contains(%s): %v", id, err)
		}
		if !ok {
			t.Errorf("Contains(%s) = false after GC", id)
		}
	}

	// The orphan is gone.
	ok, err := r.Contains(orphan.String())
	if err != nil {
		t.Fatalf("Contains(orphan): %v", err)
	}
	if ok {
		t.Error("orphan blob survived GC")
	}
	_, err = r.Lookup(orphan.String())
	if !errors.Is(err, object.ErrNotFound) {
		t.Errorf("Lookup(orphan) = %v, want ErrNotFound", err)
	}

	// Collected objects stay readable through the wrapper layer.
	c, err := r.LookupCommit(head.String())
	if err != nil {
		t.Fatalf("LookupCommit after GC: %v", err)
	}
	if c.ShortMessage() != "initial" {
		t.Errorf("ShortMessage = %q", c.ShortMessage())
	}
}

func TestGCUsesDetachedHeadAsRoot(t *testing.T) {
	r := tempRepo(t)

	blob := writeTestBlob(t, r, []byte("detached"))
	tree := writeTestTree(t, r, "d.txt", blob)
	head := writeTestCommit(t, r, tree, nil, "detached head")
	if err := os.WriteFile(filepath.Join(r.Dir(), "HEAD"), []byte(head.String()+"\n"), 0o644); err != nil {
		t.Fatalf("write HEAD: %v", err)
	}

	if _, err := r.GC(); err != nil {
		t.Fatalf("GC: %v", err)
	}

	ok, err := r.Contains(head.String())
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !ok {
		t.Error("detached HEAD target did not survive GC")
	}
}

func TestGCKeepsAnnotatedTagChain(t *testing.T) {
	r := tempRepo(t)

	blob := writeTestBlob(t, r, []byte("tagged"))
	tree := writeTestTree(t, r, "t.txt", blob)
	head := writeTestCommit(t, r, tree, nil, "tagged commit")
	tagger := object.Signature{Name: "T", Email: "t@example.com", When: 1}
	tagID, err := r.CreateAnnotatedTag("v1", head, tagger, "keep the chain", false)
	if err != nil {
		t.Fatalf("CreateAnnotatedTag: %v", err)
	}

	if _, err := r.GC(); err != nil {
		t.Fatalf("GC: %v", err)
	}

	// Tag object, commit, tree and blob all survive through the tag ref.
	for _, id := range []object.Oid{tagID, head, tree, blob} {
		ok, err := r.Contains(id.String())
		if err != nil {
			t.Fatalf("Contains(%s): %v", id, err)
		}
		if !ok {
			t.Errorf("object %s did not survive GC", id)
		}
	}
}

func TestVerifyAfterGC(t *testing.T) {
	r := tempRepo(t)

	blob := writeTestBlob(t, r, []byte("verified"))
	tree := writeTestTree(t, r, "v.txt", blob)
	head := writeTestCommit(t, r, tree, nil, "verify")
	if err := r.UpdateRef("refs/heads/main", head); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	if _, err := r.GC(); err != nil {
		t.Fatalf("GC: %v", err)
	}
	extra := writeTestBlob(t, r, []byte("loose after gc"))

	summary, err := r.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if summary.LooseObjects != 1 {
		t.Errorf("LooseObjects = %d, want 1 (%s)", summary.LooseObjects, extra)
	}
	if summary.PackFiles != 1 {
		t.Errorf("PackFiles = %d, want 1", summary.PackFiles)
	}
	if summary.PackObjects != 3 {
		t.Errorf("PackObjects = %d, want 3", summary.PackObjects)
	}
}
