package object

import (
	"testing"
)

func writeTestCommit(t *testing.T, db *Database, tree Oid, parents []Oid, msg string) Oid {
	t.Helper()
	id, err := db.WriteCommit(&CommitObj{
		Tree:      tree,
		Parents:   parents,
		Author:    Signature{Name: "A", Email: "a@x", When: 1},
		Committer: Signature{Name: "A", Email: "a@x", When: 1},
		Message:   msg,
	})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	return id
}

func TestReachableSetFollowsCommitChain(t *testing.T) {
	db := tempDB(t)

	blobID, err := db.Write(TypeBlob, []byte("content"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	treeID, err := db.WriteTree(&TreeObj{
		Entries: []TreeEntry{{Mode: ModeBlob, Name: "f", ID: blobID}},
	})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	rootID := writeTestCommit(t, db, treeID, nil, "root\n")
	tipID := writeTestCommit(t, db, treeID, []Oid{rootID}, "tip\n")

	got, err := db.ReachableSet([]Oid{tipID})
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}

	for _, id := range []Oid{tipID, rootID, treeID, blobID} {
		if _, ok := got[id]; !ok {
			t.Errorf("reachable set missing %s", id)
		}
	}
	if len(got) != 4 {
		t.Errorf("len = %d, want 4", len(got))
	}
}

func TestReachableSetExcludesUnreferenced(t *testing.T) {
	db := tempDB(t)

	keepID, err := db.Write(TypeBlob, []byte("keep"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	dropID, err := db.Write(TypeBlob, []byte("drop"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := db.ReachableSet([]Oid{keepID})
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}
	if _, ok := got[keepID]; !ok {
		t.Error("root blob should be reachable")
	}
	if _, ok := got[dropID]; ok {
		t.Error("unreferenced blob should not be reachable")
	}
}

func TestReachableSetFollowsTagTarget(t *testing.T) {
	db := tempDB(t)

	treeID, err := db.WriteTree(&TreeObj{})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	commitID := writeTestCommit(t, db, treeID, nil, "tagged\n")

	payload := "object " + commitID.String() + "\ntype commit\ntag v1\n\nmessage\n"
	tagID, err := db.Write(TypeTag, []byte(payload))
	if err != nil {
		t.Fatalf("Write(tag): %v", err)
	}

	got, err := db.ReachableSet([]Oid{tagID})
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}
	for _, id := range []Oid{tagID, commitID, treeID} {
		if _, ok := got[id]; !ok {
			t.Errorf("reachable set missing %s", id)
		}
	}
}

func TestReachableSetToleratesOpaqueTagPayload(t *testing.T) {
	db := tempDB(t)

	tagID, err := db.Write(TypeTag, []byte("not a structured payload"))
	if err != nil {
		t.Fatalf("Write(tag): %v", err)
	}

	got, err := db.ReachableSet([]Oid{tagID})
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestReachableSetIgnoresMissingRoots(t *testing.T) {
	db := tempDB(t)

	missing := HashObject(TypeBlob, []byte("never written"))
	got, err := db.ReachableSet([]Oid{missing})
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestReachableSetDeduplicatesRoots(t *testing.T) {
	db := tempDB(t)

	id, err := db.Write(TypeBlob, []byte("shared"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := db.ReachableSet([]Oid{id, id, {}})
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestReachableSetCrossesPackBoundary(t *testing.T) {
	db := tempDB(t)

	blobID, err := db.Write(TypeBlob, []byte("packed blob"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	treeID, err := db.WriteTree(&TreeObj{
		Entries: []TreeEntry{{Mode: ModeBlob, Name: "f", ID: blobID}},
	})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if _, err := db.GC(); err != nil {
		t.Fatalf("GC: %v", err)
	}

	// A fresh loose commit referencing the packed tree.
	tipID := writeTestCommit(t, db, treeID, nil, "after gc\n")

	got, err := db.ReachableSet([]Oid{tipID})
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}
	for _, id := range []Oid{tipID, treeID, blobID} {
		if _, ok := got[id]; !ok {
			t.Errorf("reachable set missing %s", id)
		}
	}
}
