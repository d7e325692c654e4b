package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/davinirjr/pygit2/pkg/object"
	"github.com/davinirjr/pygit2/pkg/repo"
)

// runCommand executes a freshly constructed command and fails the test if
// it errors.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()

	out, err := runCommandErr(cmd, args...)
	if err != nil {
		t.Fatalf("command failed (%v): %v\noutput:\n%s", args, err, out)
	}
	return out
}

func runCommandErr(cmd *cobra.Command, args ...string) (string, error) {
	cmd.SetArgs(args)

	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)

	err := cmd.Execute()
	return output.String(), err
}

// initTestRepo creates a repository in a temp dir and closes it again so
// commands can reopen it.
func initTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	r, err := repo.Init(dir)
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return dir
}

// seedCommit stores a blob, a tree holding it, and a commit on
// refs/heads/main. An existing main becomes the new commit's parent.
func seedCommit(t *testing.T, dir, fileName, content, message string) (commitHex, treeHex, blobHex string) {
	t.Helper()

	r, err := repo.Open(dir)
	if err != nil {
		t.Fatalf("repo.Open: %v", err)
	}
	defer r.Close()

	blobID, err := r.Odb().Write(object.TypeBlob, []byte(content))
	if err != nil {
		t.Fatalf("write blob: %v", err)
	}

	tree, err := repo.NewTree(r)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	if _, err := tree.AddEntry(blobID.String(), fileName, object.ModeBlob); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	treeID, err := tree.Write()
	if err != nil {
		t.Fatalf("write tree: %v", err)
	}

	c, err := repo.NewCommit(r)
	if err != nil {
		t.Fatalf("NewCommit: %v", err)
	}
	c.SetTree(treeID)
	sig := object.Signature{Name: "Tester", Email: "tester@example.com", When: 1288483550}
	c.SetAuthor(sig)
	c.SetCommitter(sig)
	c.SetMessage(message + "\n")
	if parent, err := r.ResolveRef("refs/heads/main"); err == nil {
		c.AddParent(parent)
	}
	commitID, err := c.Write()
	if err != nil {
		t.Fatalf("write commit: %v", err)
	}
	if err := r.UpdateRef("refs/heads/main", commitID); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	return commitID.String(), treeID.String(), blobID.String()
}

func nonEmptyLines(s string) []string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
