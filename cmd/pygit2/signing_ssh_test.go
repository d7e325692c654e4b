package main

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/davinirjr/pygit2/pkg/repo"
)

func writeTestSigningKey(t *testing.T) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("MarshalPrivateKey: %v", err)
	}
	path := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestCommitTreeCmd_SignThenVerifyCommit(t *testing.T) {
	dir := initTestRepo(t)
	_, treeHex, _ := seedCommit(t, dir, "a.txt", "hello", "seed")
	keyPath := writeTestSigningKey(t)

	cmd := newCommitTreeCmd()
	cmd.SetArgs([]string{"--repo", dir, "-m", "signed work", "--sign-key", keyPath, treeHex})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("commit-tree: %v\nstderr:\n%s", err, stderr.String())
	}
	commitHex := strings.TrimSpace(stdout.String())
	if !strings.Contains(stderr.String(), "signing with "+keyPath) {
		t.Fatalf("stderr %q does not name the key", stderr.String())
	}

	output := runCommand(t, newVerifyCommitCmd(), "--repo", dir, commitHex)
	if !strings.Contains(output, "good signature on "+commitHex[:8]) {
		t.Fatalf("unexpected verify output:\n%s", output)
	}
	if !strings.Contains(output, "signed with ssh-ed25519 ") {
		t.Fatalf("verify output does not name the key type:\n%s", output)
	}
}

func TestVerifyCommitCmd_FailsOnUnsignedCommit(t *testing.T) {
	dir := initTestRepo(t)
	commitHex, _, _ := seedCommit(t, dir, "a.txt", "hello", "unsigned")

	_, err := runCommandErr(newVerifyCommitCmd(), "--repo", dir, commitHex)
	if err == nil {
		t.Fatal("expected error for unsigned commit")
	}
	if !strings.Contains(err.Error(), "no signature") {
		t.Fatalf("error %q does not mention the missing signature", err)
	}
}

func TestVerifySSHCommitSignature_DetectsTampering(t *testing.T) {
	dir := initTestRepo(t)
	keyPath := writeTestSigningKey(t)

	r, err := repo.Open(dir)
	if err != nil {
		t.Fatalf("repo.Open: %v", err)
	}
	defer r.Close()

	signer, _, err := newSSHCommitSigner(keyPath)
	if err != nil {
		t.Fatalf("newSSHCommitSigner: %v", err)
	}

	c, err := repo.NewCommit(r)
	if err != nil {
		t.Fatalf("NewCommit: %v", err)
	}
	c.SetMessage("honest message\n")
	if err := c.Sign(signer); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := verifySSHCommitSignature(c); err != nil {
		t.Fatalf("verify pristine commit: %v", err)
	}

	c.SetMessage("tampered message\n")
	if _, err := verifySSHCommitSignature(c); err == nil {
		t.Fatal("expected verification failure after tampering")
	}
}

func TestResolveSigningKeyPath_ExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	got, err := resolveSigningKeyPath("~/.ssh/custom_key")
	if err != nil {
		t.Fatalf("resolveSigningKeyPath: %v", err)
	}
	want := filepath.Join(home, ".ssh", "custom_key")
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}
