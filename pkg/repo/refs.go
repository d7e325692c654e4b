package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/davinirjr/pygit2/pkg/object"
)

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// Head returns the HEAD target: a ref name such as "refs/heads/main" when
// HEAD is symbolic, or a hex identifier when detached.
func (r *Repository) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}

// ResolveRef resolves a ref name to an object identifier.
//
// Resolution order:
//  1. "HEAD" reads HEAD; a symbolic target is resolved recursively, a
//     detached value is parsed as an identifier.
//  2. A name starting with "refs/" reads that file.
//  3. Otherwise "refs/heads/<name>" is tried, then "refs/tags/<name>".
func (r *Repository) ResolveRef(name string) (object.Oid, error) {
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return object.Oid{}, err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		id, err := object.ParseOid(head)
		if err != nil {
			return object.Oid{}, fmt.Errorf("resolve ref \"HEAD\": %w", err)
		}
		return id, nil
	}

	var data []byte
	var err error
	if strings.HasPrefix(name, "refs/") {
		data, err = os.ReadFile(filepath.Join(r.dir, filepath.FromSlash(name)))
	} else {
		data, err = os.ReadFile(filepath.Join(r.dir, "refs", "heads", name))
		if os.IsNotExist(err) {
			data, err = os.ReadFile(filepath.Join(r.dir, "refs", "tags", name))
		}
	}
	if err != nil {
		return object.Oid{}, fmt.Errorf("resolve ref %q: %w", name, err)
	}

	id, err := object.ParseOid(strings.TrimSpace(string(data)))
	if err != nil {
		return object.Oid{}, fmt.Errorf("resolve ref %q: %w", name, err)
	}
	return id, nil
}

// UpdateRef writes an identifier to the named ref file using lockfile plus
// rename semantics. Parent directories are created as needed. Concurrent
// updaters serialize on the lock; a stale lock times out after two seconds.
func (r *Repository) UpdateRef(name string, id object.Oid) error {
	if name == "" {
		return fmt.Errorf("update ref: empty name")
	}
	if id.IsZero() {
		return fmt.Errorf("update ref %q: zero object id", name)
	}

	refPath := filepath.Join(r.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	if _, err := lockFile.WriteString(id.String() + "\n"); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("update ref %q: sync: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false
	return nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}

// ListRefs lists references under refs/. Names are relative to the refs
// root, e.g. "heads/main" or "tags/v1". A non-empty prefix restricts the
// walk to that subtree.
func (r *Repository) ListRefs(prefix string) (map[string]object.Oid, error) {
	root := filepath.Join(r.dir, "refs")
	dir := root
	if strings.TrimSpace(prefix) != "" {
		dir = filepath.Join(root, filepath.FromSlash(prefix))
	}

	refs := make(map[string]object.Oid)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".lock") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		id, err := object.ParseOid(strings.TrimSpace(string(data)))
		if err != nil {
			return fmt.Errorf("ref %s: %w", filepath.ToSlash(rel), err)
		}
		refs[filepath.ToSlash(rel)] = id
		return nil
	})
	if os.IsNotExist(err) {
		return refs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}
