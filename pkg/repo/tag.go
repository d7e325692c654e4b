package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davinirjr/pygit2/pkg/object"
)

// CreateTag creates or updates a lightweight tag ref under refs/tags/.
func (r *Repository) CreateTag(name string, target object.Oid, force bool) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	if target.IsZero() {
		return fmt.Errorf("create tag: target id is required")
	}

	refName := "refs/tags/" + name
	if !force {
		if _, err := r.ResolveRef(refName); err == nil {
			return fmt.Errorf("create tag: tag %q already exists", name)
		}
	}
	if err := r.UpdateRef(refName, target); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// CreateAnnotatedTag writes a tag object pointing at target and creates or
// updates a tag ref pointing at the tag object.
func (r *Repository) CreateAnnotatedTag(name string, target object.Oid, tagger object.Signature, message string, force bool) (object.Oid, error) {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return object.Oid{}, fmt.Errorf("create annotated tag: %w", err)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return object.Oid{}, fmt.Errorf("create annotated tag: message is required")
	}
	if tagger.Name == "" {
		tagger.Name = "unknown"
	}

	targetType, _, err := r.odb.Read(target)
	if err != nil {
		return object.Oid{}, fmt.Errorf("create annotated tag: read target %s: %w", target, err)
	}

	refName := "refs/tags/" + name
	if !force {
		if _, err := r.ResolveRef(refName); err == nil {
			return object.Oid{}, fmt.Errorf("create annotated tag: tag %q already exists", name)
		}
	}

	payload := fmt.Sprintf(
		"object %s\n"+
			"type %s\n"+
			"tag %s\n"+
			"tagger %s\n\n"+
			"%s\n",
		target,
		targetType,
		name,
		tagger,
		message,
	)
	tagID, err := r.odb.Write(object.TypeTag, []byte(payload))
	if err != nil {
		return object.Oid{}, fmt.Errorf("create annotated tag: write tag object: %w", err)
	}

	if err := r.UpdateRef(refName, tagID); err != nil {
		return object.Oid{}, fmt.Errorf("create annotated tag: %w", err)
	}
	return tagID, nil
}

// DeleteTag removes a tag ref from refs/tags/. The tag object, if any,
// stays in the database until collected.
func (r *Repository) DeleteTag(name string) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	refPath := filepath.Join(r.dir, "refs", "tags", filepath.FromSlash(name))
	if err := os.Remove(refPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete tag: tag %q does not exist", name)
		}
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// ResolveTag resolves a tag name under refs/tags/.
func (r *Repository) ResolveTag(name string) (object.Oid, error) {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return object.Oid{}, fmt.Errorf("resolve tag: %w", err)
	}
	return r.ResolveRef("refs/tags/" + name)
}

// ListTags lists tag names sorted alphabetically.
func (r *Repository) ListTags() ([]string, error) {
	refs, err := r.ListRefs("tags")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	names := make([]string, 0, len(refs))
	for full := range refs {
		names = append(names, strings.TrimPrefix(full, "tags/"))
	}
	sort.Strings(names)
	return names, nil
}

func validateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("tag name is required")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	if strings.ContainsAny(name, " \t\n\r") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	return nil
}
