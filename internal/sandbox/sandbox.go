// Package sandbox confines tool paths to a single working root.
//
// Every filesystem or process tool resolves its path argument through
// Resolve before touching the disk. Containment is decided on canonical
// paths (symlinks followed, ".." collapsed) and compared component-wise,
// so a sibling such as "/work2" is never treated as inside "/work".
//
// This is path containment only. Scripts launched from inside the root run
// with the host's privileges.
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ContainmentError reports a candidate path that resolves outside the root.
// Only the caller-supplied candidate is kept; the resolved location of an
// out-of-bounds target is never exposed.
type ContainmentError struct {
	Path string
}

func (e *ContainmentError) Error() string {
	return fmt.Sprintf("Cannot access %q as it is outside the permitted working directory", e.Path)
}

// IsContainmentError reports whether err (or anything it wraps) is a ContainmentError.
func IsContainmentError(err error) bool {
	var ce *ContainmentError
	return errors.As(err, &ce)
}

// Root is the canonical working directory all tools are confined to.
// The zero value is not usable; build one with NewRoot.
type Root struct {
	path string
}

// NewRoot canonicalizes dir and checks that it is an existing directory.
func NewRoot(dir string) (Root, error) {
	if dir == "" {
		return Root{}, errors.New("working root must not be empty")
	}
	canonical, err := canonicalize(dir)
	if err != nil {
		return Root{}, fmt.Errorf("resolving working root %q: %w", dir, err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return Root{}, fmt.Errorf("working root %q: %w", dir, err)
	}
	if !info.IsDir() {
		return Root{}, fmt.Errorf("working root %q is not a directory", dir)
	}
	return Root{path: canonical}, nil
}

// Path returns the canonical absolute root directory.
func (r Root) Path() string {
	return r.path
}

// Resolve resolves candidate against the root. See the package-level Resolve.
func (r Root) Resolve(candidate string) (string, error) {
	if r.path == "" {
		return "", errors.New("sandbox root is not initialized")
	}
	resolved, err := resolveAgainst(r.path, candidate)
	if err != nil {
		return "", err
	}
	if !contains(r.path, resolved) {
		return "", &ContainmentError{Path: candidate}
	}
	return resolved, nil
}

// Resolve interprets candidate relative to root (or as given when absolute),
// canonicalizes both sides and returns the resolved absolute path when it is
// root itself or lies below it. The candidate does not need to exist.
// An empty candidate resolves to root.
func Resolve(root, candidate string) (string, error) {
	canonicalRoot, err := canonicalize(root)
	if err != nil {
		return "", fmt.Errorf("resolving working root: %w", err)
	}
	return Root{path: canonicalRoot}.Resolve(candidate)
}

func resolveAgainst(root, candidate string) (string, error) {
	target := candidate
	if target == "" {
		target = "."
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	resolved, err := canonicalize(target)
	if err != nil {
		// Symlink loops and unreadable links are rejected like escapes.
		return "", &ContainmentError{Path: candidate}
	}
	return resolved, nil
}

// contains compares path components, never raw string prefixes.
func contains(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// maxSymlinkHops bounds symlink chains, matching the usual kernel limit.
const maxSymlinkHops = 40

// canonicalize returns the absolute, cleaned form of p with every symlink
// along it resolved, including dangling ones. Components that do not exist
// yet are appended unchanged, which lets writes target new files.
func canonicalize(p string) (string, error) {
	return canonicalizeHops(p, 0)
}

func canonicalizeHops(p string, hops int) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	sep := string(filepath.Separator)
	vol := filepath.VolumeName(abs)
	resolved := vol + sep
	parts := strings.Split(strings.Trim(abs[len(vol):], sep), sep)

	for i, part := range parts {
		if part == "" {
			continue
		}
		next := filepath.Join(resolved, part)
		info, err := os.Lstat(next)
		if err != nil {
			// Missing (or unreadable) from here on: nothing below can be a
			// symlink we could follow, so the rest is taken lexically.
			return filepath.Join(append([]string{resolved}, parts[i:]...)...), nil
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			resolved = next
			continue
		}
		if hops >= maxSymlinkHops {
			return "", fmt.Errorf("too many levels of symbolic links at %q", next)
		}
		target, err := os.Readlink(next)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(resolved, target)
		}
		resolved, err = canonicalizeHops(target, hops+1)
		if err != nil {
			return "", err
		}
	}
	return resolved, nil
}
