// Package handlers implements the sandboxed tools offered to the model.
// Every handler resolves its path argument through the invocation's Root
// before touching the filesystem.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mfateev/sandbox-agent/internal/tools"
)

// emptyDirectoryListing is returned for a directory with no entries.
const emptyDirectoryListing = "(empty directory)"

// ListDirTool lists the direct children of a directory inside the root.
type ListDirTool struct{}

// NewListDirTool creates a new get_files_info tool handler.
func NewListDirTool() *ListDirTool {
	return &ListDirTool{}
}

// Name returns the tool's name.
func (t *ListDirTool) Name() string {
	return tools.ListDirToolName
}

// Spec returns the tool declaration.
func (t *ListDirTool) Spec() tools.ToolSpec {
	return tools.NewListDirToolSpec()
}

// IsMutating returns false - listing directories doesn't modify the environment.
func (t *ListDirTool) IsMutating(*tools.ToolInvocation) bool {
	return false
}

// Handle lists one line per child, sorted by name, in the form
// " - name: file_size=N bytes, is_dir=B".
func (t *ListDirTool) Handle(_ context.Context, invocation *tools.ToolInvocation) (*tools.ToolOutput, error) {
	directory, err := invocation.OptionalStringArg("directory", ".")
	if err != nil {
		return nil, err
	}

	resolved, err := invocation.Root.Resolve(directory)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &tools.NotFoundError{Path: directory}
		}
		return nil, fmt.Errorf("cannot stat %q: %w", directory, stripPath(err))
	}
	if !info.IsDir() {
		return nil, &tools.NotADirectoryError{Path: directory}
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %q: %w", directory, stripPath(err))
	}
	if len(entries) == 0 {
		return tools.NewSuccessOutput(emptyDirectoryListing), nil
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		size, isDir := describeEntry(invocation, resolved, entry)
		lines = append(lines, fmt.Sprintf(" - %s: file_size=%d bytes, is_dir=%t", entry.Name(), size, isDir))
	}
	return tools.NewSuccessOutput(strings.Join(lines, "\n")), nil
}

// describeEntry reports size and directory-ness. Symlinks are followed only
// when their target stays inside the root; otherwise the link itself is
// described.
func describeEntry(invocation *tools.ToolInvocation, dir string, entry fs.DirEntry) (int64, bool) {
	full := filepath.Join(dir, entry.Name())

	if entry.Type()&fs.ModeSymlink != 0 {
		if target, err := invocation.Root.Resolve(full); err == nil {
			if info, err := os.Stat(target); err == nil {
				return info.Size(), info.IsDir()
			}
		}
	}

	info, err := entry.Info()
	if err != nil {
		return 0, entry.IsDir()
	}
	return info.Size(), info.IsDir()
}

// stripPath drops the absolute path os errors embed so messages only carry
// the caller-supplied path.
func stripPath(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
