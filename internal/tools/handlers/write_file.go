package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mfateev/sandbox-agent/internal/tools"
)

// WriteFileTool creates or overwrites a file inside the root.
type WriteFileTool struct{}

// NewWriteFileTool creates a new write_file tool handler.
func NewWriteFileTool() *WriteFileTool {
	return &WriteFileTool{}
}

// Name returns the tool's name.
func (t *WriteFileTool) Name() string {
	return tools.WriteFileToolName
}

// Spec returns the tool declaration.
func (t *WriteFileTool) Spec() tools.ToolSpec {
	return tools.NewWriteFileToolSpec()
}

// IsMutating returns true - writing files modifies the environment.
func (t *WriteFileTool) IsMutating(*tools.ToolInvocation) bool {
	return true
}

// Handle writes content to file_path, creating missing parent directories.
// The byte count reported is the encoded length of content.
func (t *WriteFileTool) Handle(_ context.Context, invocation *tools.ToolInvocation) (*tools.ToolOutput, error) {
	filePath, err := invocation.StringArg("file_path")
	if err != nil {
		return nil, err
	}
	content, err := invocation.RawStringArg("content")
	if err != nil {
		return nil, err
	}

	resolved, err := invocation.Root.Resolve(filePath)
	if err != nil {
		return nil, err
	}

	if info, err := os.Stat(resolved); err == nil && !info.Mode().IsRegular() {
		return nil, &tools.NotAFileError{Path: filePath}
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create parent directories for %q: %w", filePath, stripPath(err))
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("cannot write %q: %w", filePath, stripPath(err))
	}

	return tools.NewSuccessOutput(fmt.Sprintf("Successfully wrote to %q (%d bytes written)", filePath, len(content))), nil
}
