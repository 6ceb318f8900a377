package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"unicode/utf8"

	"github.com/mfateev/sandbox-agent/internal/tools"
)

// ReadFileTool returns the text of a file inside the root, capped at a
// fixed number of characters.
type ReadFileTool struct {
	maxChars int
}

// NewReadFileTool creates a get_file_content handler. A non-positive
// maxChars uses tools.DefaultMaxFileChars.
func NewReadFileTool(maxChars int) *ReadFileTool {
	if maxChars <= 0 {
		maxChars = tools.DefaultMaxFileChars
	}
	return &ReadFileTool{maxChars: maxChars}
}

// Name returns the tool's name.
func (t *ReadFileTool) Name() string {
	return tools.ReadFileToolName
}

// Spec returns the tool declaration.
func (t *ReadFileTool) Spec() tools.ToolSpec {
	return tools.NewReadFileToolSpec()
}

// IsMutating returns false - reading files doesn't modify the environment.
func (t *ReadFileTool) IsMutating(*tools.ToolInvocation) bool {
	return false
}

// Handle reads the file named by file_path.
func (t *ReadFileTool) Handle(_ context.Context, invocation *tools.ToolInvocation) (*tools.ToolOutput, error) {
	filePath, err := invocation.StringArg("file_path")
	if err != nil {
		return nil, err
	}

	resolved, err := invocation.Root.Resolve(filePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &tools.NotFoundError{Path: filePath}
		}
		return nil, fmt.Errorf("cannot stat %q: %w", filePath, stripPath(err))
	}
	if !info.Mode().IsRegular() {
		return nil, &tools.NotAFileError{Path: filePath}
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("cannot open %q: %w", filePath, stripPath(err))
	}
	defer f.Close()

	// Enough bytes for maxChars runes of any width, plus one more rune.
	limit := int64(t.maxChars+1) * utf8.UTFMax
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", filePath, stripPath(err))
	}

	text, truncated, ok := capRunes(data, t.maxChars)
	if !ok {
		return nil, &tools.DecodeError{Path: filePath}
	}
	if truncated || info.Size() > int64(len(data)) {
		text += fmt.Sprintf("[...File %q truncated at %d characters]", filePath, t.maxChars)
	}
	return tools.NewSuccessOutput(text), nil
}

// capRunes returns the first maxRunes runes of data, whether anything followed
// them, and false if the kept prefix is not valid UTF-8.
func capRunes(data []byte, maxRunes int) (string, bool, bool) {
	pos, count := 0, 0
	for pos < len(data) && count < maxRunes {
		r, size := utf8.DecodeRune(data[pos:])
		if r == utf8.RuneError && size <= 1 {
			return "", false, false
		}
		pos += size
		count++
	}
	return string(data[:pos]), pos < len(data), true
}
