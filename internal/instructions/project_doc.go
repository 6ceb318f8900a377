// Package instructions assembles the system prompt sent at the start of
// every conversation: base instructions, the declared tool list and any
// project notes found in the working root.
package instructions

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"unicode/utf8"

	"github.com/mfateev/sandbox-agent/internal/sandbox"
)

// ProjectDocFileNames lists the project note files checked at the root of
// the sandbox, in priority order. The first one found wins.
var ProjectDocFileNames = []string{"AGENTS.override.md", "AGENTS.md"}

// MaxProjectDocBytes caps how much of a project note is included.
const MaxProjectDocBytes = 32 * 1024

// LoadProjectDoc returns the first project note found at the top of root,
// the file name it came from, or empty strings when there is none.
// Reads go through the sandbox so a symlinked note cannot pull in content
// from outside the root.
func LoadProjectDoc(root sandbox.Root) (content, name string, err error) {
	for _, candidate := range ProjectDocFileNames {
		resolved, err := root.Resolve(candidate)
		if err != nil {
			if sandbox.IsContainmentError(err) {
				continue
			}
			return "", "", err
		}

		data, err := os.ReadFile(resolved)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", "", fmt.Errorf("error reading %s: %w", candidate, err)
		}
		if !utf8.Valid(data) {
			continue
		}
		if len(data) > MaxProjectDocBytes {
			data = data[:MaxProjectDocBytes]
			for len(data) > 0 && !utf8.Valid(data) {
				data = data[:len(data)-1]
			}
		}
		return string(data), candidate, nil
	}
	return "", "", nil
}
