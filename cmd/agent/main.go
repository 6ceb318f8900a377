// Command agent answers a prompt by letting a language model inspect and
// modify files inside a single working directory.
//
// Usage:
//
//	agent "fix the bug in calculator/pkg/calculator.py"
//	agent --verbose --root ./calculator "how does the calculator render results?"
//	agent serve-mcp --root ./calculator
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mfateev/sandbox-agent/internal/workflow"
)

// Process exit codes.
const (
	exitOK           = 0
	exitFailure      = 1
	exitIterationCap = 2
	exitStalled      = 3
)

var rootCmd = &cobra.Command{
	Use:   "agent [prompt]",
	Short: "Answer a prompt using sandboxed file and script tools.",
	Long: `agent sends the prompt to a language model together with four tools:
listing a directory, reading a file, writing a file and running a script.
Every tool is confined to the working root. The conversation ends when the
model answers, or after a bounded number of passes.`,
	Args:          cobra.MinimumNArgs(1),
	RunE:          runPrompt,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	registerSharedFlags(rootCmd)
	registerPromptFlags(rootCmd)
	rootCmd.AddCommand(serveMCPCmd, versionCmd)
}

func main() {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// errReported wraps errors that were already printed to the user.
var errReported = errors.New("reported")

// reportedError carries a session error that has already been rendered.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string        { return e.err.Error() }
func (e *reportedError) Unwrap() error        { return e.err }
func (e *reportedError) Is(target error) bool { return target == errReported }

// exitCode maps a session error to the process exit status.
func exitCode(err error) int {
	var capErr *workflow.IterationCapError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &capErr):
		return exitIterationCap
	case errors.Is(err, workflow.ErrStalled):
		return exitStalled
	default:
		return exitFailure
	}
}
