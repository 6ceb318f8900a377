package handlers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	execout "github.com/mfateev/sandbox-agent/internal/exec"
	"github.com/mfateev/sandbox-agent/internal/execenv"
	"github.com/mfateev/sandbox-agent/internal/tools"
)

// scriptWaitDelay bounds how long Run waits for inherited stdout/stderr
// pipes to close after the script itself was killed.
const scriptWaitDelay = 2 * time.Second

// ScriptConfig configures how run_python_file launches scripts.
type ScriptConfig struct {
	// Interpreter is the command prefix, e.g. ["python3"] or ["uv", "run", "python"].
	Interpreter []string
	// Extension is the required file suffix, ".py" by default.
	Extension string
	// Timeout is the wall-clock limit per script run.
	Timeout time.Duration
	// MaxOutputBytes caps each of stdout and stderr.
	MaxOutputBytes int
	// Env filters the environment passed to the script.
	Env execenv.Policy
}

// DefaultScriptConfig returns python3 with a 30 second timeout.
func DefaultScriptConfig() ScriptConfig {
	return ScriptConfig{
		Interpreter:    []string{"python3"},
		Extension:      tools.DefaultScriptExtension,
		Timeout:        tools.DefaultScriptTimeout,
		MaxOutputBytes: execout.DefaultMaxOutputBytes,
		Env:            execenv.DefaultPolicy(),
	}
}

// RunScriptTool executes a script file from inside the root, with the root
// as working directory.
type RunScriptTool struct {
	cfg ScriptConfig
}

// NewRunScriptTool creates a run_python_file handler. Zero fields of cfg
// fall back to DefaultScriptConfig.
func NewRunScriptTool(cfg ScriptConfig) *RunScriptTool {
	def := DefaultScriptConfig()
	if len(cfg.Interpreter) == 0 {
		cfg.Interpreter = def.Interpreter
	}
	if cfg.Extension == "" {
		cfg.Extension = def.Extension
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = def.MaxOutputBytes
	}
	return &RunScriptTool{cfg: cfg}
}

// Name returns the tool's name.
func (t *RunScriptTool) Name() string {
	return tools.RunScriptToolName
}

// Spec returns the tool declaration.
func (t *RunScriptTool) Spec() tools.ToolSpec {
	return tools.NewRunScriptToolSpec()
}

// IsMutating returns true - scripts can do anything the host user can.
func (t *RunScriptTool) IsMutating(*tools.ToolInvocation) bool {
	return true
}

// Handle runs file_path with args. A non-zero exit is reported in the output
// text, not as a failure; only a timeout or a launch error fails the call.
func (t *RunScriptTool) Handle(ctx context.Context, invocation *tools.ToolInvocation) (*tools.ToolOutput, error) {
	filePath, err := invocation.StringArg("file_path")
	if err != nil {
		return nil, err
	}
	args, err := invocation.StringSliceArg("args")
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
	if !strings.HasSuffix(filePath, t.cfg.Extension) || !strings.HasSuffix(resolved, t.cfg.Extension) {
		return nil, tools.NewValidationErrorf("%q is not a %s file", filePath, t.cfg.Extension)
	}

	runCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	argv := make([]string, 0, len(t.cfg.Interpreter)+len(args))
	argv = append(argv, t.cfg.Interpreter[1:]...)
	argv = append(argv, resolved)
	argv = append(argv, args...)

	cmd := exec.CommandContext(runCtx, t.cfg.Interpreter[0], argv...)
	cmd.Dir = invocation.Root.Path()
	cmd.Env = t.cfg.Env.Environ()
	cmd.WaitDelay = scriptWaitDelay
	killProcessGroupOnCancel(cmd)

	stdout := execout.NewCappedBuffer(t.cfg.MaxOutputBytes)
	stderr := execout.NewCappedBuffer(t.cfg.MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("running %q: %w", filePath, ctx.Err())
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &tools.ExecutionTimeoutError{Path: filePath, Timeout: t.cfg.Timeout}
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("executing %q: %w", filePath, runErr)
		}
		exitCode = exitErr.ExitCode()
	}

	return tools.NewSuccessOutput(formatScriptOutput(stdout, stderr, exitCode)), nil
}

func formatScriptOutput(stdout, stderr *execout.CappedBuffer, exitCode int) string {
	var parts []string
	if stdout.Len() > 0 {
		parts = append(parts, "STDOUT:\n"+stdout.String())
	}
	if stderr.Len() > 0 {
		parts = append(parts, "STDERR:\n"+stderr.String())
	}
	if exitCode != 0 {
		parts = append(parts, fmt.Sprintf("Process exited with code %d", exitCode))
	}
	if len(parts) == 0 {
		return "No output produced."
	}
	return strings.Join(parts, "\n")
}
