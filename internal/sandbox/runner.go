// Package sandbox executes agent-generated analysis scripts in an isolated
// working directory with a hard timeout.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

// Runner implements core.ScriptRunner with subprocess execution. Scripts
// must live under the workspace root; anything else is refused before a
// process is started.
type Runner struct {
	workspaceRoot string
	interpreter   string
	logger        *logging.Logger
}

// DefaultTimeout bounds script execution when the caller passes zero.
const DefaultTimeout = 30 * time.Second

// NewRunner creates a runner rooted at the given workspace directory.
func NewRunner(workspaceRoot string, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	absRoot, _ := filepath.Abs(workspaceRoot)
	return &Runner{
		workspaceRoot: absRoot,
		interpreter:   "python3",
		logger:        logger,
	}
}

// WithInterpreter overrides the script interpreter.
func (r *Runner) WithInterpreter(interpreter string) *Runner {
	r.interpreter = interpreter
	return r
}

// Run implements core.ScriptRunner. The script's own directory becomes the
// process working directory, so relative output paths stay inside the
// section's isolated area. Non-zero exits are reported through the result,
// not as an error; errors mean the script could not be run at all.
func (r *Runner) Run(ctx context.Context, scriptPath string, timeout time.Duration) (*core.RunResult, error) {
	absPath, err := filepath.Abs(scriptPath)
	if err != nil {
		return nil, core.ErrSection(core.CodeSandboxFailed, fmt.Sprintf("resolving script path: %v", err))
	}
	if !r.pathAllowed(absPath) {
		return nil, core.ErrSection(core.CodeSandboxFailed,
			fmt.Sprintf("script %s is outside the workspace root", scriptPath))
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.interpreter, absPath)
	cmd.Dir = filepath.Dir(absPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	duration := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, core.ErrTimeout(
			fmt.Sprintf("script %s exceeded %s", filepath.Base(absPath), timeout))
	}

	res := &core.RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			r.logger.Warn("script exited non-zero",
				"script", filepath.Base(absPath),
				"exit_code", res.ExitCode,
			)
			return res, nil
		}
		return nil, core.ErrSection(core.CodeSandboxFailed,
			fmt.Sprintf("starting script %s: %v", filepath.Base(absPath), err))
	}

	res.Success = true
	r.logger.Debug("script completed",
		"script", filepath.Base(absPath),
		"duration_ms", duration.Milliseconds(),
	)
	return res, nil
}

func (r *Runner) pathAllowed(absPath string) bool {
	return strings.HasPrefix(absPath, r.workspaceRoot+string(filepath.Separator)) ||
		absPath == r.workspaceRoot
}
