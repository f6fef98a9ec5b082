// Package cmdexec wraps external command invocation behind a narrow interface
// so probes and fixes are unit-testable with fake runners instead of a real OS.
package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

const (
	defaultTimeout = 10 * time.Second
	maxOutputSize  = 64 * 1024
)

// Output captures one command invocation. A nonzero exit code is not an
// error here; probes routinely interpret exit codes (dnf returns 100 when
// updates are pending). Err is reserved for the command not running at all.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner is the only way probes and fixes touch the OS.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
	// LookPath reports whether a tool is installed, for availability flags.
	LookPath(name string) (string, error)
}

// ExecRunner runs real commands with a bounded wait.
type ExecRunner struct {
	Timeout time.Duration
}

func NewRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ExecRunner{Timeout: timeout}
}

func (e *ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{
		Stdout: limitOutput(stdout.Bytes()),
		Stderr: limitOutput(stderr.Bytes()),
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return out, fmt.Errorf("%s timed out after %s", name, e.Timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, fmt.Errorf("run %s: %w", name, err)
	}
	return out, nil
}

func (e *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func limitOutput(b []byte) string {
	if len(b) > maxOutputSize {
		return string(b[:maxOutputSize]) + "\n[output truncated]"
	}
	return string(b)
}
