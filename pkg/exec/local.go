package exec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// ShellRunner executes commands through the host shell.
type ShellRunner struct {
	shell     string
	shellFlag string
}

// NewShellRunner creates a runner using /bin/sh -c, or cmd /C on Windows.
func NewShellRunner() *ShellRunner {
	if runtime.GOOS == "windows" {
		return &ShellRunner{shell: "cmd", shellFlag: "/C"}
	}
	return &ShellRunner{shell: "/bin/sh", shellFlag: "-c"}
}

// Name returns the runner type name.
func (r *ShellRunner) Name() string {
	return "shell"
}

// Run executes command and reports exit code, output and timing.
func (r *ShellRunner) Run(ctx context.Context, command string, opts *Opts) (Result, error) {
	if strings.TrimSpace(command) == "" {
		return Result{}, fmt.Errorf("command cannot be empty")
	}
	if opts == nil {
		defaults := DefaultOpts()
		opts = &defaults
	}

	startTime := time.Now()

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if opts.WorkDir != "" {
		if info, err := os.Stat(opts.WorkDir); err != nil || !info.IsDir() {
			return notStarted(fmt.Sprintf("working directory does not exist: %s", opts.WorkDir), startTime), nil
		}
	}

	cmd := exec.CommandContext(runCtx, r.shell, r.shellFlag, command)
	cmd.Dir = opts.WorkDir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	// Children that inherit the pipes must not keep Wait blocked after a kill.
	cmd.WaitDelay = 2 * time.Second

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()

	result := Result{
		Stdout:   truncate(stdoutBuf.String(), opts.OutputCap),
		Stderr:   truncate(stderrBuf.String(), opts.OutputCap),
		Duration: time.Since(startTime),
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		result.ExitCode = ExitCodeTimeout
		result.TimedOut = true
		result.Stderr = appendLine(result.Stderr, fmt.Sprintf("command timed out after %s", opts.Timeout))
	case err == nil:
		result.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// Killed by signal, cancelled, or never started.
			result.ExitCode = ExitCodeNotStarted
			if ctx.Err() != nil {
				result.ExitCode = -1
			}
			result.Stderr = appendLine(result.Stderr, err.Error())
		}
	}

	return result, nil
}

func notStarted(msg string, start time.Time) Result {
	return Result{
		ExitCode: ExitCodeNotStarted,
		Stderr:   msg,
		Duration: time.Since(start),
	}
}

func appendLine(s, line string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s + line
	}
	return s + "\n" + line
}

// truncate keeps the tail of s, where ffmpeg puts the actual error.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return fmt.Sprintf("...[%d bytes truncated]...\n", len(s)-limit) + s[len(s)-limit:]
}
