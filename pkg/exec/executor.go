// Package exec runs single shell commands and reports their outcome as data.
// A non-zero exit or a timeout is a result, not an error.
package exec

import (
	"context"
	"time"
)

// Exit codes synthesized by the runner when the command itself never reported one.
const (
	// ExitCodeTimeout matches coreutils timeout(1).
	ExitCodeTimeout = 124
	// ExitCodeNotStarted matches the shell's "command not found".
	ExitCodeNotStarted = 127
)

// Runner executes a single command string.
type Runner interface {
	// Run executes command and waits for it. The returned error is non-nil
	// only when the request itself is invalid (e.g. an empty command).
	Run(ctx context.Context, command string, opts *Opts) (Result, error)

	// Name returns the runner type for logging.
	Name() string
}

// Opts contains options for command execution.
type Opts struct {
	// WorkDir is the working directory for the command.
	WorkDir string

	// Env contains extra environment variables (KEY=VALUE format).
	Env []string

	// Timeout is the maximum duration for the command. Zero disables it.
	Timeout time.Duration

	// OutputCap truncates stdout and stderr to this many bytes. Zero keeps everything.
	OutputCap int
}

// Result contains the result of command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// DefaultOpts returns default execution options.
func DefaultOpts() Opts {
	return Opts{
		Timeout:   10 * time.Minute,
		OutputCap: 16 * 1024,
	}
}
