package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"mediaagent/pkg/exec"
)

// RunCall records one command run.
type RunCall struct {
	Command string
	Opts    exec.Opts
}

// MockRunner implements exec.Runner for testing.
// Default behavior: every command exits 0 with empty output.
type MockRunner struct {
	// RunFunc is called when Run is invoked. Override to customize behavior.
	RunFunc func(ctx context.Context, command string, opts *exec.Opts) (exec.Result, error)

	// RunCalls tracks all calls to Run for verification.
	RunCalls []RunCall

	mu sync.Mutex
}

// NewMockRunner creates a runner where every command succeeds.
func NewMockRunner() *MockRunner {
	m := &MockRunner{}
	m.RunFunc = func(_ context.Context, _ string, _ *exec.Opts) (exec.Result, error) {
		return exec.Result{ExitCode: 0}, nil
	}
	return m
}

// Run implements exec.Runner.
func (m *MockRunner) Run(ctx context.Context, command string, opts *exec.Opts) (exec.Result, error) {
	if strings.TrimSpace(command) == "" {
		return exec.Result{}, fmt.Errorf("command cannot be empty")
	}
	m.mu.Lock()
	call := RunCall{Command: command}
	if opts != nil {
		call.Opts = *opts
	}
	m.RunCalls = append(m.RunCalls, call)
	fn := m.RunFunc
	m.mu.Unlock()
	return fn(ctx, command, opts)
}

// Name implements exec.Runner.
func (m *MockRunner) Name() string {
	return "mock"
}

// Commands returns the commands run so far, in order.
func (m *MockRunner) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.RunCalls))
	for i := range m.RunCalls {
		out = append(out, m.RunCalls[i].Command)
	}
	return out
}

// OnRun sets a custom handler for Run calls.
func (m *MockRunner) OnRun(fn func(ctx context.Context, command string, opts *exec.Opts) (exec.Result, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunFunc = fn
}

// FailCommandContaining makes commands containing substr exit with code and
// stderr. Others succeed.
func (m *MockRunner) FailCommandContaining(substr string, code int, stderr string) {
	m.OnRun(func(_ context.Context, command string, _ *exec.Opts) (exec.Result, error) {
		if strings.Contains(command, substr) {
			return exec.Result{ExitCode: code, Stderr: stderr}, nil
		}
		return exec.Result{ExitCode: 0}, nil
	})
}
