//go:build !windows

package exec

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestShellRunner_Success(t *testing.T) {
	r := NewShellRunner()
	opts := DefaultOpts()

	result, err := r.Run(context.Background(), "echo hello world", &opts)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello world", strings.TrimSpace(result.Stdout))
	assert.False(t, result.TimedOut)
	assert.Positive(t, result.Duration)
	assert.Equal(t, "shell", r.Name())
}

func TestShellRunner_NonZeroExitIsData(t *testing.T) {
	r := NewShellRunner()

	result, err := r.Run(context.Background(), "echo broken >&2; exit 3", nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.ExitCode)
	assert.Contains(t, result.Stderr, "broken")
}

func TestShellRunner_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := NewShellRunner()
	opts := Opts{Timeout: 100 * time.Millisecond}

	result, err := r.Run(context.Background(), "sleep 5", &opts)
	require.NoError(t, err)

	assert.True(t, result.TimedOut)
	assert.Equal(t, ExitCodeTimeout, result.ExitCode)
	assert.Contains(t, result.Stderr, "timed out")
	assert.Less(t, result.Duration, 5*time.Second)
}

func TestShellRunner_WorkDir(t *testing.T) {
	dir := t.TempDir()
	r := NewShellRunner()
	opts := Opts{WorkDir: dir}

	result, err := r.Run(context.Background(), "mkdir -p temp && echo x > temp/out.txt", &opts)
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)

	_, statErr := os.Stat(filepath.Join(dir, "temp", "out.txt"))
	assert.NoError(t, statErr)
}

func TestShellRunner_MissingWorkDir(t *testing.T) {
	r := NewShellRunner()
	opts := Opts{WorkDir: filepath.Join(t.TempDir(), "nope")}

	result, err := r.Run(context.Background(), "true", &opts)
	require.NoError(t, err)

	assert.Equal(t, ExitCodeNotStarted, result.ExitCode)
	assert.Contains(t, result.Stderr, "working directory does not exist")
}

func TestShellRunner_EmptyCommand(t *testing.T) {
	_, err := NewShellRunner().Run(context.Background(), "   ", nil)
	assert.Error(t, err)
}

func TestShellRunner_Env(t *testing.T) {
	opts := Opts{Env: []string{"CLIP_START=00:00:05"}}

	result, err := NewShellRunner().Run(context.Background(), "echo $CLIP_START", &opts)
	require.NoError(t, err)
	assert.Equal(t, "00:00:05", strings.TrimSpace(result.Stdout))
}

func TestTruncateKeepsTail(t *testing.T) {
	out := truncate("0123456789", 4)
	assert.True(t, strings.HasSuffix(out, "6789"))
	assert.Contains(t, out, "6 bytes truncated")
	assert.Equal(t, "abc", truncate("abc", 0))
}

func TestLookupTools(t *testing.T) {
	found, missing := LookupTools([]string{"sh", "definitely-not-a-real-tool-xyz"})
	assert.Equal(t, []string{"sh"}, found)
	assert.Equal(t, []string{"definitely-not-a-real-tool-xyz"}, missing)
	assert.Equal(t, "/bin/sh -c", NewShellRunner().ShellName())
}
