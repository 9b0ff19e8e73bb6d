package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaagent/internal/mocks"
	"mediaagent/pkg/exec"
	"mediaagent/pkg/metrics"
	"mediaagent/pkg/proto"
)

func plan(steps ...proto.CommandStep) *proto.Plan {
	return &proto.Plan{Steps: steps}
}

func TestExecuteRunsInOrder(t *testing.T) {
	runner := mocks.NewMockRunner()
	e := New(runner, exec.Opts{WorkDir: "/assets"}, nil)

	results, err := e.Execute(context.Background(), plan(
		proto.CommandStep{Command: "mkdir -p temp"},
		proto.CommandStep{Command: "ffmpeg -i a.mp4 temp/b.mp4", DependsOn: []int{1}},
		proto.CommandStep{Command: "ffmpeg -i a.mp4 -frames:v 1 temp/thumb.png"},
	))
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.True(t, proto.AllSucceeded(results))
	assert.Equal(t, []string{"mkdir -p temp", "ffmpeg -i a.mp4 temp/b.mp4", "ffmpeg -i a.mp4 -frames:v 1 temp/thumb.png"}, runner.Commands())
	assert.Equal(t, "/assets", runner.RunCalls[0].Opts.WorkDir)
}

func TestExecuteDoesNotShortCircuit(t *testing.T) {
	runner := mocks.NewMockRunner()
	runner.FailCommandContaining("transcode", 1, "Unknown encoder 'libx265'")

	results, err := New(runner, exec.Opts{}, nil).Execute(context.Background(), plan(
		proto.CommandStep{Command: "ffmpeg transcode"},
		proto.CommandStep{Command: "ffmpeg thumbnail"},
	))
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, proto.StepFailed, results[0].Status())
	assert.Equal(t, 1, results[0].ExitCode)
	assert.Equal(t, proto.StepSucceeded, results[1].Status())
	assert.Len(t, runner.Commands(), 2)
}

func TestExecuteSkipsDependents(t *testing.T) {
	runner := mocks.NewMockRunner()
	runner.FailCommandContaining("step1", 1, "boom")

	results, err := New(runner, exec.Opts{}, nil).Execute(context.Background(), plan(
		proto.CommandStep{Command: "step1"},
		proto.CommandStep{Command: "step2", DependsOn: []int{1}},
		proto.CommandStep{Command: "step3", DependsOn: []int{2}},
		proto.CommandStep{Command: "step4"},
	))
	require.NoError(t, err)

	require.Len(t, results, 4)
	assert.Equal(t, proto.StepFailed, results[0].Status())
	assert.Equal(t, proto.StepSkipped, results[1].Status())
	assert.Equal(t, proto.StepSkipped, results[2].Status(), "a step depending on a skipped step is skipped")
	assert.Equal(t, proto.StepSucceeded, results[3].Status(), "independent steps still run")
	for _, r := range results[1:3] {
		assert.False(t, r.Succeeded)
		assert.Contains(t, r.Stderr, "skipped: depends on step")
	}
	assert.Equal(t, []string{"step1", "step4"}, runner.Commands())
}

func TestExecuteTimeoutIsFailure(t *testing.T) {
	runner := mocks.NewMockRunner()
	runner.OnRun(func(_ context.Context, _ string, _ *exec.Opts) (exec.Result, error) {
		return exec.Result{ExitCode: exec.ExitCodeTimeout, TimedOut: true, Stderr: "command timed out after 10m0s"}, nil
	})

	results, err := New(runner, exec.Opts{}, nil).Execute(context.Background(), plan(proto.CommandStep{Command: "ffmpeg -i huge.mxf out.mp4"}))
	require.NoError(t, err)
	assert.True(t, results[0].TimedOut)
	assert.False(t, results[0].Succeeded)
}

func TestExecuteHookAndMetrics(t *testing.T) {
	rec := metrics.NewPrometheusRecorder()
	e := New(mocks.NewMockRunner(), exec.Opts{}, rec)

	var seen []int
	e.OnResult(func(i int, r *proto.ExecutionResult) {
		seen = append(seen, i)
		assert.True(t, r.Succeeded)
	})

	_, err := e.Execute(context.Background(), plan(proto.CommandStep{Command: "a"}, proto.CommandStep{Command: "b"}))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, seen)
}

func TestExecuteCancelled(t *testing.T) {
	runner := mocks.NewMockRunner()
	ctx, cancel := context.WithCancel(context.Background())
	runner.OnRun(func(_ context.Context, _ string, _ *exec.Opts) (exec.Result, error) {
		cancel()
		return exec.Result{}, nil
	})

	results, err := New(runner, exec.Opts{}, nil).Execute(ctx, plan(proto.CommandStep{Command: "a"}, proto.CommandStep{Command: "b"}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 1)
}

func TestExecuteRunnerError(t *testing.T) {
	runner := mocks.NewMockRunner()
	runner.OnRun(func(_ context.Context, _ string, _ *exec.Opts) (exec.Result, error) {
		return exec.Result{}, errors.New("runner closed")
	})

	_, err := New(runner, exec.Opts{}, nil).Execute(context.Background(), plan(proto.CommandStep{Command: "a"}))
	assert.ErrorContains(t, err, "step 1: runner closed")
}
