// Package executor is the third stage: it runs a plan's commands strictly in
// order and records one result per step.
package executor

import (
	"context"
	"fmt"
	"strings"

	"mediaagent/pkg/exec"
	"mediaagent/pkg/logx"
	"mediaagent/pkg/metrics"
	"mediaagent/pkg/proto"
)

// ResultHook is called after each step, e.g. to append it to the run transcript.
type ResultHook func(index int, result *proto.ExecutionResult)

// Executor runs plans through a Runner.
type Executor struct {
	runner   exec.Runner
	opts     exec.Opts
	recorder metrics.Recorder
	hook     ResultHook
	logger   *logx.Logger
}

// New creates an executor. opts.WorkDir should be the assets directory.
func New(runner exec.Runner, opts exec.Opts, recorder metrics.Recorder) *Executor {
	return &Executor{
		runner:   runner,
		opts:     opts,
		recorder: metrics.OrNop(recorder),
		logger:   logx.NewLogger("executor"),
	}
}

// OnResult registers a hook called after each step.
func (e *Executor) OnResult(hook ResultHook) {
	e.hook = hook
}

// Execute runs every step in order and returns len(plan.Steps) results.
//
// A failed step does not stop execution. A step whose depends_on names a
// step that failed or was skipped is itself skipped and never run. The
// returned error is non-nil only for cancellation or a runner rejecting a
// command; the results so far are returned with it.
func (e *Executor) Execute(ctx context.Context, plan *proto.Plan) ([]proto.ExecutionResult, error) {
	results := make([]proto.ExecutionResult, 0, len(plan.Steps))

	for i := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("execution interrupted before step %d: %w", i+1, err)
		}

		step := plan.Steps[i]
		var result proto.ExecutionResult

		if blocker, blocked := blockedBy(&step, results); blocked {
			result = proto.ExecutionResult{
				Step:     step,
				ExitCode: -1,
				Skipped:  true,
				Stderr:   fmt.Sprintf("skipped: depends on step %d, which did not succeed", blocker),
			}
			e.logger.Warn("step %d/%d skipped: depends on step %d", i+1, len(plan.Steps), blocker)
		} else {
			e.logger.Info("step %d/%d: %s", i+1, len(plan.Steps), step.Description)
			logx.Debug(logx.WithComponent(ctx, "executor"), "exec", "$ %s", step.Command)

			res, err := e.runner.Run(ctx, step.Command, &e.opts)
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
			result = proto.ExecutionResult{
				Step:      step,
				ExitCode:  res.ExitCode,
				Stdout:    res.Stdout,
				Stderr:    res.Stderr,
				Succeeded: res.ExitCode == 0 && !res.TimedOut,
				TimedOut:  res.TimedOut,
				Duration:  res.Duration,
			}
			if !result.Succeeded {
				e.logger.Warn("step %d/%d exited with %d: %s", i+1, len(plan.Steps), res.ExitCode, lastLine(res.Stderr))
			}
		}

		results = append(results, result)
		e.recorder.ObserveCommand(string(result.Status()), result.Duration)
		if e.hook != nil {
			e.hook(i, &results[len(results)-1])
		}
	}

	return results, nil
}

// blockedBy returns the first declared dependency that did not succeed.
func blockedBy(step *proto.CommandStep, results []proto.ExecutionResult) (int, bool) {
	for _, dep := range step.DependsOn {
		if dep < 1 || dep > len(results) {
			continue
		}
		if !results[dep-1].Succeeded {
			return dep, true
		}
	}
	return 0, false
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
