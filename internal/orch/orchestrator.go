package orch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mediaagent/pkg/eventlog"
	"mediaagent/pkg/logx"
	"mediaagent/pkg/metrics"
	"mediaagent/pkg/planner"
	"mediaagent/pkg/proto"
	"mediaagent/pkg/qc"
	"mediaagent/pkg/utils"
)

// DefaultMaxAttempts bounds Plan, Execute, Verify cycles per run.
const DefaultMaxAttempts = 3

// Stage names used for metrics.
const (
	stageInventory = "inventory"
	stageAnalyze   = "analyze"
	stagePlan      = "plan"
	stageExecute   = "execute"
	stageVerify    = "verify"
)

// Analyzer decides feasibility.
type Analyzer interface {
	Analyze(ctx context.Context, req proto.RequirementsDocument, inv proto.FileInventory) (proto.FeasibilityVerdict, error)
}

// Planner produces a plan for one attempt.
type Planner interface {
	Plan(ctx context.Context, in *planner.Input) (proto.Plan, error)
}

// Executor runs a plan.
type Executor interface {
	Execute(ctx context.Context, plan *proto.Plan) ([]proto.ExecutionResult, error)
}

// Verifier judges an attempt.
type Verifier interface {
	Verify(ctx context.Context, in *qc.Input) (proto.QCVerdict, error)
}

// Scanner lists the assets directory.
type Scanner interface {
	Scan(ctx context.Context) (proto.FileInventory, error)
}

// Stages are the collaborators of a run. All are required.
type Stages struct {
	Analyzer Analyzer
	Planner  Planner
	Executor Executor
	Verifier Verifier
	Scanner  Scanner
}

// ErrMissingStage is returned by New when a collaborator is nil.
var ErrMissingStage = errors.New("orchestrator stage not configured")

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = metrics.OrNop(r) }
}

// WithTranscript sets the run transcript. A nil writer discards events.
func WithTranscript(w *eventlog.Writer) Option {
	return func(o *Orchestrator) { o.transcript = w }
}

// WithRunID fixes the run ID instead of generating one.
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// WithScratchDir names the scratch folder shown to the verifier.
func WithScratchDir(dir string) Option {
	return func(o *Orchestrator) { o.scratchDir = dir }
}

// Orchestrator owns the attempt state of a single run.
type Orchestrator struct {
	stages      Stages
	maxAttempts int
	recorder    metrics.Recorder
	transcript  *eventlog.Writer
	runID       string
	scratchDir  string
	logger      *logx.Logger

	state   proto.State
	outcome *Outcome
}

// New creates an orchestrator. maxAttempts <= 0 selects DefaultMaxAttempts.
func New(stages Stages, maxAttempts int, opts ...Option) (*Orchestrator, error) {
	switch {
	case stages.Analyzer == nil:
		return nil, fmt.Errorf("%w: analyzer", ErrMissingStage)
	case stages.Planner == nil:
		return nil, fmt.Errorf("%w: planner", ErrMissingStage)
	case stages.Executor == nil:
		return nil, fmt.Errorf("%w: executor", ErrMissingStage)
	case stages.Verifier == nil:
		return nil, fmt.Errorf("%w: verifier", ErrMissingStage)
	case stages.Scanner == nil:
		return nil, fmt.Errorf("%w: scanner", ErrMissingStage)
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	o := &Orchestrator{
		stages:      stages,
		maxAttempts: maxAttempts,
		recorder:    metrics.NopRecorder{},
		logger:      logx.NewLogger("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.runID == "" {
		o.runID = utils.NewRunID()
	}
	return o, nil
}

// RunID returns the ID used for the transcript and the outcome.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Run executes the workflow to a terminal state. Stage failures are reported
// through Outcome.Err with Kind ERROR.
func (o *Orchestrator) Run(ctx context.Context, req proto.RequirementsDocument) *Outcome {
	o.state = proto.StateAnalyzing
	o.outcome = &Outcome{RunID: o.runID}
	o.logger.Info("run %s started (max attempts %d)", utils.ShortID(o.runID), o.maxAttempts)

	out := o.run(ctx, req)
	o.recorder.IncRun(string(out.Kind))
	o.record(eventlog.KindOutcome, out.Attempts, map[string]any{
		"kind":     out.Kind,
		"attempts": out.Attempts,
		"error":    errString(out.Err),
	})

	switch out.Kind {
	case proto.OutcomeSuccess:
		o.logger.Info("run %s succeeded after %d attempt(s)", utils.ShortID(o.runID), out.Attempts)
	case proto.OutcomeError:
		o.logger.Error("run %s failed: %v", utils.ShortID(o.runID), out.Err)
	default:
		o.logger.Warn("run %s ended %s", utils.ShortID(o.runID), out.Kind)
	}
	return out
}

func (o *Orchestrator) run(ctx context.Context, req proto.RequirementsDocument) *Outcome {
	out := o.outcome

	inv, err := o.scan(ctx)
	if err != nil {
		return o.fail(0, fmt.Errorf("initial inventory: %w", err))
	}
	out.FinalInventory = inv

	start := time.Now()
	verdict, err := o.stages.Analyzer.Analyze(ctx, req, inv)
	o.recorder.ObserveStage(stageAnalyze, time.Since(start))
	if err != nil {
		return o.fail(0, err)
	}
	out.Feasibility = &verdict
	o.record(eventlog.KindFeasibility, 0, verdict)

	if !verdict.IsFeasible {
		o.transition(proto.StateTerminatedInfeasible, 0)
		return out
	}
	o.transition(proto.StatePlanning, 1)

	var (
		prior    *proto.QCVerdict
		previous *proto.Plan
	)
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		out.Attempts = attempt
		if err := ctx.Err(); err != nil {
			return o.fail(attempt, fmt.Errorf("run interrupted: %w", err))
		}

		start = time.Now()
		plan, err := o.stages.Planner.Plan(ctx, &planner.Input{
			Requirements: req,
			Feasibility:  verdict,
			Inventory:    inv,
			Attempt:      attempt,
			MaxAttempts:  o.maxAttempts,
			Prior:        prior,
			Previous:     previous,
		})
		o.recorder.ObserveStage(stagePlan, time.Since(start))
		if err != nil {
			return o.fail(attempt, err)
		}
		o.record(eventlog.KindPlan, attempt, plan)
		o.transition(proto.StateExecuting, attempt)

		start = time.Now()
		results, err := o.stages.Executor.Execute(ctx, &plan)
		o.recorder.ObserveStage(stageExecute, time.Since(start))
		for i := range results {
			o.record(eventlog.KindResult, attempt, results[i])
		}
		if err != nil {
			return o.fail(attempt, err)
		}
		if len(results) != len(plan.Steps) {
			return o.fail(attempt, fmt.Errorf("executor returned %d results for %d steps", len(results), len(plan.Steps)))
		}

		inv, err = o.scan(ctx)
		if err != nil {
			return o.fail(attempt, fmt.Errorf("post-execution inventory: %w", err))
		}
		out.FinalInventory = inv
		o.transition(proto.StateVerifying, attempt)

		start = time.Now()
		qcVerdict, err := o.stages.Verifier.Verify(ctx, &qc.Input{
			Requirements: req,
			Results:      results,
			Inventory:    inv,
			ScratchDir:   o.scratchDir,
			Attempt:      attempt,
			MaxAttempts:  o.maxAttempts,
		})
		o.recorder.ObserveStage(stageVerify, time.Since(start))
		if err != nil {
			return o.fail(attempt, err)
		}
		o.record(eventlog.KindVerdict, attempt, qcVerdict)
		out.LastQC = &qcVerdict
		out.Records = append(out.Records, AttemptRecord{Attempt: attempt, Plan: plan, Results: results, Verdict: qcVerdict})

		if qcVerdict.Passed {
			o.transition(proto.StateTerminatedSuccess, attempt)
			return out
		}
		out.History = append(out.History, qcVerdict)

		if attempt == o.maxAttempts {
			break
		}
		o.logger.Warn("attempt %d failed quality check, replanning", attempt)
		o.transition(proto.StatePlanning, attempt+1)
		prior = &qcVerdict
		previous = &plan
	}

	o.transition(proto.StateTerminatedRetriesExhausted, out.Attempts)
	return out
}

func (o *Orchestrator) scan(ctx context.Context) (proto.FileInventory, error) {
	start := time.Now()
	inv, err := o.stages.Scanner.Scan(ctx)
	o.recorder.ObserveStage(stageInventory, time.Since(start))
	return inv, err
}

// fail moves the run to TERMINATED_ERROR from any non-terminal state.
func (o *Orchestrator) fail(attempt int, err error) *Outcome {
	o.transition(proto.StateTerminatedError, attempt)
	o.outcome.Err = err
	return o.outcome
}

func (o *Orchestrator) transition(to proto.State, attempt int) {
	from := o.state
	if !IsValidTransition(from, to) {
		// Only reachable through a programming error in run.
		panic(fmt.Sprintf("invalid transition %s -> %s (allowed: %v)", from, to, ValidNextStates(from)))
	}
	t := Transition{From: from, To: to, Attempt: attempt}
	o.state = to
	if to.IsTerminal() {
		o.outcome.Kind = proto.OutcomeFor(to)
	}
	o.outcome.Transitions = append(o.outcome.Transitions, t)
	o.record(eventlog.KindTransition, attempt, t)
	logx.DebugState(context.Background(), "orchestrator", "transition", string(to), t.String())
}

func (o *Orchestrator) record(kind string, attempt int, payload any) {
	if err := o.transcript.Record(kind, attempt, payload); err != nil {
		o.logger.Warn("failed to record %s event: %v", kind, err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
