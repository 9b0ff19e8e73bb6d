package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/term"

	"mediaagent/internal/orch"
	"mediaagent/pkg/agent"
	"mediaagent/pkg/analyzer"
	"mediaagent/pkg/config"
	"mediaagent/pkg/contract"
	"mediaagent/pkg/eventlog"
	"mediaagent/pkg/exec"
	"mediaagent/pkg/executor"
	"mediaagent/pkg/inventory"
	"mediaagent/pkg/logx"
	"mediaagent/pkg/metrics"
	"mediaagent/pkg/planner"
	"mediaagent/pkg/proto"
	"mediaagent/pkg/qc"
	"mediaagent/pkg/templates"
	"mediaagent/pkg/utils"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorGray  = "\033[90m"
	colorReset = "\033[0m"
)

// app holds the wired run and the resources to release after it.
type app struct {
	orchestrator  *orch.Orchestrator
	transcript    *eventlog.Writer
	metricsServer *http.Server
	runID         string
	assetsDir     string
	logger        *logx.Logger
}

// build wires the stages for one run. On error every resource it already
// started is released.
func build(cfg *config.Config, f *cliFlags, stdin io.Reader) (_ *app, err error) {
	logger := logx.NewLogger("mediaagent")

	assetsDir, err := filepath.Abs(f.assetsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assets directory: %w", err)
	}
	if info, statErr := os.Stat(assetsDir); statErr != nil || !info.IsDir() {
		return nil, fmt.Errorf("assets directory %s does not exist", assetsDir)
	}
	if mkErr := os.MkdirAll(filepath.Join(assetsDir, cfg.ScratchDir), 0o755); mkErr != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", mkErr)
	}

	client, err := agent.NewLLMClient(cfg)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewPrometheusRecorder()
	a := &app{runID: utils.NewRunID(), assetsDir: assetsDir, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()
	if cfg.MetricsAddr != "" {
		a.metricsServer = serveMetrics(cfg.MetricsAddr, recorder, logger)
	}

	if cfg.TranscriptDir != "" {
		dir := cfg.TranscriptDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(assetsDir, dir)
		}
		a.transcript, err = eventlog.NewWriter(dir, a.runID)
		if err != nil {
			return nil, err
		}
	}

	counter, err := utils.NewTokenCounter(cfg.Model)
	if err != nil {
		logger.Warn("token counting falls back to estimates: %v", err)
	}

	opts := contract.Options{
		MaxRepairs:        cfg.MaxRepairs,
		MaxClarifications: cfg.MaxClarifications,
		PromptTokenBudget: cfg.PromptTokenBudget,
		MaxTokens:         cfg.MaxTokens,
		Temperature:       cfg.Temperature,
		Recorder:          recorder,
		Counter:           counter,
	}
	if f.interactive {
		if file, ok := stdin.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			opts.Asker = &recordingAsker{inner: contract.NewStreamAsker(stdin, os.Stderr), transcript: a.transcript, logger: logger}
		} else {
			logger.Warn("-interactive ignored: stdin is not a terminal")
		}
	}
	caller := contract.NewCaller(client, opts)

	runner := exec.NewShellRunner()
	found, missing := exec.LookupTools(cfg.Tools)
	if len(missing) > 0 {
		logger.Warn("tools not installed: %v", missing)
	}
	host := proto.HostFacts{
		OS:           runtime.GOOS,
		Shell:        runner.ShellName(),
		Tools:        found,
		MissingTools: missing,
		AssetsDir:    assetsDir,
		ScratchDir:   cfg.ScratchDir,
	}

	scanOpts := []inventory.Option{}
	if cfg.FFprobe {
		scanOpts = append(scanOpts, inventory.WithProber(inventory.NewFFprobe(runner)))
	}
	if cfg.TranscriptDir != "" && !filepath.IsAbs(cfg.TranscriptDir) {
		scanOpts = append(scanOpts, inventory.WithSkipDirs(cfg.TranscriptDir))
	}

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, err
	}

	runOpts := exec.Opts{WorkDir: assetsDir, Timeout: cfg.CommandTimeout, OutputCap: cfg.OutputCapBytes}
	exe := executor.New(runner, runOpts, recorder)
	exe.OnResult(progressPrinter(term.IsTerminal(int(os.Stderr.Fd()))))

	a.orchestrator, err = orch.New(orch.Stages{
		Analyzer: analyzer.New(caller, renderer, host),
		Planner:  planner.New(caller, renderer, host),
		Executor: exe,
		Verifier: qc.New(caller, renderer, counter),
		Scanner:  inventory.NewScanner(assetsDir, scanOpts...),
	}, cfg.MaxAttempts,
		orch.WithRunID(a.runID),
		orch.WithRecorder(recorder),
		orch.WithTranscript(a.transcript),
		orch.WithScratchDir(cfg.ScratchDir),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the transcript and stops the metrics server.
func (a *app) Close() {
	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("metrics server shutdown: %v", err)
		}
	}
	if err := a.transcript.Close(); err != nil {
		a.logger.Warn("failed to close transcript: %v", err)
	}
}

func serveMetrics(addr string, recorder *metrics.PrometheusRecorder, logger *logx.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server: %v", err)
		}
	}()
	logger.Info("📊 metrics on %s/metrics", addr)
	return srv
}

func progressPrinter(color bool) executor.ResultHook {
	return func(index int, r *proto.ExecutionResult) {
		mark, tint := "✓", colorGreen
		switch r.Status() {
		case proto.StepFailed:
			mark, tint = "✗", colorRed
		case proto.StepSkipped:
			mark, tint = "-", colorGray
		}
		if !color {
			fmt.Fprintf(os.Stderr, "%s step %d: %s\n", mark, index+1, r.Step.Description)
			return
		}
		fmt.Fprintf(os.Stderr, "%s%s%s step %d: %s\n", tint, mark, colorReset, index+1, r.Step.Description)
	}
}

// recordingAsker copies every operator exchange into the transcript.
type recordingAsker struct {
	inner      contract.Asker
	transcript *eventlog.Writer
	logger     *logx.Logger
}

func (r *recordingAsker) Ask(ctx context.Context, role contract.Role, question string) (string, error) {
	answer, err := r.inner.Ask(ctx, role, question)
	if err != nil {
		return "", err
	}
	if err := r.transcript.Record(eventlog.KindQuestion, 0, map[string]string{
		"role":     string(role),
		"question": question,
		"answer":   answer,
	}); err != nil {
		r.logger.Warn("failed to record %s event: %v", eventlog.KindQuestion, err)
	}
	return answer, nil
}
