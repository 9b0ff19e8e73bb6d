package main

import (
	"bytes"
	"context"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mediaagent/pkg/config"
	"mediaagent/pkg/contract"
	"mediaagent/pkg/eventlog"
	"mediaagent/pkg/logx"
	"mediaagent/pkg/metrics"
	"mediaagent/pkg/proto"
)

func TestParseFlags(t *testing.T) {
	f, err := parseFlags(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-assets", "/data/job/", "-max-attempts", "5", "-interactive"})
	require.NoError(t, err)
	assert.Equal(t, "/data/job/requirements.txt", f.requirements)
	assert.Equal(t, 5, f.maxAttempts)
	assert.True(t, f.interactive)
	assert.Equal(t, "mediaagent.yaml", f.configPath)

	f, err = parseFlags(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-requirements", "brief.md"})
	require.NoError(t, err)
	assert.Equal(t, "brief.md", f.requirements)
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.APIKey = "k"

	require.NoError(t, applyOverrides(cfg, &cliFlags{provider: config.ProviderOllama, maxAttempts: 4, metricsAddr: ":9090"}))
	assert.Equal(t, config.ProviderOllama, cfg.Provider)
	assert.Equal(t, config.DefaultModelFor(config.ProviderOllama), cfg.Model)
	assert.Equal(t, 4, cfg.MaxAttempts)
	assert.Equal(t, ":9090", cfg.MetricsAddr)

	require.NoError(t, applyOverrides(cfg, &cliFlags{model: "qwen2.5"}))
	assert.Equal(t, "qwen2.5", cfg.Model)

	assert.Error(t, applyOverrides(cfg, &cliFlags{provider: "mystery"}))
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, 0, exitCodeFor(proto.OutcomeSuccess))
	assert.Equal(t, 2, exitCodeFor(proto.OutcomeInfeasible))
	assert.Equal(t, 3, exitCodeFor(proto.OutcomeRetriesExhausted))
	assert.Equal(t, 1, exitCodeFor(proto.OutcomeError))
}

func TestReadRequirements(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("  cut a clip\n"), 0o644))

	doc, err := readRequirements(path)
	require.NoError(t, err)
	assert.Equal(t, proto.RequirementsDocument("cut a clip"), doc)

	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0o644))
	_, err = readRequirements(path)
	assert.Error(t, err)

	_, err = readRequirements(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestRunFailsWithoutRequirements(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MEDIAAGENT_PROVIDER", config.ProviderOllama)

	assets := t.TempDir()
	var out bytes.Buffer
	code := run(context.Background(), &cliFlags{
		configPath:   filepath.Join(assets, "none.yaml"),
		assetsDir:    assets,
		requirements: filepath.Join(assets, "requirements.txt"),
	}, strings.NewReader(""), &out)
	assert.Equal(t, exitError, code)
	assert.Empty(t, out.String())
}

func TestBuildRejectsMissingAssets(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = config.ProviderOllama
	_, err := build(cfg, &cliFlags{assetsDir: filepath.Join(t.TempDir(), "absent")}, strings.NewReader(""))
	assert.ErrorContains(t, err, "does not exist")
}

func TestBuildWiresRun(t *testing.T) {
	assets := t.TempDir()
	cfg := config.Default()
	cfg.Provider = config.ProviderOllama
	cfg.Model = config.DefaultModelFor(config.ProviderOllama)
	cfg.Tools = []string{"sh"}

	a, err := build(cfg, &cliFlags{assetsDir: assets, interactive: true}, strings.NewReader(""))
	require.NoError(t, err)
	defer a.Close()

	assert.DirExists(t, filepath.Join(assets, cfg.ScratchDir))
	require.NotNil(t, a.transcript)
	assert.FileExists(t, a.transcript.Path())
	assert.Equal(t, a.runID, a.orchestrator.RunID())
}

func TestBuildReleasesResourcesOnError(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	assets := t.TempDir()
	blocker := filepath.Join(assets, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	cfg := config.Default()
	cfg.Provider = config.ProviderOllama
	cfg.Model = config.DefaultModelFor(config.ProviderOllama)
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.TranscriptDir = filepath.Join(blocker, "transcripts")

	_, err := build(cfg, &cliFlags{assetsDir: assets}, strings.NewReader(""))
	assert.ErrorContains(t, err, "log directory")
}

type cannedAsker struct{ answer string }

func (c cannedAsker) Ask(context.Context, contract.Role, string) (string, error) {
	return c.answer, nil
}

func TestRecordingAskerLogsTranscriptFailures(t *testing.T) {
	var buf bytes.Buffer
	logx.SetOutput(&buf)
	t.Cleanup(func() { logx.SetOutput(nil) })

	w, err := eventlog.NewWriter(t.TempDir(), "asker-run")
	require.NoError(t, err)
	asker := &recordingAsker{inner: cannedAsker{answer: "use the 1080p file"}, transcript: w, logger: logx.NewLogger("mediaagent")}

	answer, err := asker.Ask(context.Background(), contract.RolePlanner, "which input?")
	require.NoError(t, err)
	assert.Equal(t, "use the 1080p file", answer)
	assert.Empty(t, buf.String())

	events, err := eventlog.ReadEvents(w.Path())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventlog.KindQuestion, events[0].Kind)

	require.NoError(t, w.Close())
	answer, err = asker.Ask(context.Background(), contract.RolePlanner, "which input?")
	require.NoError(t, err)
	assert.Equal(t, "use the 1080p file", answer)
	assert.Contains(t, buf.String(), "failed to record question event")
}

func TestMetricsServerShutsDown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	recorder := metrics.NewPrometheusRecorder()
	recorder.IncRun(string(proto.OutcomeSuccess))
	logger := logx.NewLogger("test")
	srv := serveMetrics("127.0.0.1:0", recorder, logger)

	a := &app{metricsServer: srv, logger: logger}
	a.Close()
}

func TestMetricsHandlerServesRuns(t *testing.T) {
	recorder := metrics.NewPrometheusRecorder()
	recorder.IncRun(string(proto.OutcomeInfeasible))

	rec := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mediaagent_runs_total{outcome="INFEASIBLE"} 1`)
}
