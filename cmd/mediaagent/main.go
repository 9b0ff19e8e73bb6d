// Command mediaagent fulfils a plain-language media brief by planning and
// running shell commands over an assets folder, replanning until a quality
// check passes or the attempt ceiling is reached.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mediaagent/pkg/config"
	"mediaagent/pkg/logx"
	"mediaagent/pkg/preflight"
	"mediaagent/pkg/proto"
	"mediaagent/pkg/version"
)

// Process exit codes per outcome.
const (
	exitSuccess          = 0
	exitError            = 1
	exitInfeasible       = 2
	exitRetriesExhausted = 3
)

type cliFlags struct {
	configPath   string
	assetsDir    string
	requirements string
	maxAttempts  int
	provider     string
	model        string
	interactive  bool
	metricsAddr  string
	replayPath   string
	showVersion  bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*cliFlags, error) {
	f := &cliFlags{}
	fs.StringVar(&f.configPath, "config", config.DefaultConfigFile, "Path to the YAML config file")
	fs.StringVar(&f.assetsDir, "assets", "./assets", "Assets directory the commands run in")
	fs.StringVar(&f.requirements, "requirements", "", "Requirements file (default: <assets>/requirements.txt)")
	fs.IntVar(&f.maxAttempts, "max-attempts", 0, "Override max_attempts from the config")
	fs.StringVar(&f.provider, "provider", "", "Override the model provider (google, anthropic, openai, ollama)")
	fs.StringVar(&f.model, "model", "", "Override the model name")
	fs.BoolVar(&f.interactive, "interactive", false, "Answer model questions on the terminal")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	fs.StringVar(&f.replayPath, "replay", "", "Print a recorded run transcript and exit")
	fs.BoolVar(&f.showVersion, "version", false, "Show version information")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.requirements == "" {
		f.requirements = strings.TrimRight(f.assetsDir, "/") + "/requirements.txt"
	}
	return f, nil
}

// applyOverrides lets flags win over the file and environment.
func applyOverrides(cfg *config.Config, f *cliFlags) error {
	if f.provider != "" && f.provider != cfg.Provider {
		cfg.Provider = f.provider
		if f.model == "" {
			cfg.Model = config.DefaultModelFor(f.provider)
		}
		cfg.APIKey = ""
		if config.RequiresAPIKey(f.provider) {
			key, err := config.APIKeyFor(f.provider)
			if err != nil {
				return err
			}
			cfg.APIKey = key
		}
	}
	if f.model != "" {
		cfg.Model = f.model
	}
	if f.maxAttempts > 0 {
		cfg.MaxAttempts = f.maxAttempts
	}
	if f.metricsAddr != "" {
		cfg.MetricsAddr = f.metricsAddr
	}
	return config.Validate(cfg)
}

func exitCodeFor(kind proto.OutcomeKind) int {
	switch kind {
	case proto.OutcomeSuccess:
		return exitSuccess
	case proto.OutcomeInfeasible:
		return exitInfeasible
	case proto.OutcomeRetriesExhausted:
		return exitRetriesExhausted
	default:
		return exitError
	}
}

func readRequirements(path string) (proto.RequirementsDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read requirements: %w", err)
	}
	doc := strings.TrimSpace(string(data))
	if doc == "" {
		return "", fmt.Errorf("requirements file %s is empty", path)
	}
	return proto.RequirementsDocument(doc), nil
}

func main() {
	fs := flag.NewFlagSet("mediaagent", flag.ExitOnError)
	f, err := parseFlags(fs, os.Args[1:])
	if err != nil {
		os.Exit(exitError)
	}
	if f.showVersion {
		fmt.Println(version.String())
		os.Exit(exitSuccess)
	}
	if f.replayPath != "" {
		if err := replayTranscript(f.replayPath, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Replay failed: %v\n", err)
			os.Exit(exitError)
		}
		os.Exit(exitSuccess)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, f, os.Stdin, os.Stdout)
	stop()
	os.Exit(code)
}

// run contains the main application logic and returns an exit code.
// This allows defers to execute before os.Exit is called.
func run(ctx context.Context, f *cliFlags, stdin io.Reader, stdout io.Writer) int {
	logger := logx.NewLogger("mediaagent")

	if err := config.LoadDotEnv(config.DotEnvFile); err != nil {
		logger.Warn("ignoring %s: %v", config.DotEnvFile, err)
	}
	cfg, err := config.Load(f.configPath)
	if err == nil {
		err = applyOverrides(cfg, f)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return exitError
	}

	req, err := readRequirements(f.requirements)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitError
	}

	if err := preflight.Validate(ctx, cfg, f.assetsDir); err != nil {
		fmt.Fprintf(os.Stderr, "Preflight checks failed:\n%v\n", err)
		return exitError
	}

	app, err := build(cfg, f, stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		return exitError
	}
	defer app.Close()

	logger.Info("🚀 Run %s: provider %s, model %s, assets %s", app.runID, cfg.Provider, cfg.Model, app.assetsDir)
	out := app.orchestrator.Run(ctx, req)
	if errors.Is(out.Err, context.Canceled) {
		logger.Warn("interrupted")
	}

	fmt.Fprintln(stdout, out.Summary())
	if app.transcript != nil {
		fmt.Fprintf(stdout, "transcript: %s\n", app.transcript.Path())
	}
	return exitCodeFor(out.Kind)
}
