package main

import (
	"fmt"
	"log/slog"

	goutils "github.com/jkaninda/go-utils"
	"github.com/spf13/cobra"

	"github.com/mfateev/sandbox-agent/internal/config"
	"github.com/mfateev/sandbox-agent/internal/observability"
	"github.com/mfateev/sandbox-agent/internal/sandbox"
	"github.com/mfateev/sandbox-agent/internal/tools"
	"github.com/mfateev/sandbox-agent/internal/tools/handlers"
)

// Flags shared by the prompt and serve-mcp commands.
var (
	flagConfig    string
	flagRoot      string
	flagLogLevel  string
	flagLogFormat string
)

// Flags of the prompt command.
var (
	flagVerbose       bool
	flagProvider      string
	flagModel         string
	flagMaxIterations int
	flagNoMarkdown    bool
	flagNoColor       bool
	flagNoProjectDoc  bool
	flagMetricsFile   string
)

func registerSharedFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&flagConfig, "config", "c", "", "Path to a YAML or JSON config file (env: AGENT_CONFIG)")
	f.StringVar(&flagRoot, "root", "", "Working root for all file and script tools (default: current directory)")
	f.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
}

func registerPromptFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVarP(&flagVerbose, "verbose", "v", false, "Print the prompt, token usage and tool output")
	f.StringVar(&flagProvider, "provider", "", "LLM provider: groq, openai, anthropic")
	f.StringVarP(&flagModel, "model", "m", "", "Model name (default depends on provider)")
	f.IntVar(&flagMaxIterations, "max-iterations", 0, "Maximum model passes per session (default 20)")
	f.BoolVar(&flagNoMarkdown, "no-markdown", false, "Print the answer without markdown rendering")
	f.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	f.BoolVar(&flagNoProjectDoc, "no-project-doc", false, "Do not add AGENTS.md from the root to the system prompt")
	f.StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file at exit")
}

// loadConfig loads the file, environment and .env settings and applies the
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	path := flagConfig
	if path == "" {
		path = goutils.Env(config.EnvConfig, "")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("root") {
		cfg.Root = flagRoot
	}
	if changed("log-level") {
		cfg.Logging.Level = flagLogLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = flagLogFormat
	}
	if changed("provider") {
		cfg.Model.Provider = flagProvider
	}
	if changed("model") {
		cfg.Model.Model = flagModel
	}
	if changed("max-iterations") {
		cfg.MaxIterations = flagMaxIterations
	}
	if changed("metrics-file") {
		cfg.Observability.Metrics.TextfilePath = flagMetricsFile
	}
}

// app holds the components shared by both commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	obs      *observability.Observability
	executor *tools.Executor
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())

	obs, err := observability.New(cfg.Observability)
	if err != nil {
		return nil, err
	}

	root, err := sandbox.NewRoot(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("opening root: %w", err)
	}
	registry, err := handlers.NewDefaultRegistry(cfg.HandlerOptions())
	if err != nil {
		return nil, err
	}

	opts := []tools.ExecutorOption{
		tools.WithLogger(logger),
		tools.WithTracer(obs.TracerOrNoop()),
	}
	if obs.Metrics != nil {
		opts = append(opts, tools.WithRecorder(obs.Metrics))
	}

	logger.Debug("runtime ready", "root", root.Path(), "provider", cfg.Model.Provider, "model", cfg.Model.Model)
	return &app{
		cfg:      cfg,
		logger:   logger,
		obs:      obs,
		executor: tools.NewExecutor(registry, root, opts...),
	}, nil
}
