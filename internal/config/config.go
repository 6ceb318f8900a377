// Package config loads agent configuration from an optional YAML or JSON
// file, a .env file and environment variables. Command-line flags are
// applied on top by the caller, followed by Validate.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	goutils "github.com/jkaninda/go-utils"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mfateev/sandbox-agent/internal/execenv"
	"github.com/mfateev/sandbox-agent/internal/llm"
	"github.com/mfateev/sandbox-agent/internal/models"
	"github.com/mfateev/sandbox-agent/internal/tools"
	"github.com/mfateev/sandbox-agent/internal/tools/handlers"
)

// Environment variables consulted by Load.
const (
	EnvRoot     = "AGENT_ROOT"
	EnvProvider = "AGENT_PROVIDER"
	EnvModel    = "AGENT_MODEL"
	EnvConfig   = "AGENT_CONFIG"
)

// DefaultMaxIterations bounds the number of model passes per session.
const DefaultMaxIterations = 20

// Config is the root configuration.
type Config struct {
	// Root is the working root. Default: current directory.
	Root string `json:"root" yaml:"root"`
	// MaxIterations bounds model passes per session. Default: 20.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
	// Instructions replaces the built-in base prompt when set.
	Instructions string `json:"instructions,omitempty" yaml:"instructions,omitempty"`

	Model         models.ModelConfig  `json:"model" yaml:"model"`
	LLM           LLMConfig           `json:"llm" yaml:"llm"`
	Tools         ToolsConfig         `json:"tools" yaml:"tools"`
	Logging       LoggingConfig       `json:"logging" yaml:"logging"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

// LLMConfig configures the provider client.
type LLMConfig struct {
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`   // Default: provider key variable, e.g. GROQ_API_KEY.
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"` // OpenAI-compatible endpoint override.
	MaxRetries int    `json:"max_retries" yaml:"max_retries"`               // SDK-level retries per call. Default: 2.
}

// ToolsConfig configures the sandboxed tools.
type ToolsConfig struct {
	MaxFileChars int          `json:"max_file_chars" yaml:"max_file_chars"` // Default: 10000.
	Script       ScriptConfig `json:"script" yaml:"script"`
}

// ScriptConfig configures run_python_file.
type ScriptConfig struct {
	Interpreter    []string       `json:"interpreter" yaml:"interpreter"`           // Default: ["python3"].
	Extension      string         `json:"extension" yaml:"extension"`               // Default: ".py".
	TimeoutSeconds int            `json:"timeout_seconds" yaml:"timeout_seconds"`   // Default: 30.
	MaxOutputBytes int            `json:"max_output_bytes" yaml:"max_output_bytes"` // Per stream. Default: 64 KiB.
	Env            execenv.Policy `json:"env" yaml:"env"`
}

// Timeout returns the script timeout as a duration.
func (s ScriptConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error. Default: warn.
	Format string `json:"format" yaml:"format"` // text or json. Default: text.
}

// ObservabilityConfig groups metrics and tracing. Both are off by default.
type ObservabilityConfig struct {
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	TextfilePath string `json:"textfile_path,omitempty" yaml:"textfile_path,omitempty"` // Written at exit when set.
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`         // OTLP endpoint, e.g. "localhost:4317"
	Protocol    string  `json:"protocol" yaml:"protocol"`         // "grpc" or "http". Default: "grpc"
	ServiceName string  `json:"service_name" yaml:"service_name"` // Default: "sandbox-agent"
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"`   // 0.0-1.0. Default: 1.0
	Insecure    bool    `json:"insecure" yaml:"insecure"`
}

// Default returns the built-in configuration. Model.Model is left empty so
// that it follows the provider until Validate fills it in.
func Default() *Config {
	model := models.DefaultModelConfig()
	model.Model = ""
	return &Config{
		Root:          ".",
		MaxIterations: DefaultMaxIterations,
		Model:         model,
		LLM:           LLMConfig{MaxRetries: 2},
		Tools: ToolsConfig{
			MaxFileChars: tools.DefaultMaxFileChars,
			Script: ScriptConfig{
				Interpreter:    []string{"python3"},
				Extension:      tools.DefaultScriptExtension,
				TimeoutSeconds: int(tools.DefaultScriptTimeout / time.Second),
				MaxOutputBytes: handlers.DefaultScriptConfig().MaxOutputBytes,
				Env:            execenv.DefaultPolicy(),
			},
		},
		Logging: LoggingConfig{Level: "warn", Format: "text"},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none
// are given) without overriding variables already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load builds the configuration: defaults, then the file at path (skipped
// when path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		resolved, err := resolvePath(path)
		if err != nil {
			return nil, fmt.Errorf("resolving config path %s: %w", path, err)
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", resolved, err)
		}
		switch ext := strings.ToLower(filepath.Ext(resolved)); ext {
		case ".json":
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing JSON config %s: %w", resolved, err)
			}
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing YAML config %s: %w", resolved, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Root = goutils.Env(EnvRoot, c.Root)
	c.Model.Provider = goutils.Env(EnvProvider, c.Model.Provider)
	c.Model.Model = goutils.Env(EnvModel, c.Model.Model)
}

// resolvePath expands a leading ~ to the user's home directory.
func resolvePath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// Validate fills derived defaults and rejects unusable settings.
func (c *Config) Validate() error {
	if c.Model.Provider == "" {
		c.Model.Provider = models.ProviderGroq
	}
	if !models.IsKnownProvider(c.Model.Provider) {
		return fmt.Errorf("model.provider %q is not supported (groq, openai, anthropic)", c.Model.Provider)
	}
	if c.Model.Model == "" {
		c.Model.Model = models.DefaultModelForProvider(c.Model.Provider)
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("model.temperature must be between 0 and 2")
	}
	if c.Model.MaxTokens < 0 {
		return fmt.Errorf("model.max_tokens must not be negative")
	}
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative")
	}
	if c.Tools.MaxFileChars <= 0 {
		return fmt.Errorf("tools.max_file_chars must be positive")
	}
	if len(c.Tools.Script.Interpreter) == 0 || strings.TrimSpace(c.Tools.Script.Interpreter[0]) == "" {
		return fmt.Errorf("tools.script.interpreter is required")
	}
	if c.Tools.Script.TimeoutSeconds <= 0 {
		return fmt.Errorf("tools.script.timeout_seconds must be positive")
	}
	if c.Tools.Script.MaxOutputBytes <= 0 {
		return fmt.Errorf("tools.script.max_output_bytes must be positive")
	}
	if ext := c.Tools.Script.Extension; ext != "" && !strings.HasPrefix(ext, ".") {
		return fmt.Errorf("tools.script.extension %q must start with a dot", ext)
	}
	switch c.Tools.Script.Env.Inherit {
	case "", execenv.InheritAll, execenv.InheritNone, execenv.InheritCore:
	default:
		return fmt.Errorf("tools.script.env.inherit %q must be all, none or core", c.Tools.Script.Env.Inherit)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q must be text or json", c.Logging.Format)
	}
	if tr := c.Observability.Tracing; tr.Enabled {
		if tr.Endpoint == "" {
			return fmt.Errorf("observability.tracing.endpoint is required when tracing is enabled")
		}
		if tr.Protocol != "" && tr.Protocol != "grpc" && tr.Protocol != "http" {
			return fmt.Errorf("observability.tracing.protocol %q must be grpc or http", tr.Protocol)
		}
		if tr.SampleRate < 0 || tr.SampleRate > 1 {
			return fmt.Errorf("observability.tracing.sample_rate must be between 0 and 1")
		}
	}
	return nil
}

// HandlerOptions converts the tool settings for handlers.NewDefaultRegistry.
func (c *Config) HandlerOptions() handlers.Options {
	return handlers.Options{
		MaxFileChars: c.Tools.MaxFileChars,
		Script: handlers.ScriptConfig{
			Interpreter:    append([]string(nil), c.Tools.Script.Interpreter...),
			Extension:      c.Tools.Script.Extension,
			Timeout:        c.Tools.Script.Timeout(),
			MaxOutputBytes: c.Tools.Script.MaxOutputBytes,
			Env:            c.Tools.Script.Env,
		},
	}
}

// ClientOptions converts the provider settings for llm.NewClient.
func (c *Config) ClientOptions() llm.ClientOptions {
	return llm.ClientOptions{
		APIKey:     c.LLM.APIKey,
		BaseURL:    c.LLM.BaseURL,
		MaxRetries: c.LLM.MaxRetries,
	}
}
