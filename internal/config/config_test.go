package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfateev/sandbox-agent/internal/execenv"
	"github.com/mfateev/sandbox-agent/internal/models"
)

func clearAgentEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvRoot, EnvProvider, EnvModel, EnvConfig} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearAgentEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
	assert.Equal(t, models.ProviderGroq, cfg.Model.Provider)
	assert.Equal(t, models.DefaultModelForProvider(models.ProviderGroq), cfg.Model.Model)
	assert.Equal(t, 30*time.Second, cfg.Tools.Script.Timeout())
	assert.Equal(t, []string{"python3"}, cfg.Tools.Script.Interpreter)
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	clearAgentEnv(t)
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
root: ./calculator
max_iterations: 5
model:
  provider: openai
  temperature: 0.5
tools:
  max_file_chars: 500
  script:
    interpreter: ["uv", "run", "python"]
    timeout_seconds: 10
    env:
      inherit: core
      set:
        PYTHONUNBUFFERED: "1"
observability:
  metrics:
    enabled: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./calculator", cfg.Root)
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.Equal(t, 0.5, cfg.Model.Temperature)
	assert.Equal(t, ".py", cfg.Tools.Script.Extension, "unset keys keep defaults")
	assert.True(t, cfg.Observability.Metrics.Enabled)

	t.Setenv(EnvRoot, "/srv/work")
	t.Setenv(EnvModel, "gpt-4o")
	cfg, err = Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/srv/work", cfg.Root)
	assert.Equal(t, "gpt-4o", cfg.Model.Model)
	assert.Equal(t, models.ProviderOpenAI, cfg.Model.Provider)

	opts := cfg.HandlerOptions()
	assert.Equal(t, 500, opts.MaxFileChars)
	assert.Equal(t, []string{"uv", "run", "python"}, opts.Script.Interpreter)
	assert.Equal(t, 10*time.Second, opts.Script.Timeout)
	assert.Equal(t, execenv.InheritCore, opts.Script.Env.Inherit)
	assert.Equal(t, "1", opts.Script.Env.Set["PYTHONUNBUFFERED"])
}

func TestLoad_JSONFile(t *testing.T) {
	clearAgentEnv(t)
	path := filepath.Join(t.TempDir(), "agent.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"model": {"provider": "anthropic"}}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, models.DefaultModelForProvider(models.ProviderAnthropic), cfg.Model.Model)
}

func TestLoad_Errors(t *testing.T) {
	clearAgentEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root: [unterminated"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"provider":    func(c *Config) { c.Model.Provider = "bedrock" },
		"iterations":  func(c *Config) { c.MaxIterations = 0 },
		"interpreter": func(c *Config) { c.Tools.Script.Interpreter = nil },
		"timeout":     func(c *Config) { c.Tools.Script.TimeoutSeconds = 0 },
		"extension":   func(c *Config) { c.Tools.Script.Extension = "py" },
		"inherit":     func(c *Config) { c.Tools.Script.Env.Inherit = "some" },
		"format":      func(c *Config) { c.Logging.Format = "xml" },
		"tracing":     func(c *Config) { c.Observability.Tracing.Enabled = true },
		"temperature": func(c *Config) { c.Model.Temperature = 3 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SANDBOX_AGENT_TEST_VAR=from-dotenv\n"), 0o644))
	t.Setenv("SANDBOX_AGENT_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("SANDBOX_AGENT_TEST_VAR"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-dotenv", os.Getenv("SANDBOX_AGENT_TEST_VAR"))
}
