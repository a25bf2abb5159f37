package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key the loader reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "MAX_REQUEST_BYTES", "LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT", "LOG_FILE",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "GEMINI_API_KEY", "GEMINI_MODEL",
		"REMOTE_TIMEOUT", "OLLAMA_MODEL", "OLLAMA_URL", "OLLAMA_COMMAND", "OLLAMA_MODE",
		"OLLAMA_PROMPT_VIA", "LOCAL_TIMEOUT", "LOCAL_MAX_OUTPUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxRequestBytes)
	assert.Empty(t, cfg.Remote.OpenAIAPIKey)
	assert.False(t, cfg.Remote.HasRemote())
	assert.Equal(t, DefaultOpenAIModel, cfg.Remote.OpenAIModel)
	assert.Equal(t, DefaultOpenAIURL, cfg.Remote.OpenAIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "codellama", cfg.Local.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Local.URL)
	assert.Equal(t, "ollama", cfg.Local.Command)
	assert.Equal(t, LocalModeExec, cfg.Local.Mode)
	assert.Equal(t, PromptViaStdin, cfg.Local.PromptVia)
	assert.Equal(t, 60*time.Second, cfg.Local.Timeout)
	assert.Equal(t, int64(10<<20), cfg.Local.MaxOutputBytes)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "OPENAI_API_KEY=from-file\nOLLAMA_MODEL=deepseek-coder\nLOCAL_TIMEOUT=90s\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0600))

	t.Setenv("OLLAMA_MODEL", "qwen2.5-coder")
	t.Setenv("OLLAMA_MODE", "auto")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Remote.OpenAIAPIKey)
	assert.True(t, cfg.Remote.HasRemote())
	assert.Equal(t, "qwen2.5-coder", cfg.Local.Model)
	assert.Equal(t, LocalModeAuto, cfg.Local.Mode)
	assert.Equal(t, 90*time.Second, cfg.Local.Timeout)
}

func TestLoad_InvalidMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_MODE", "docker")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OLLAMA_MODE")
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{Port: "3000", MaxRequestBytes: 1024},
		Remote: RemoteConfig{Timeout: 15 * time.Second, OpenAIBaseURL: DefaultOpenAIURL},
		Local: LocalConfig{
			Model:          "codellama",
			URL:            DefaultOllamaURL,
			Command:        "ollama",
			Mode:           LocalModeExec,
			PromptVia:      PromptViaStdin,
			Timeout:        60 * time.Second,
			MaxOutputBytes: 1024,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "SERVER_PORT"},
		{name: "zero remote timeout", mutate: func(c *Config) { c.Remote.Timeout = 0 }, wantErr: "REMOTE_TIMEOUT"},
		{name: "negative local timeout", mutate: func(c *Config) { c.Local.Timeout = -time.Second }, wantErr: "LOCAL_TIMEOUT"},
		{name: "zero output cap", mutate: func(c *Config) { c.Local.MaxOutputBytes = 0 }, wantErr: "LOCAL_MAX_OUTPUT"},
		{name: "unknown prompt transport", mutate: func(c *Config) { c.Local.PromptVia = "pipe" }, wantErr: "OLLAMA_PROMPT_VIA"},
		{name: "exec without command", mutate: func(c *Config) { c.Local.Command = "" }, wantErr: "OLLAMA_COMMAND"},
		{
			name: "http mode without command",
			mutate: func(c *Config) {
				c.Local.Mode = LocalModeHTTP
				c.Local.Command = ""
			},
		},
		{name: "ollama url without scheme", mutate: func(c *Config) { c.Local.URL = "localhost:11434" }, wantErr: "OLLAMA_URL"},
		{
			name: "bad openai url only checked with key",
			mutate: func(c *Config) {
				c.Remote.OpenAIAPIKey = "sk-test"
				c.Remote.OpenAIBaseURL = "ftp://example.com"
			},
			wantErr: "OPENAI_BASE_URL",
		},
		{name: "bad openai url ignored without key", mutate: func(c *Config) { c.Remote.OpenAIBaseURL = "::" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ReviewBudget(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, 60*time.Second, cfg.ReviewBudget())

	cfg.Remote.OpenAIAPIKey = "sk-test"
	cfg.Remote.GeminiAPIKey = "g-test"
	cfg.Local.Mode = LocalModeAuto
	assert.Equal(t, 150*time.Second, cfg.ReviewBudget())
}
