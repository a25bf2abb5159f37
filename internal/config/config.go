// Package config loads the service configuration from a .env file and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/code-lens/internal/logger"
)

// Local invocation modes.
const (
	LocalModeExec = "exec"
	LocalModeHTTP = "http"
	LocalModeAuto = "auto"
)

// Ways of handing the prompt to the local command.
const (
	PromptViaStdin = "stdin"
	PromptViaFile  = "file"
)

const (
	DefaultOpenAIURL   = "https://api.openai.com/v1/chat/completions"
	DefaultOpenAIModel = "gpt-3.5-turbo"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "codellama"
)

// Config holds the application's configuration values.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Local   LocalConfig   `mapstructure:"local"`
	Logging logger.Config `mapstructure:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            string `mapstructure:"port"`
	MaxRequestBytes int64  `mapstructure:"max_request_bytes"`
}

// RemoteConfig configures the cloud chat-completion providers. A provider is
// only enabled when its API key is set.
type RemoteConfig struct {
	OpenAIAPIKey  string        `mapstructure:"openai_api_key"`
	OpenAIModel   string        `mapstructure:"openai_model"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
	GeminiAPIKey  string        `mapstructure:"gemini_api_key"`
	GeminiModel   string        `mapstructure:"gemini_model"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// LocalConfig configures the locally running Ollama model.
type LocalConfig struct {
	Model          string        `mapstructure:"model"`
	URL            string        `mapstructure:"url"`
	Command        string        `mapstructure:"command"`
	Mode           string        `mapstructure:"mode"`
	PromptVia      string        `mapstructure:"prompt_via"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxOutputBytes int64         `mapstructure:"max_output_bytes"`
}

// HasRemote reports whether any remote credential is configured.
func (r RemoteConfig) HasRemote() bool {
	return r.OpenAIAPIKey != "" || r.GeminiAPIKey != ""
}

// LoadConfig reads configuration from environment variables and a .env file in
// the working directory.
func LoadConfig() (*Config, error) {
	return Load(".env")
}

// Load reads configuration from envFile (if it exists) and the environment,
// applies defaults, and validates the result. Environment variables take
// precedence over the file.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", envFile, err)
			}
			slog.Debug("no config file found, using environment only", "file", envFile)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			MaxRequestBytes: v.GetInt64("MAX_REQUEST_BYTES"),
		},
		Remote: RemoteConfig{
			OpenAIAPIKey:  v.GetString("OPENAI_API_KEY"),
			OpenAIModel:   v.GetString("OPENAI_MODEL"),
			OpenAIBaseURL: v.GetString("OPENAI_BASE_URL"),
			GeminiAPIKey:  v.GetString("GEMINI_API_KEY"),
			GeminiModel:   v.GetString("GEMINI_MODEL"),
			Timeout:       v.GetDuration("REMOTE_TIMEOUT"),
		},
		Local: LocalConfig{
			Model:          v.GetString("OLLAMA_MODEL"),
			URL:            v.GetString("OLLAMA_URL"),
			Command:        v.GetString("OLLAMA_COMMAND"),
			Mode:           v.GetString("OLLAMA_MODE"),
			PromptVia:      v.GetString("OLLAMA_PROMPT_VIA"),
			Timeout:        v.GetDuration("LOCAL_TIMEOUT"),
			MaxOutputBytes: v.GetInt64("LOCAL_MAX_OUTPUT"),
		},
		Logging: logger.Config{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
			File:   v.GetString("LOG_FILE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("MAX_REQUEST_BYTES", 10<<20)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("OPENAI_MODEL", DefaultOpenAIModel)
	v.SetDefault("OPENAI_BASE_URL", DefaultOpenAIURL)
	v.SetDefault("GEMINI_MODEL", DefaultGeminiModel)
	v.SetDefault("REMOTE_TIMEOUT", 15*time.Second)
	v.SetDefault("OLLAMA_MODEL", DefaultOllamaModel)
	v.SetDefault("OLLAMA_URL", DefaultOllamaURL)
	v.SetDefault("OLLAMA_COMMAND", "ollama")
	v.SetDefault("OLLAMA_MODE", LocalModeExec)
	v.SetDefault("OLLAMA_PROMPT_VIA", PromptViaStdin)
	v.SetDefault("LOCAL_TIMEOUT", 60*time.Second)
	v.SetDefault("LOCAL_MAX_OUTPUT", 10<<20)
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT must be set")
	}
	if c.Server.MaxRequestBytes <= 0 {
		return fmt.Errorf("MAX_REQUEST_BYTES must be positive, got %d", c.Server.MaxRequestBytes)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("REMOTE_TIMEOUT must be positive, got %s", c.Remote.Timeout)
	}
	if c.Local.Timeout <= 0 {
		return fmt.Errorf("LOCAL_TIMEOUT must be positive, got %s", c.Local.Timeout)
	}
	if c.Local.MaxOutputBytes <= 0 {
		return fmt.Errorf("LOCAL_MAX_OUTPUT must be positive, got %d", c.Local.MaxOutputBytes)
	}
	if c.Local.Model == "" {
		return fmt.Errorf("OLLAMA_MODEL must not be empty")
	}

	switch c.Local.Mode {
	case LocalModeExec, LocalModeHTTP, LocalModeAuto:
	default:
		return fmt.Errorf("unsupported OLLAMA_MODE %q (want exec, http or auto)", c.Local.Mode)
	}
	switch c.Local.PromptVia {
	case PromptViaStdin, PromptViaFile:
	default:
		return fmt.Errorf("unsupported OLLAMA_PROMPT_VIA %q (want stdin or file)", c.Local.PromptVia)
	}
	if c.Local.Mode != LocalModeHTTP && c.Local.Command == "" {
		return fmt.Errorf("OLLAMA_COMMAND must be set when OLLAMA_MODE is %s", c.Local.Mode)
	}

	if err := validateHTTPURL("OLLAMA_URL", c.Local.URL); err != nil {
		return err
	}
	if c.Remote.OpenAIAPIKey != "" {
		if err := validateHTTPURL("OPENAI_BASE_URL", c.Remote.OpenAIBaseURL); err != nil {
			return err
		}
	}
	return nil
}

// ReviewBudget is the longest a single review can take when every provider in
// the chain runs to its deadline. The HTTP write timeout must exceed it.
func (c *Config) ReviewBudget() time.Duration {
	var budget time.Duration
	if c.Remote.OpenAIAPIKey != "" {
		budget += c.Remote.Timeout
	}
	if c.Remote.GeminiAPIKey != "" {
		budget += c.Remote.Timeout
	}
	budget += c.Local.Timeout
	if c.Local.Mode == LocalModeAuto {
		budget += c.Local.Timeout
	}
	return budget
}

func validateHTTPURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, raw)
	}
	return nil
}
