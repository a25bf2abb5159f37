package review

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sevigo/code-lens/internal/config"
	"github.com/sevigo/code-lens/internal/llm"
)

// BuildChain assembles the fallback chain described by cfg: remote providers
// whose credentials are present, then the local Ollama tier.
func BuildChain(ctx context.Context, cfg *config.Config, client *http.Client, logger *slog.Logger) ([]Step, error) {
	var steps []Step

	if cfg.Remote.OpenAIAPIKey != "" {
		steps = append(steps, Step{
			Provider: llm.NewOpenAI(cfg.Remote.OpenAIAPIKey, cfg.Remote.OpenAIModel, cfg.Remote.OpenAIBaseURL, client, logger),
			Timeout:  cfg.Remote.Timeout,
		})
	}

	if cfg.Remote.GeminiAPIKey != "" {
		gemini, err := llm.NewGemini(ctx, cfg.Remote.GeminiAPIKey, cfg.Remote.GeminiModel)
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{Provider: gemini, Timeout: cfg.Remote.Timeout})
	}

	if cfg.Local.Mode == config.LocalModeHTTP || cfg.Local.Mode == config.LocalModeAuto {
		ollamaHTTP, err := llm.NewOllamaHTTP(cfg.Local.URL, cfg.Local.Model, client, logger)
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{Provider: ollamaHTTP, Timeout: cfg.Local.Timeout})
	}

	if cfg.Local.Mode == config.LocalModeExec || cfg.Local.Mode == config.LocalModeAuto {
		var opts []llm.OllamaExecOption
		if cfg.Local.PromptVia == config.PromptViaFile {
			opts = append(opts, llm.WithPromptFile(""))
		}
		steps = append(steps, Step{
			Provider: llm.NewOllamaExec(cfg.Local.Command, cfg.Local.Model, cfg.Local.MaxOutputBytes, logger, opts...),
			Timeout:  cfg.Local.Timeout,
		})
	}

	if len(steps) == 0 {
		return nil, fmt.Errorf("no review providers configured for OLLAMA_MODE %q", cfg.Local.Mode)
	}

	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Provider.Name())
	}
	logger.Info("review provider chain ready", "providers", names)
	return steps, nil
}

// FallbackFor returns the troubleshooting details for cfg.
func FallbackFor(cfg *config.Config) Fallback {
	return Fallback{Model: cfg.Local.Model, URL: cfg.Local.URL}
}
