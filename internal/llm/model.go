package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/code-lens/internal/core"
)

// ModelProvider adapts a goframe llms.Model (Gemini, Ollama over HTTP) to the
// core.Provider interface.
type ModelProvider struct {
	name  string
	tier  core.Tier
	model llms.Model
}

// NewModelProvider wraps model. Remote models get the system persona prepended
// to the prompt; local models get the user prompt alone. Failures are reported as
// core.ErrUpstreamUnavailable for remote tiers and core.ErrLocalInvocation for
// local ones.
func NewModelProvider(name string, tier core.Tier, model llms.Model) *ModelProvider {
	return &ModelProvider{name: name, tier: tier, model: model}
}

func (p *ModelProvider) Name() string { return p.name }

func (p *ModelProvider) Tier() core.Tier { return p.tier }

func (p *ModelProvider) Review(ctx context.Context, prompt core.Prompt) (string, error) {
	input := prompt.User
	if p.tier == core.TierRemote {
		input = prompt.Combined()
	}
	out, err := p.model.Call(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", p.kind(), p.name, err)
	}
	return out, nil
}

func (p *ModelProvider) kind() error {
	if p.tier == core.TierRemote {
		return core.ErrUpstreamUnavailable
	}
	return core.ErrLocalInvocation
}

// NewOllamaHTTP connects to an Ollama server through goframe's client.
func NewOllamaHTTP(serverURL, model string, client *http.Client, logger *slog.Logger) (*ModelProvider, error) {
	m, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
		ollama.WithHTTPClient(client),
		ollama.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return NewModelProvider("ollama-http", core.TierLocal, m), nil
}

// NewGemini creates a remote provider backed by Google's Gemini API.
func NewGemini(ctx context.Context, apiKey, model string) (*ModelProvider, error) {
	m, err := gemini.New(ctx,
		gemini.WithModel(model),
		gemini.WithAPIKey(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return NewModelProvider("gemini", core.TierRemote, m), nil
}
