// Package llm contains the providers the review dispatcher can fall back
// through: remote chat-completion APIs and a locally running Ollama model.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sevigo/code-lens/internal/core"
)

const (
	openAITemperature   = 0.7
	maxRemoteBodyBytes  = 10 << 20
	maxErrorBodyPreview = 512
)

// OpenAI calls an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewOpenAI creates an OpenAI provider. The client carries no timeout of its
// own; the dispatcher bounds each attempt through the request context.
func NewOpenAI(apiKey, model, baseURL string, client *http.Client, logger *slog.Logger) *OpenAI {
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Tier() core.Tier { return core.TierRemote }

// Review sends the prompt as a system/user message pair and returns the first
// choice's content unchanged.
func (o *OpenAI) Review(ctx context.Context, prompt core.Prompt) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: openAITemperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %w", core.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sending request: %w", core.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", core.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{
			Provider:   o.Name(),
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), maxErrorBodyPreview),
		}
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: parsing response: %w", core.ErrUpstreamUnavailable, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, errNoChoices)
	}

	o.logger.Debug("openai review completed", "model", o.model, "total_tokens", result.Usage.TotalTokens)
	return result.Choices[0].Message.Content, nil
}

var errNoChoices = errors.New("no choices in response")

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}
