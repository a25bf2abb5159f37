// Package review implements the review dispatcher: it renders the prompt and
// walks an ordered chain of LLM providers until one of them produces a review.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/code-lens/internal/core"
	"github.com/sevigo/code-lens/internal/prompt"
)

var errNoProviders = errors.New("no review providers configured")

// Step is one entry of the fallback chain.
type Step struct {
	Provider core.Provider
	Timeout  time.Duration
}

// Fallback carries the details shown in the troubleshooting message when
// every provider failed.
type Fallback struct {
	Model string
	URL   string
}

// Dispatcher implements core.Reviewer. It holds no per-request state and is
// safe for concurrent use.
type Dispatcher struct {
	prompts  *prompt.Manager
	steps    []Step
	fallback Fallback
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher trying steps in order.
func NewDispatcher(prompts *prompt.Manager, steps []Step, fallback Fallback, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		prompts:  prompts,
		steps:    steps,
		fallback: fallback,
		logger:   logger,
	}
}

// SubmitReview returns a markdown review of code. Only a missing code body is
// reported as an error; provider failures produce a troubleshooting message
// and anything unexpected produces a generic error message.
func (d *Dispatcher) SubmitReview(ctx context.Context, code, language string) (review string, err error) {
	if code == "" {
		return "", fmt.Errorf("%w: code is required", core.ErrValidation)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("review panicked", "panic", r)
			review, err = d.Unexpected(fmt.Errorf("%w: %v", core.ErrUnexpected, r)), nil
		}
	}()

	p, err := d.prompts.ReviewPrompt(code, language)
	if err != nil {
		d.logger.Error("failed to render review prompt", "error", err)
		return d.Unexpected(err), nil
	}

	lastErr := errNoProviders
	for i, step := range d.steps {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		out, err := d.attempt(ctx, step, p)
		if err == nil {
			d.logger.Info("review completed",
				"provider", step.Provider.Name(),
				"language", language,
				"attempt", i+1,
			)
			return out, nil
		}

		lastErr = err
		if errors.Is(err, core.ErrUpstreamUnavailable) {
			d.logger.Warn("remote provider failed, falling back", "provider", step.Provider.Name(), "error", err)
		} else {
			d.logger.Error("provider failed", "provider", step.Provider.Name(), "error", err)
		}
	}

	return d.troubleshoot(lastErr), nil
}

// Providers lists the fallback chain in the order it is tried.
func (d *Dispatcher) Providers() []core.ProviderInfo {
	infos := make([]core.ProviderInfo, 0, len(d.steps))
	for _, step := range d.steps {
		infos = append(infos, core.ProviderInfo{
			Name:    step.Provider.Name(),
			Tier:    step.Provider.Tier(),
			Timeout: step.Timeout,
		})
	}
	return infos
}

func (d *Dispatcher) attempt(ctx context.Context, step Step, p core.Prompt) (string, error) {
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := step.Provider.Review(ctx, p)
	d.logger.Debug("provider attempt finished",
		"provider", step.Provider.Name(),
		"duration", time.Since(start),
		"ok", err == nil,
	)
	return out, err
}

func (d *Dispatcher) troubleshoot(cause error) string {
	msg, err := d.prompts.Render(prompt.TroubleshootingKey, prompt.TroubleshootingData{
		Model: d.fallback.Model,
		URL:   d.fallback.URL,
		Error: cause.Error(),
	})
	if err != nil {
		d.logger.Error("failed to render troubleshooting message", "error", err)
		return d.Unexpected(cause)
	}
	return msg
}

func (d *Dispatcher) Unexpected(cause error) string {
	msg, err := d.prompts.Render(prompt.UnexpectedKey, prompt.UnexpectedData{Error: cause.Error()})
	if err != nil {
		return fmt.Sprintf("## Error Processing Request\n\n```\n%s\n```\n", cause)
	}
	return msg
}
