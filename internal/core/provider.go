package core

import (
	"context"
	"time"
)

// Tier identifies where a provider runs.
type Tier string

const (
	// TierRemote is a third-party chat-completion service reached over HTTPS.
	TierRemote Tier = "remote"
	// TierLocal is a model-serving process running on the same host.
	TierLocal Tier = "local"
)

//go:generate mockgen -destination=../../mocks/mock_provider.go -package=mocks . Provider

// Provider is a single strategy able to turn a prompt into a review. The review
// dispatcher walks an ordered list of providers until one of them succeeds.
type Provider interface {
	// Name returns a short identifier such as "openai" or "ollama-exec".
	Name() string

	// Tier reports whether the provider is remote or local.
	Tier() Tier

	// Review sends the prompt to the backend and returns its raw markdown
	// answer. Implementations must honour ctx cancellation; the dispatcher
	// bounds every attempt with its own deadline.
	Review(ctx context.Context, prompt Prompt) (string, error)
}

// ProviderInfo describes a configured provider together with the time budget
// the dispatcher grants it.
type ProviderInfo struct {
	Name    string        `json:"name"`
	Tier    Tier          `json:"tier"`
	Timeout time.Duration `json:"timeout"`
}

// Reviewer is implemented by the review dispatcher and consumed by the HTTP
// handler and the command-line client.
type Reviewer interface {
	// SubmitReview returns a markdown review for code written in language. The
	// only error it returns is a validation error; every backend failure is
	// converted into an explanatory markdown message.
	SubmitReview(ctx context.Context, code, language string) (string, error)

	// Providers lists the configured fallback chain in the order it is tried.
	Providers() []ProviderInfo

	// Unexpected renders the generic error message returned, as a review,
	// for failures that are neither validation nor provider errors.
	Unexpected(err error) string
}
