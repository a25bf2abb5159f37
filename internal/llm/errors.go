package llm

import (
	"fmt"

	"github.com/sevigo/code-lens/internal/core"
)

// StatusError is returned when a remote API answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Provider, e.StatusCode)
}

// Unwrap lets callers match the error against core.ErrUpstreamUnavailable.
func (e *StatusError) Unwrap() error {
	return core.ErrUpstreamUnavailable
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
