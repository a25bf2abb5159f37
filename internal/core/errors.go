package core

import "errors"

var (
	// ErrValidation marks a malformed review request. It is the only failure
	// surfaced to clients as an error status.
	ErrValidation = errors.New("invalid review request")

	// ErrUpstreamUnavailable marks a failed call to a remote LLM API. The
	// dispatcher logs it and moves on to the next provider.
	ErrUpstreamUnavailable = errors.New("remote LLM unavailable")

	// ErrLocalInvocation marks a failed call to a locally running model.
	ErrLocalInvocation = errors.New("local LLM invocation failed")

	// ErrUnexpected marks anything else, including recovered panics.
	ErrUnexpected = errors.New("unexpected review failure")
)
