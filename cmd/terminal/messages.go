package main

import "github.com/sevigo/code-lens/internal/client"

// Carries the outcome of a review request.
type reviewCompleteMsg struct {
	review string
	err    error
}

// Carries the server's provider chain, or why it could not be fetched.
type providersLoadedMsg struct {
	providers []client.ProviderInfo
	err       error
}
