package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sevigo/code-lens/internal/client"
)

const providersTimeout = 5 * time.Second

// reviewer is the part of the server API the terminal needs.
type reviewer interface {
	Review(ctx context.Context, code, language string) (string, error)
	Providers(ctx context.Context) ([]client.ProviderInfo, error)
}

func submitReviewCmd(r reviewer, code, language string) tea.Cmd {
	return func() tea.Msg {
		review, err := r.Review(context.Background(), code, language)
		return reviewCompleteMsg{review: review, err: err}
	}
}

func loadProvidersCmd(r reviewer) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), providersTimeout)
		defer cancel()
		providers, err := r.Providers(ctx)
		return providersLoadedMsg{providers: providers, err: err}
	}
}

// maxLoadBytes bounds files opened into the editor.
const maxLoadBytes = 1 << 20

func loadFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > maxLoadBytes {
		return "", fmt.Errorf("%s is larger than %d bytes", path, maxLoadBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
