//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/sevigo/code-lens/internal/app"
	"github.com/sevigo/code-lens/internal/config"
	"github.com/sevigo/code-lens/internal/review"
)

// InitializeApp loads the configuration and wires the HTTP service.
func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	wire.Build(AppSet)
	return &app.App{}, nil, nil
}

// InitializeReviewer wires an in-process review dispatcher for cfg.
func InitializeReviewer(ctx context.Context, cfg *config.Config) (*review.Dispatcher, func(), error) {
	wire.Build(ReviewerSet)
	return &review.Dispatcher{}, nil, nil
}
