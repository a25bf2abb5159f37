// Package app holds the assembled Code-Lens service and controls its
// lifecycle.
package app

import (
	"log/slog"

	"github.com/sevigo/code-lens/internal/config"
	"github.com/sevigo/code-lens/internal/core"
	"github.com/sevigo/code-lens/internal/server"
)

// App holds the main application components.
type App struct {
	Cfg      *config.Config
	Reviewer core.Reviewer
	server   *server.Server
	logger   *slog.Logger
}

// NewApp bundles the already-wired components.
func NewApp(cfg *config.Config, reviewer core.Reviewer, srv *server.Server, logger *slog.Logger) *App {
	return &App{
		Cfg:      cfg,
		Reviewer: reviewer,
		server:   srv,
		logger:   logger,
	}
}

// Start runs the HTTP server and blocks until it stops.
func (a *App) Start() error {
	names := make([]string, 0)
	for _, p := range a.Reviewer.Providers() {
		names = append(names, p.Name)
	}
	a.logger.Info("starting Code-Lens",
		"server_port", a.Cfg.Server.Port,
		"providers", names,
		"local_model", a.Cfg.Local.Model,
	)

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly, letting in-flight reviews finish.
func (a *App) Stop() error {
	a.logger.Info("shutting down Code-Lens services")

	if err := a.server.Stop(); err != nil {
		a.logger.Error("error during HTTP server shutdown", "error", err)
		return err
	}

	a.logger.Info("Code-Lens stopped successfully")
	return nil
}
