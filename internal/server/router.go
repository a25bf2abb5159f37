package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/code-lens/internal/config"
	"github.com/sevigo/code-lens/internal/core"
	"github.com/sevigo/code-lens/internal/server/handler"
)

// requestSlack is added on top of the provider budget so a request that ran
// every provider to its deadline can still write the fallback message.
const requestSlack = 10 * time.Second

// NewRouter creates and configures a new HTTP router with middleware and API routes.
func NewRouter(cfg *config.Config, reviewer core.Reviewer, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.ReviewBudget() + requestSlack))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	reviewHandler := handler.NewReviewHandler(reviewer, cfg.Server.MaxRequestBytes, logger)
	r.Route("/api", func(r chi.Router) {
		r.Post("/review", reviewHandler.Handle)
		r.Get("/providers", reviewHandler.Providers)
	})

	return r
}
