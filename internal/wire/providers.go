package wire

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/wire"

	"github.com/sevigo/code-lens/internal/app"
	"github.com/sevigo/code-lens/internal/config"
	"github.com/sevigo/code-lens/internal/core"
	"github.com/sevigo/code-lens/internal/logger"
	"github.com/sevigo/code-lens/internal/prompt"
	"github.com/sevigo/code-lens/internal/review"
	"github.com/sevigo/code-lens/internal/server"
)

// ReviewerSet builds the review dispatcher from a loaded configuration.
var ReviewerSet = wire.NewSet(
	provideLogger,
	provideHTTPClient,
	prompt.NewManager,
	review.BuildChain,
	review.FallbackFor,
	review.NewDispatcher,
	wire.Bind(new(core.Reviewer), new(*review.Dispatcher)),
)

// AppSet builds the whole HTTP service.
var AppSet = wire.NewSet(
	config.LoadConfig,
	ReviewerSet,
	server.NewServer,
	app.NewApp,
)

func provideLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	w, closeFn, err := logger.OpenWriter(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	l := logger.NewLogger(cfg.Logging, w)
	slog.SetDefault(l)
	return l, closeFn, nil
}

// provideHTTPClient returns the client shared by the HTTP providers. It has no
// overall timeout; every attempt is bounded by the dispatcher's deadline.
func provideHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxConnsPerHost:     10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
