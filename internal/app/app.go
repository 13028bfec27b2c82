package app

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/carechat-server/internal/config"
	"github.com/vovakirdan/carechat-server/internal/core"
	"github.com/vovakirdan/carechat-server/internal/metrics"
	transporthttp "github.com/vovakirdan/carechat-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *transporthttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) *App {
	opts := []core.Option{core.WithLogger(logger)}

	var m *metrics.Relay
	if cfg.MetricsEnabled {
		m = metrics.New()
		opts = append(opts, core.WithObserver(m))
	}

	hub := core.NewHub(opts...)
	server := transporthttp.NewServer(hub, cfg, logger, m)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		log:             logger,
	}
}

// Handler exposes the HTTP routes, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the hub and the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}

		// Stats is queued behind the disconnects of the closed websocket connections.
		stats, err := a.hub.Stats(shutdownCtx)
		if err != nil {
			return err
		}
		a.log.Info().Int("connections", stats.Connections).Msg("hub drained")
		return <-serverErr
	}
}
