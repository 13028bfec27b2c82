package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/carechat-server/internal/auth"
	"github.com/vovakirdan/carechat-server/internal/config"
	"github.com/vovakirdan/carechat-server/internal/core"
	"github.com/vovakirdan/carechat-server/internal/metrics"
)

// Hub is the part of core.Hub the transport depends on.
type Hub interface {
	RegisterClient(c *core.Client)
	UnregisterClient(c *core.Client)
	Submit(ctx context.Context, c *core.Client, cmd core.Command) error
	Stats(ctx context.Context) (core.Stats, error)
}

// Server is the HTTP server together with its websocket handler, so shutdown
// can close the hijacked websocket connections too.
type Server struct {
	*stdhttp.Server
	ws *WSHandler
}

// NewServer builds the HTTP server: health, websocket, stats and metrics routes.
// A nil m disables the metrics route and rate-limit accounting.
func NewServer(hub Hub, cfg *config.Config, logger *zerolog.Logger, m *metrics.Relay) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	api := router.Group("/api")
	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.StatsJWTSecret),
		Issuer:   cfg.StatsJWTIssuer,
		Audience: cfg.StatsJWTAudience,
	}
	if jwtConfig.Enabled() {
		api.Use(AuthMiddleware(jwtConfig, logger))
	}
	statsHandlers := NewStatsHandlers(hub, logger)
	api.GET("/stats", statsHandlers.GetStats)

	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// The websocket upgrade hijacks the connection, which gin's response writer
	// refuses once the 101 header is written, so /ws stays outside the router.
	ws := NewWSHandler(hub, cfg, logger, m)
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/", router)

	return &Server{
		Server: &stdhttp.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		ws: ws,
	}
}

// Shutdown stops accepting requests, waits for regular requests, then closes
// websocket connections and waits until their handlers have returned.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.Server.Shutdown(ctx); err != nil {
		return err
	}
	return s.ws.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
