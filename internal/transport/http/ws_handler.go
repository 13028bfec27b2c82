package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/carechat-server/internal/config"
	"github.com/vovakirdan/carechat-server/internal/core"
	"github.com/vovakirdan/carechat-server/internal/metrics"
	"github.com/vovakirdan/carechat-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub     Hub
	cfg     *config.Config
	log     *zerolog.Logger
	metrics *metrics.Relay

	closing   chan struct{}
	closeOnce sync.Once
	active    sync.WaitGroup
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub Hub, cfg *config.Config, logger *zerolog.Logger, m *metrics.Relay) *WSHandler {
	return &WSHandler{hub: hub, cfg: cfg, log: logger, metrics: m, closing: make(chan struct{})}
}

// Shutdown closes every open websocket connection and waits for their handlers
// to unregister from the hub.
func (h *WSHandler) Shutdown(ctx context.Context) error {
	h.closeOnce.Do(func() { close(h.closing) })

	done := make(chan struct{})
	go func() {
		h.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	h.active.Add(1)
	defer h.active.Done()

	select {
	case <-h.closing:
		stdhttp.Error(w, "server shutting down", stdhttp.StatusServiceUnavailable)
		return
	default:
	}

	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: len(h.cfg.AllowedOrigins) == 0,
		OriginPatterns:     h.cfg.AllowedOrigins,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	client := core.NewClient(uuid.NewString(), h.cfg.ClientBuffer)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)
	h.log.Debug().Str("conn_id", client.ID).Str("remote_addr", r.RemoteAddr).Msg("ws connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-h.closing:
			cancel()
		case <-ctx.Done():
		}
	}()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	select {
	case <-h.closing:
		status = websocket.StatusGoingAway
		reason = "server shutting down"
	default:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "internal error"
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}
	h.log.Debug().Str("conn_id", client.ID).Msg("ws disconnected")

	_ = conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.cfg.RateLimitPerSecond, h.cfg.RateLimitBurst)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		if !limiter.allow() {
			h.log.Debug().Str("conn_id", client.ID).Msg("inbound rate limited")
			if h.metrics != nil {
				h.metrics.InboundRateLimited()
			}
			continue
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.dropInbound(client, errors.Join(errMalformed, err))
			continue
		}

		cmd, err := inboundToCommand(inbound)
		if err != nil {
			h.dropInbound(client, err)
			continue
		}
		if err := h.hub.Submit(ctx, client, *cmd); err != nil {
			return err
		}
	}
}

func (h *WSHandler) dropInbound(client *core.Client, err error) {
	h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("inbound event ignored")
	if h.metrics != nil {
		h.metrics.InboundDropped(dropReason(err))
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
