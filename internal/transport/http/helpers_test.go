package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/carechat-server/internal/config"
	"github.com/vovakirdan/carechat-server/internal/core"
	"github.com/vovakirdan/carechat-server/internal/metrics"
	"github.com/vovakirdan/carechat-server/internal/proto"
)

type testServer struct {
	*httptest.Server
	hub     *core.Hub
	metrics *metrics.Relay
	server  *Server
}

// startTestServer runs a hub and the HTTP server; mutate may adjust the config before start.
func startTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	logger := zerolog.Nop()
	m := metrics.New()
	hub := core.NewHub(core.WithLogger(&logger), core.WithObserver(m))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	if !cfg.MetricsEnabled {
		m = nil
	}
	server := NewServer(hub, &cfg, &logger, m)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, hub: hub, metrics: m, server: server}
}

func (ts *testServer) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// waitForStats polls the hub until cond holds.
func (ts *testServer) waitForStats(t *testing.T, cond func(core.Stats) bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		stats, err := ts.hub.Stats(context.Background())
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if cond(stats) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for relay state")
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	inbound := proto.Inbound{Type: typ}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal %s: %v", typ, err)
		}
		inbound.Data = payload
	}
	if err := wsjson.Write(ctx, conn, inbound); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

type outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// readEvent reads the next outbound frame, asserts its event name and decodes its data into v.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, v any) {
	t.Helper()

	var out outbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read %s: %v", event, err)
	}
	if out.Type != proto.OutboundTypeEvent || out.Event != event {
		t.Fatalf("expected event %q, got type=%q event=%q data=%s", event, out.Type, out.Event, out.Data)
	}
	if v != nil {
		if err := json.Unmarshal(out.Data, v); err != nil {
			t.Fatalf("unmarshal %s data: %v", event, err)
		}
	}
}

// expectSilence asserts that nothing arrives on conn within a short window.
// The connection is unusable afterwards.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var out outbound
	if err := wsjson.Read(ctx, conn, &out); err == nil {
		t.Fatalf("unexpected frame: event=%q data=%s", out.Event, out.Data)
	}
}
