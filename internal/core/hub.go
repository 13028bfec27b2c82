package core

import (
	"context"

	"github.com/rs/zerolog"
)

const inboxSize = 256

type opKind int

const (
	opAttach opKind = iota
	opCommand
	opDetach
	opStats
)

type op struct {
	kind   opKind
	client *Client
	cmd    Command
	stats  chan Stats
}

// Hub owns the relay state and applies every operation on a single goroutine,
// so each read-modify-broadcast sequence is atomic with respect to the others.
type Hub struct {
	relay *Relay
	inbox chan op
	done  chan struct{}
	log   *zerolog.Logger
}

// NewHub creates a new chat hub instance. Call Run exactly once to start it.
func NewHub(opts ...Option) *Hub {
	relay := NewRelay(opts...)
	return &Hub{
		relay: relay,
		inbox: make(chan op, inboxSize),
		done:  make(chan struct{}),
		log:   relay.log,
	}
}

// Run processes operations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.log.Debug().Msg("hub started")

	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Msg("hub stopped")
			return
		case o := <-h.inbox:
			h.handle(o)
		}
	}
}

func (h *Hub) handle(o op) {
	switch o.kind {
	case opAttach:
		h.relay.Attach(o.client)
	case opCommand:
		h.relay.Apply(o.client.ID, o.cmd)
	case opDetach:
		h.relay.Disconnect(o.client.ID)
	case opStats:
		o.stats <- h.relay.Stats()
	}
}

// RegisterClient attaches a freshly accepted connection. It is unjoined until a join command.
func (h *Hub) RegisterClient(c *Client) {
	_ = h.enqueue(context.Background(), op{kind: opAttach, client: c})
}

// UnregisterClient handles the transport disconnect of c.
func (h *Hub) UnregisterClient(c *Client) {
	_ = h.enqueue(context.Background(), op{kind: opDetach, client: c})
}

// Submit queues a command issued by c.
func (h *Hub) Submit(ctx context.Context, c *Client, cmd Command) error {
	return h.enqueue(ctx, op{kind: opCommand, client: c, cmd: cmd})
}

// Stats returns a snapshot taken after every previously queued operation was applied.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	if err := h.enqueue(ctx, op{kind: opStats, stats: reply}); err != nil {
		return Stats{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-h.done:
		return Stats{}, ErrHubStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (h *Hub) enqueue(ctx context.Context, o op) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	select {
	case h.inbox <- o:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
