package core

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Stats is a snapshot of relay occupancy.
type Stats struct {
	// Connections counts attached transport connections, joined or not.
	Connections int
	// Total counts registered participants.
	Total    int
	Visitors int
	Agents   int
	// OnlineAgents counts distinct agent ids with a live connection.
	OnlineAgents int
	Typing       int
}

// Option configures a Relay (and the Hub wrapping it).
type Option func(*Relay)

// WithClock overrides the time source used for join and message timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		r.now = now
	}
}

// WithIDGenerator overrides the message id generator.
func WithIDGenerator(newID func() string) Option {
	return func(r *Relay) {
		r.newID = newID
	}
}

// WithObserver attaches a metrics observer.
func WithObserver(obs Observer) Option {
	return func(r *Relay) {
		if obs != nil {
			r.obs = obs
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.log = logger
		}
	}
}

// Relay holds the chat state and implements routing and session lifecycle.
// It is not safe for concurrent use: Hub serializes every call.
type Relay struct {
	registry *Registry
	agents   *AgentDirectory
	typing   *TypingTracker
	clients  map[string]*Client

	now   func() time.Time
	newID func() string
	obs   Observer
	log   *zerolog.Logger
}

// NewRelay constructs an empty relay.
func NewRelay(opts ...Option) *Relay {
	nop := zerolog.Nop()
	r := &Relay{
		registry: NewRegistry(),
		agents:   NewAgentDirectory(),
		typing:   NewTypingTracker(),
		clients:  make(map[string]*Client),
		now:      time.Now,
		newID:    uuid.NewString,
		obs:      nopObserver{},
		log:      &nop,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply dispatches a command issued on connID.
func (r *Relay) Apply(connID string, cmd Command) {
	switch cmd.Kind {
	case CommandJoin:
		r.Join(connID, cmd.Role, cmd.ExternalUserID, cmd.DisplayName)
	case CommandSendMessage:
		r.Send(connID, cmd.Body, cmd.TargetExternalID)
	case CommandTyping:
		r.SetTyping(connID, cmd.IsTyping)
	}
}

// Attach makes a transport connection known to the relay. It stays unjoined until Join.
func (r *Relay) Attach(c *Client) {
	r.clients[c.ID] = c
}

// Join registers connID as a participant. A repeated join on the same connection overwrites
// the previous registration. Returns false if the join was dropped.
func (r *Relay) Join(connID string, role Role, externalID, displayName string) bool {
	if _, ok := r.clients[connID]; !ok {
		r.drop(connID, DropNotAttached)
		return false
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		r.drop(connID, DropMissingExternalID)
		return false
	}

	if prev, ok := r.registry.Get(connID); ok {
		if prev.Role == RoleAgent {
			r.releaseAgent(prev.ExternalUserID, connID)
		}
		r.typing.Remove(connID)
		r.obs.ParticipantLeft(prev.Role)
	}

	p := r.registry.Register(connID, externalID, displayName, role, r.now())
	r.obs.ParticipantJoined(role)
	r.log.Info().
		Str("conn_id", connID).
		Str("external_id", externalID).
		Str("role", role.String()).
		Msg("participant joined")

	switch role {
	case RoleAgent:
		r.agents.Put(externalID, connID)
		r.deliverTo(connID, &Event{Kind: EventVisitorRoster, Roster: r.roster()})
	case RoleVisitor:
		r.broadcastExcept(connID, &Event{
			Kind: EventParticipantJoined,
			Presence: &Presence{
				ExternalUserID: p.ExternalUserID,
				DisplayName:    p.DisplayName,
				Timestamp:      p.JoinedAt,
			},
		})
	}
	return true
}

// Send routes a chat message from connID and returns the number of deliveries,
// the sender's own echo included. Messages from unjoined connections or with an
// empty body are dropped.
func (r *Relay) Send(connID, body, targetExternalID string) int {
	sender, ok := r.registry.Get(connID)
	if !ok {
		r.drop(connID, DropNotJoined)
		return 0
	}
	if strings.TrimSpace(body) == "" {
		r.drop(connID, DropEmptyBody)
		return 0
	}

	env := &Envelope{
		MessageID:          r.newID(),
		Body:               body,
		SenderConnectionID: sender.ConnectionID,
		SenderExternalID:   sender.ExternalUserID,
		SenderDisplayName:  sender.DisplayName,
		SenderRole:         sender.Role,
		Timestamp:          r.now(),
	}
	event := &Event{Kind: EventMessageReceived, Envelope: env}

	delivered := 0
	switch sender.Role {
	case RoleAgent:
		env.TargetExternalID = targetExternalID
		if targetExternalID != "" {
			for _, id := range r.registry.ConnectionsFor(targetExternalID, RoleVisitor) {
				if r.deliverTo(id, event) {
					delivered++
				}
			}
		}
	case RoleVisitor:
		r.registry.Each(RoleAgent, func(p Participant) {
			if r.deliverTo(p.ConnectionID, event) {
				delivered++
			}
		})
	}

	if r.deliverTo(connID, event) {
		delivered++
	}
	r.obs.MessageRouted(sender.Role, delivered)
	return delivered
}

// SetTyping updates the typing indicator of connID and notifies every other participant.
func (r *Relay) SetTyping(connID string, isTyping bool) bool {
	p, ok := r.registry.Get(connID)
	if !ok {
		r.drop(connID, DropNotJoined)
		return false
	}
	r.typing.Set(connID, isTyping)
	r.broadcastExcept(connID, &Event{
		Kind: EventTypingStatus,
		Typing: &TypingStatus{
			ExternalUserID: p.ExternalUserID,
			DisplayName:    p.DisplayName,
			IsTyping:       isTyping,
		},
	})
	return true
}

// Disconnect terminates connID: the participant is purged from every index, visitors are
// announced as left, and the client is detached with its event channel closed.
// No typing-status is emitted for a participant that was typing. Returns false if connID
// was not joined; repeated calls are no-ops.
func (r *Relay) Disconnect(connID string) bool {
	client, attached := r.clients[connID]
	delete(r.clients, connID)
	if attached {
		defer close(client.Events)
	}

	p, ok := r.registry.Unregister(connID)
	if !ok {
		return false
	}
	if p.Role == RoleAgent {
		r.releaseAgent(p.ExternalUserID, connID)
	}
	r.typing.Remove(connID)
	if p.Role == RoleVisitor {
		r.broadcastExcept(connID, &Event{
			Kind: EventParticipantLeft,
			Presence: &Presence{
				ExternalUserID: p.ExternalUserID,
				DisplayName:    p.DisplayName,
				Timestamp:      r.now(),
			},
		})
	}
	r.obs.ParticipantLeft(p.Role)
	r.log.Info().
		Str("conn_id", connID).
		Str("external_id", p.ExternalUserID).
		Str("role", p.Role.String()).
		Msg("participant left")
	return true
}

// Stats returns a snapshot of the relay occupancy.
func (r *Relay) Stats() Stats {
	return Stats{
		Connections:  len(r.clients),
		Total:        r.registry.Len(),
		Visitors:     r.registry.Count(RoleVisitor),
		Agents:       r.registry.Count(RoleAgent),
		OnlineAgents: r.agents.Len(),
		Typing:       r.typing.Len(),
	}
}

// releaseAgent drops connID from the agent directory. If the agent is still
// registered on another connection, that one becomes current.
func (r *Relay) releaseAgent(agentID, connID string) {
	if !r.agents.Remove(agentID, connID) {
		return
	}
	for _, id := range r.registry.ConnectionsFor(agentID, RoleAgent) {
		if id != connID {
			r.agents.Put(agentID, id)
			return
		}
	}
}

func (r *Relay) roster() []RosterEntry {
	visitors := r.registry.Visitors()
	sort.Slice(visitors, func(i, j int) bool {
		if visitors[i].JoinedAt.Equal(visitors[j].JoinedAt) {
			return visitors[i].ConnectionID < visitors[j].ConnectionID
		}
		return visitors[i].JoinedAt.Before(visitors[j].JoinedAt)
	})

	roster := make([]RosterEntry, 0, len(visitors))
	for _, v := range visitors {
		roster = append(roster, RosterEntry{
			ExternalUserID: v.ExternalUserID,
			DisplayName:    v.DisplayName,
			JoinedAt:       v.JoinedAt,
		})
	}
	return roster
}

func (r *Relay) broadcastExcept(connID string, event *Event) {
	r.registry.Range(func(p Participant) {
		if p.ConnectionID != connID {
			r.deliverTo(p.ConnectionID, event)
		}
	})
}

func (r *Relay) deliverTo(connID string, event *Event) bool {
	client, ok := r.clients[connID]
	if !ok {
		return false
	}
	if !client.deliver(event) {
		r.obs.EventDropped(event.Kind)
		r.log.Debug().Str("conn_id", connID).Str("event", event.Kind.String()).Msg("client buffer full, event dropped")
		return false
	}
	return true
}

func (r *Relay) drop(connID, reason string) {
	r.obs.InboundDropped(reason)
	r.log.Debug().Str("conn_id", connID).Str("reason", reason).Msg("inbound event dropped")
}
