package core

import "time"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessageReceived delivers a routed chat message.
	EventMessageReceived EventKind = iota
	// EventVisitorRoster seeds a newly joined agent with the connected visitors.
	EventVisitorRoster
	// EventParticipantJoined announces a visitor arrival.
	EventParticipantJoined
	// EventParticipantLeft announces a visitor departure.
	EventParticipantLeft
	// EventTypingStatus announces a typing indicator change.
	EventTypingStatus
)

func (k EventKind) String() string {
	switch k {
	case EventMessageReceived:
		return "message-received"
	case EventVisitorRoster:
		return "visitor-roster"
	case EventParticipantJoined:
		return "participant-joined"
	case EventParticipantLeft:
		return "participant-left"
	case EventTypingStatus:
		return "typing-status"
	default:
		return "unknown"
	}
}

// Envelope is a single routed chat message, built when the relay receives it.
type Envelope struct {
	MessageID          string
	Body               string
	SenderConnectionID string
	SenderExternalID   string
	SenderDisplayName  string
	SenderRole         Role
	TargetExternalID   string
	Timestamp          time.Time
}

// RosterEntry describes one connected visitor.
type RosterEntry struct {
	ExternalUserID string
	DisplayName    string
	JoinedAt       time.Time
}

// Presence describes a visitor arriving or leaving.
type Presence struct {
	ExternalUserID string
	DisplayName    string
	Timestamp      time.Time
}

// TypingStatus describes a participant's typing indicator.
type TypingStatus struct {
	ExternalUserID string
	DisplayName    string
	IsTyping       bool
}

// Event is sent to clients to describe what happened in the system.
// Exactly one payload field is set, according to Kind.
type Event struct {
	Kind     EventKind
	Envelope *Envelope     // EventMessageReceived
	Roster   []RosterEntry // EventVisitorRoster
	Presence *Presence     // EventParticipantJoined, EventParticipantLeft
	Typing   *TypingStatus // EventTypingStatus
}
