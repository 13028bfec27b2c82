package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	InboundTypeJoinVisitor = "join-as-visitor"
	InboundTypeJoinAgent   = "join-as-agent"
	InboundTypeSend        = "send-message"
	InboundTypeTypingStart = "typing-start"
	InboundTypeTypingStop  = "typing-stop"

	OutboundTypeEvent = "event"

	EventMessageReceived   = "message-received"
	EventVisitorRoster     = "visitor-roster"
	EventParticipantJoined = "participant-joined"
	EventParticipantLeft   = "participant-left"
	EventTypingStatus      = "typing-status"
)

// JoinData introduces the participant behind a connection.
type JoinData struct {
	ExternalUserID string `json:"externalUserId"`
	DisplayName    string `json:"displayName,omitempty"`
}

// SendData is a chat message from the client.
type SendData struct {
	Body             string `json:"body"`
	TargetExternalID string `json:"targetExternalId,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// MessageReceived carries a routed chat message. Timestamps are Unix milliseconds.
type MessageReceived struct {
	MessageID          string `json:"messageId"`
	Body               string `json:"body"`
	SenderConnectionID string `json:"senderConnectionId"`
	SenderExternalID   string `json:"senderExternalId"`
	SenderDisplayName  string `json:"senderDisplayName"`
	SenderRole         string `json:"senderRole"`
	TargetExternalID   string `json:"targetExternalId,omitempty"`
	Timestamp          int64  `json:"timestamp"`
}

// RosterEntry describes one connected visitor.
type RosterEntry struct {
	ExternalUserID string `json:"externalUserId"`
	DisplayName    string `json:"displayName"`
	JoinedAt       int64  `json:"joinedAt"`
}

// Presence notifies that a visitor joined or left.
type Presence struct {
	ExternalUserID string `json:"externalUserId"`
	DisplayName    string `json:"displayName"`
	Timestamp      int64  `json:"timestamp"`
}

// TypingStatus notifies a typing indicator change.
type TypingStatus struct {
	ExternalUserID string `json:"externalUserId"`
	DisplayName    string `json:"displayName"`
	IsTyping       bool   `json:"isTyping"`
}
