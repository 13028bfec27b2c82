package core

// CommandKind describes what the participant wants to do.
type CommandKind int

const (
	// CommandJoin registers the connection as a participant.
	CommandJoin CommandKind = iota
	// CommandSendMessage routes a chat message.
	CommandSendMessage
	// CommandTyping flags or clears the typing indicator.
	CommandTyping
)

// Command represents an inbound event already validated by the transport.
type Command struct {
	Kind CommandKind

	// CommandJoin
	Role           Role
	ExternalUserID string
	DisplayName    string

	// CommandSendMessage
	Body             string
	TargetExternalID string

	// CommandTyping
	IsTyping bool
}
