package core

import "time"

// Role distinguishes website visitors from support agents.
type Role int

const (
	// RoleVisitor is an anonymous website visitor.
	RoleVisitor Role = iota
	// RoleAgent is a member of the support staff.
	RoleAgent
)

func (r Role) String() string {
	switch r {
	case RoleVisitor:
		return "visitor"
	case RoleAgent:
		return "agent"
	default:
		return "unknown"
	}
}

// Participant is the relay's record of who occupies a connection.
type Participant struct {
	ConnectionID   string
	ExternalUserID string
	DisplayName    string
	Role           Role
	JoinedAt       time.Time
}
