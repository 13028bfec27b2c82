package core

import "errors"

// ErrHubStopped is returned when the hub no longer processes operations.
var ErrHubStopped = errors.New("hub stopped")

// Drop reasons reported to the Observer for inbound events that produced no effect.
const (
	DropNotJoined         = "not_joined"
	DropNotAttached       = "not_attached"
	DropEmptyBody         = "empty_body"
	DropMissingExternalID = "missing_external_id"
)
