package core

// TypingTracker holds the set of connections currently flagged as typing.
type TypingTracker struct {
	typing map[string]struct{}
}

// NewTypingTracker constructs an empty tracker.
func NewTypingTracker() *TypingTracker {
	return &TypingTracker{typing: make(map[string]struct{})}
}

// Set flags or clears connID. Returns true if membership changed.
func (t *TypingTracker) Set(connID string, typing bool) bool {
	if !typing {
		return t.Remove(connID)
	}
	if _, exists := t.typing[connID]; exists {
		return false
	}
	t.typing[connID] = struct{}{}
	return true
}

// Remove clears connID. Returns true if it was flagged.
func (t *TypingTracker) Remove(connID string) bool {
	if _, exists := t.typing[connID]; !exists {
		return false
	}
	delete(t.typing, connID)
	return true
}

// IsTyping reports whether connID is flagged.
func (t *TypingTracker) IsTyping(connID string) bool {
	_, ok := t.typing[connID]
	return ok
}

// Len returns the number of typing connections.
func (t *TypingTracker) Len() int {
	return len(t.typing)
}
