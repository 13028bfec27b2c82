package core

import "time"

// Registry maps live connection ids to participants.
// It is not safe for concurrent use; the Hub goroutine owns it.
type Registry struct {
	participants map[string]Participant
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		participants: make(map[string]Participant),
	}
}

// Register creates or overwrites the participant for connID.
func (r *Registry) Register(connID, externalID, displayName string, role Role, joinedAt time.Time) Participant {
	p := Participant{
		ConnectionID:   connID,
		ExternalUserID: externalID,
		DisplayName:    displayName,
		Role:           role,
		JoinedAt:       joinedAt,
	}
	r.participants[connID] = p
	return p
}

// Unregister removes the participant for connID. Returns false if it was not registered.
func (r *Registry) Unregister(connID string) (Participant, bool) {
	p, ok := r.participants[connID]
	if !ok {
		return Participant{}, false
	}
	delete(r.participants, connID)
	return p, true
}

// Get returns the participant registered on connID.
func (r *Registry) Get(connID string) (Participant, bool) {
	p, ok := r.participants[connID]
	return p, ok
}

// Visitors returns every registered visitor in no particular order.
func (r *Registry) Visitors() []Participant {
	visitors := make([]Participant, 0, len(r.participants))
	r.Each(RoleVisitor, func(p Participant) {
		visitors = append(visitors, p)
	})
	return visitors
}

// ConnectionsFor returns the connection ids holding externalID with the given role.
func (r *Registry) ConnectionsFor(externalID string, role Role) []string {
	var ids []string
	r.Each(role, func(p Participant) {
		if p.ExternalUserID == externalID {
			ids = append(ids, p.ConnectionID)
		}
	})
	return ids
}

// Each calls fn for every participant with the given role.
func (r *Registry) Each(role Role, fn func(Participant)) {
	r.Range(func(p Participant) {
		if p.Role == role {
			fn(p)
		}
	})
}

// Range calls fn for every registered participant.
func (r *Registry) Range(fn func(Participant)) {
	for _, p := range r.participants {
		fn(p)
	}
}

// Len returns the number of registered participants.
func (r *Registry) Len() int {
	return len(r.participants)
}

// Count returns the number of registered participants with the given role.
func (r *Registry) Count(role Role) int {
	n := 0
	r.Each(role, func(Participant) { n++ })
	return n
}
