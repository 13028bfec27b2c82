package core

// Observer receives relay activity for metrics collection.
// Implementations are called from the hub goroutine and must not block.
type Observer interface {
	ParticipantJoined(role Role)
	ParticipantLeft(role Role)
	MessageRouted(sender Role, deliveries int)
	EventDropped(kind EventKind)
	InboundDropped(reason string)
}

type nopObserver struct{}

func (nopObserver) ParticipantJoined(Role)  {}
func (nopObserver) ParticipantLeft(Role)    {}
func (nopObserver) MessageRouted(Role, int) {}
func (nopObserver) EventDropped(EventKind)  {}
func (nopObserver) InboundDropped(string)   {}
