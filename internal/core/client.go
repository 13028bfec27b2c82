package core

// DefaultEventBuffer is the outbound buffer size used when none is configured.
const DefaultEventBuffer = 64

// Client is a transport connection as seen by the core layer.
type Client struct {
	ID     string
	Events chan *Event
}

// NewClient constructs a client with an outbound buffer of the given size.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &Client{
		ID:     id,
		Events: make(chan *Event, buffer),
	}
}

// deliver hands the event to the client without blocking.
// Returns false if the client's buffer is full and the event was dropped.
func (c *Client) deliver(event *Event) bool {
	select {
	case c.Events <- event:
		return true
	default:
		return false
	}
}
