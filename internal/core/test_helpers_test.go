package core

import (
	"fmt"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// expectNoEvent fails if anything is already buffered on ch.
// Relay calls are synchronous, so pending deliveries are visible immediately.
func expectNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event %v: %+v", ev.Kind, ev)
		}
	default:
	}
}

// nextEvent returns the buffered event on ch, failing if there is none.
func nextEvent(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()

	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	default:
		t.Fatal("expected a buffered event, got none")
		return nil
	}
}

func drain(ch <-chan *Event) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func (c *fixedClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

type countingObserver struct {
	joined   map[Role]int
	left     map[Role]int
	routed   int
	dropped  map[EventKind]int
	inbound  map[string]int
	lastSent int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		joined:  make(map[Role]int),
		left:    make(map[Role]int),
		dropped: make(map[EventKind]int),
		inbound: make(map[string]int),
	}
}

func (o *countingObserver) ParticipantJoined(role Role) { o.joined[role]++ }
func (o *countingObserver) ParticipantLeft(role Role)   { o.left[role]++ }
func (o *countingObserver) MessageRouted(_ Role, deliveries int) {
	o.routed++
	o.lastSent = deliveries
}
func (o *countingObserver) EventDropped(kind EventKind)  { o.dropped[kind]++ }
func (o *countingObserver) InboundDropped(reason string) { o.inbound[reason]++ }
