package core

import (
	"sort"
	"testing"
	"time"
)

func TestRegistryRegisterOverwritesSameConnection(t *testing.T) {
	r := NewRegistry()
	at := time.Unix(100, 0)

	r.Register("c1", "u1", "Ann", RoleVisitor, at)
	r.Register("c1", "a1", "Agent Ann", RoleAgent, at.Add(time.Second))

	if r.Len() != 1 {
		t.Fatalf("expected one participant, got %d", r.Len())
	}
	p, ok := r.Get("c1")
	if !ok {
		t.Fatal("expected c1 to be registered")
	}
	if p.Role != RoleAgent || p.ExternalUserID != "a1" || p.DisplayName != "Agent Ann" {
		t.Fatalf("unexpected participant after overwrite: %+v", p)
	}
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", "u1", "", RoleVisitor, time.Now())

	p, ok := r.Unregister("c1")
	if !ok || p.ExternalUserID != "u1" {
		t.Fatalf("unexpected unregister result: %+v %v", p, ok)
	}
	if _, ok := r.Unregister("c1"); ok {
		t.Fatal("second unregister should report absence")
	}
	if _, ok := r.Unregister("never"); ok {
		t.Fatal("unregister of unknown connection should report absence")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistryVisitorsAndCounts(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.Register("v1", "u1", "", RoleVisitor, now)
	r.Register("v2", "u1", "", RoleVisitor, now)
	r.Register("v3", "u2", "", RoleVisitor, now)
	r.Register("a1", "agent", "", RoleAgent, now)

	visitors := r.Visitors()
	ids := make([]string, 0, len(visitors))
	for _, v := range visitors {
		ids = append(ids, v.ConnectionID)
	}
	sort.Strings(ids)
	if len(ids) != 3 || ids[0] != "v1" || ids[1] != "v2" || ids[2] != "v3" {
		t.Fatalf("unexpected visitors: %v", ids)
	}

	if got := r.Count(RoleVisitor); got != 3 {
		t.Fatalf("expected 3 visitors, got %d", got)
	}
	if got := r.Count(RoleAgent); got != 1 {
		t.Fatalf("expected 1 agent, got %d", got)
	}

	conns := r.ConnectionsFor("u1", RoleVisitor)
	sort.Strings(conns)
	if len(conns) != 2 || conns[0] != "v1" || conns[1] != "v2" {
		t.Fatalf("unexpected connections for u1: %v", conns)
	}
	if conns := r.ConnectionsFor("agent", RoleVisitor); len(conns) != 0 {
		t.Fatalf("agent must not match a visitor lookup: %v", conns)
	}
}

func TestRegistrySizeTracksJoinedConnections(t *testing.T) {
	r := NewRegistry()
	ops := []struct {
		join bool
		conn string
		want int
	}{
		{true, "c1", 1},
		{true, "c2", 2},
		{true, "c1", 2},
		{false, "c3", 2},
		{false, "c1", 1},
		{false, "c1", 1},
		{true, "c3", 2},
		{false, "c2", 1},
		{false, "c3", 0},
	}

	for i, op := range ops {
		if op.join {
			r.Register(op.conn, "u-"+op.conn, "", RoleVisitor, time.Now())
		} else {
			r.Unregister(op.conn)
		}
		if r.Len() != op.want {
			t.Fatalf("step %d: expected size %d, got %d", i, op.want, r.Len())
		}
	}
}

func TestAgentDirectoryReconnect(t *testing.T) {
	d := NewAgentDirectory()

	d.Put("agent-1", "old")
	d.Put("agent-1", "new")

	if conn, ok := d.Lookup("agent-1"); !ok || conn != "new" {
		t.Fatalf("expected newest connection, got %q %v", conn, ok)
	}

	// The stale connection disconnecting must not remove the live entry.
	if d.Remove("agent-1", "old") {
		t.Fatal("remove with stale connection should be a no-op")
	}
	if _, ok := d.Lookup("agent-1"); !ok {
		t.Fatal("entry removed by stale connection")
	}

	if !d.Remove("agent-1", "new") {
		t.Fatal("expected removal of current connection")
	}
	if d.Remove("agent-1", "new") {
		t.Fatal("second removal should be a no-op")
	}
	if d.Len() != 0 {
		t.Fatalf("expected empty directory, got %d", d.Len())
	}
}

func TestTypingTracker(t *testing.T) {
	tr := NewTypingTracker()

	if !tr.Set("c1", true) {
		t.Fatal("first start should change membership")
	}
	if tr.Set("c1", true) {
		t.Fatal("repeated start should not change membership")
	}
	if !tr.IsTyping("c1") || tr.Len() != 1 {
		t.Fatal("c1 should be typing")
	}
	if !tr.Set("c1", false) {
		t.Fatal("stop should change membership")
	}
	if tr.Set("c1", false) {
		t.Fatal("repeated stop should not change membership")
	}
	if tr.Remove("c1") {
		t.Fatal("remove of absent connection should report false")
	}
	if tr.IsTyping("c1") || tr.Len() != 0 {
		t.Fatal("c1 should not be typing")
	}
}
