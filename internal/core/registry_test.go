package core

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestRegistryJoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	s := NewSession("a", "5", 1)

	if !r.Join(s) {
		t.Fatal("first join should add")
	}
	if r.Join(s) {
		t.Fatal("second join should be a no-op")
	}
	if got := r.Count("5"); got != 1 {
		t.Fatalf("expected 1 member, got %d", got)
	}
}

func TestRegistryLeaveIsNoOpWhenGone(t *testing.T) {
	r := NewRegistry()
	s := NewSession("a", "5", 1)
	r.Join(s)

	if !r.Leave(s) {
		t.Fatal("first leave should remove")
	}
	if r.Leave(s) {
		t.Fatal("second leave should be a no-op")
	}
	if len(r.Rooms()) != 0 {
		t.Fatalf("empty room should be dropped, got %v", r.Rooms())
	}
}

func TestRegistryMembersOfSnapshot(t *testing.T) {
	r := NewRegistry()
	a := NewSession("a", "5", 1)
	b := NewSession("b", "5", 1)
	c := NewSession("c", "6", 1)
	r.Join(a)
	r.Join(b)
	r.Join(c)

	members := r.MembersOf("5")
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	r.Leave(a)
	if len(members) != 2 {
		t.Fatal("snapshot must not change after leave")
	}
	if r.Count("5") != 1 {
		t.Fatalf("expected 1 member after leave, got %d", r.Count("5"))
	}
	if rooms := r.Rooms(); len(rooms) != 2 || rooms[0] != "5" || rooms[1] != "6" {
		t.Fatalf("unexpected rooms %v", rooms)
	}
}

func TestDispatcherRoomScopedAndSkipsLeft(t *testing.T) {
	logger := zerolog.Nop()
	r := NewRegistry()
	d := NewDispatcher(r, &logger)

	a := NewSession("a", "5", 4)
	b := NewSession("b", "5", 4)
	other := NewSession("c", "6", 4)
	r.Join(a)
	r.Join(b)
	r.Join(other)

	if n := d.Broadcast("5", &Event{Kind: EventRoomMessage, Room: "5"}); n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
	mustEvent(t, a.Events, EventRoomMessage)
	mustEvent(t, b.Events, EventRoomMessage)
	mustNoEvent(t, other.Events)

	r.Leave(b)
	if n := d.Broadcast("5", &Event{Kind: EventRoomMessage, Room: "5"}); n != 1 {
		t.Fatalf("expected 1 delivery after leave, got %d", n)
	}
	mustNoEvent(t, b.Events)

	if d.Notify(b, &Event{Kind: EventError}) {
		t.Fatal("notify to a departed session must fail")
	}
}

func TestDispatcherSkipsFullSession(t *testing.T) {
	logger := zerolog.Nop()
	r := NewRegistry()
	d := NewDispatcher(r, &logger)

	slow := NewSession("slow", "5", 1)
	fast := NewSession("fast", "5", 4)
	r.Join(slow)
	r.Join(fast)

	d.Broadcast("5", &Event{Kind: EventRoomMessage})
	if n := d.Broadcast("5", &Event{Kind: EventRoomMessage}); n != 1 {
		t.Fatalf("expected full session skipped, got %d deliveries", n)
	}
	if len(fast.Events) != 2 {
		t.Fatalf("fast session should have both events, got %d", len(fast.Events))
	}
}

func TestBroadcastToUnknownRoom(t *testing.T) {
	logger := zerolog.Nop()
	d := NewDispatcher(NewRegistry(), &logger)
	if n := d.Broadcast("ghost", &Event{}); n != 0 {
		t.Fatalf("expected 0 deliveries, got %d", n)
	}
}
