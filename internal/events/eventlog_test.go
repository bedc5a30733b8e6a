package events

import (
	"testing"
	"time"
)

func TestAppendFillsIDAndTimestamp(t *testing.T) {
	el := NewEventLog(nil)

	el.Append(GameEvent{Type: EventTypeKill, ActorID: "P1"})

	log := el.Replay()
	if len(log) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(log))
	}
	if log[0].ID == "" {
		t.Errorf("Expected an auto-generated ID")
	}
	if log[0].Timestamp.IsZero() {
		t.Errorf("Expected an auto-generated timestamp")
	}
}

func TestAppendKeepsProvidedID(t *testing.T) {
	el := NewEventLog(nil)
	ts := time.Now().Add(-time.Hour)

	el.Append(GameEvent{ID: "EVT_1", Timestamp: ts, Type: EventTypeShotFired})

	log := el.Replay()
	if log[0].ID != "EVT_1" {
		t.Errorf("Expected the given ID to survive, got %s", log[0].ID)
	}
	if !log[0].Timestamp.Equal(ts) {
		t.Errorf("Expected the given timestamp to survive")
	}
}

func TestReplayOrder(t *testing.T) {
	el := NewEventLog(nil)

	el.Append(GameEvent{Type: EventTypeRunStarted})
	el.Append(GameEvent{Type: EventTypeShotFired})
	el.Append(GameEvent{Type: EventTypeKill})

	log := el.Replay()
	want := []EventType{EventTypeRunStarted, EventTypeShotFired, EventTypeKill}
	for i, typ := range want {
		if log[i].Type != typ {
			t.Errorf("Position %d: expected %s, got %s", i, typ, log[i].Type)
		}
	}
}

func TestGetByActor(t *testing.T) {
	el := NewEventLog(nil)

	el.Append(GameEvent{Type: EventTypeShotFired, ActorID: "P1"})
	el.Append(GameEvent{Type: EventTypeEnemySpawned, ActorID: "SYSTEM_LEVEL"})
	el.Append(GameEvent{Type: EventTypeKill, ActorID: "P1"})

	got := el.GetByActor("P1")
	if len(got) != 2 {
		t.Errorf("Expected 2 events for P1, got %d", len(got))
	}
}

func TestGetByDepth(t *testing.T) {
	el := NewEventLog(nil)

	el.Append(GameEvent{Type: EventTypeLevelStarted, Depth: 0})
	el.Append(GameEvent{Type: EventTypeLevelStarted, Depth: 1})
	el.Append(GameEvent{Type: EventTypeKill, Depth: 1})

	got := el.GetByDepth(1)
	if len(got) != 2 {
		t.Errorf("Expected 2 events at depth 1, got %d", len(got))
	}
}

type capturePersister struct {
	received chan GameEvent
}

func (c *capturePersister) Append(e GameEvent) error {
	c.received <- e
	return nil
}

func TestAppendWritesThroughToPersister(t *testing.T) {
	persister := &capturePersister{received: make(chan GameEvent, 1)}
	el := NewEventLog(persister)

	el.Append(GameEvent{Type: EventTypeGameWon, ActorID: "P1"})

	select {
	case e := <-persister.received:
		if e.Type != EventTypeGameWon {
			t.Errorf("Expected GAME_WON at the persister, got %s", e.Type)
		}
	case <-time.After(time.Second):
		t.Fatalf("Persister never received the event")
	}
}
