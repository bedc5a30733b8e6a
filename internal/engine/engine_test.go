package engine

import (
	"testing"

	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
)

func newTestEngine(t *testing.T) (*Engine, *events.EventLog) {
	t.Helper()
	el := events.NewEventLog(nil)
	eng := NewEngine(el, logger.NewLogger(), Options{Seed: 42, RunLevels: 2})
	return eng, el
}

func (e *Engine) drainDispatch() {
	for _, event := range e.eventLog.Replay()[e.lastProcessedEvent:] {
		e.mu.Lock()
		e.dispatch(event)
		e.mu.Unlock()
		e.lastProcessedEvent++
	}
}

func TestEngineSinglePlayerSlot(t *testing.T) {
	eng, el := newTestEngine(t)

	el.Append(events.GameEvent{
		Type:    events.EventTypePlayerJoined,
		ActorID: "P1",
		Payload: PlayerJoinedPayload{PlayerID: "P1", Name: "First"},
	})
	el.Append(events.GameEvent{
		Type:    events.EventTypePlayerJoined,
		ActorID: "P2",
		Payload: PlayerJoinedPayload{PlayerID: "P2", Name: "Second"},
	})
	eng.drainDispatch()

	snap := eng.Snapshot()
	if snap.Player == nil || snap.Player.ID != "P1" {
		t.Fatalf("Expected the first join to take the slot, got %v", snap.Player)
	}
}

func TestEngineRunStartAndPause(t *testing.T) {
	eng, el := newTestEngine(t)

	el.Append(events.GameEvent{
		Type:    events.EventTypePlayerJoined,
		ActorID: "P1",
		Payload: PlayerJoinedPayload{PlayerID: "P1", Name: "Tester"},
	})
	eng.StartRun()
	eng.drainDispatch()

	if snap := eng.Snapshot(); snap.State != StateInGame {
		t.Fatalf("Expected IN_GAME after the run start, got %s", snap.State)
	}

	el.Append(events.GameEvent{Type: events.EventTypeGamePaused, ActorID: "P1"})
	eng.drainDispatch()
	if snap := eng.Snapshot(); snap.State != StatePaused {
		t.Fatalf("Expected PAUSED, got %s", snap.State)
	}

	// Ticks must not advance the world while paused.
	el.Append(tickEvent(1))
	eng.drainDispatch()

	el.Append(events.GameEvent{Type: events.EventTypeGameResumed, ActorID: "P1"})
	eng.drainDispatch()
	if snap := eng.Snapshot(); snap.State != StateInGame {
		t.Fatalf("Expected IN_GAME after resume, got %s", snap.State)
	}
}

func TestEngineSnapshotShape(t *testing.T) {
	eng, el := newTestEngine(t)

	el.Append(events.GameEvent{
		Type:    events.EventTypePlayerJoined,
		ActorID: "P1",
		Payload: PlayerJoinedPayload{PlayerID: "P1", Name: "Tester"},
	})
	eng.StartRun()
	eng.drainDispatch()

	snap := eng.Snapshot()
	if snap.Depth != 0 {
		t.Errorf("Expected depth 0, got %d", snap.Depth)
	}
	if len(snap.Doors) != 4 {
		t.Errorf("Expected 4 doors in the snapshot, got %d", len(snap.Doors))
	}
	if len(snap.Fridges) == 0 {
		t.Errorf("Expected fridges in the snapshot")
	}
	if len(snap.Pickups) == 0 {
		t.Errorf("Expected weapon pickups in the snapshot")
	}

	layout, ok := eng.Layout()
	if !ok {
		t.Fatalf("Expected a level layout during a run")
	}
	if layout.Depth != 0 || len(layout.Doors) != 4 {
		t.Errorf("Unexpected layout %d / %d doors", layout.Depth, len(layout.Doors))
	}
}

func TestEngineLayoutBeforeRun(t *testing.T) {
	eng, _ := newTestEngine(t)
	if _, ok := eng.Layout(); ok {
		t.Errorf("Expected no layout before a run starts")
	}
}

func TestEngineTriggerAmbush(t *testing.T) {
	eng, el := newTestEngine(t)

	// No run yet: nothing to ambush
	if eng.TriggerAmbush("ADMIN") {
		t.Errorf("Expected ambush to fail before a run")
	}

	el.Append(events.GameEvent{
		Type:    events.EventTypePlayerJoined,
		ActorID: "P1",
		Payload: PlayerJoinedPayload{PlayerID: "P1", Name: "Tester"},
	})
	eng.StartRun()
	eng.drainDispatch()

	before := len(eng.Snapshot().Fridges)
	if !eng.TriggerAmbush("ADMIN") {
		t.Fatalf("Expected the forced ambush to land")
	}
	if got := len(eng.Snapshot().Fridges); got != before+1 {
		t.Errorf("Expected one extra fridge, got %d", got)
	}
}
