package network

import (
	"testing"

	"github.com/shadowcurse/fridges-must-die/server/internal/engine"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
)

// testClient builds a client wired to a fresh engine, without a socket. The
// handlers only touch the hub's engine and the send channel.
func testClient() (*Client, *events.EventLog) {
	el := events.NewEventLog(nil)
	eng := engine.NewEngine(el, logger.NewLogger(), engine.Options{Seed: 42})
	hub := NewHub(eng, logger.NewLogger(), nil)
	c := &Client{hub: hub, send: make(chan []byte, 8), playerID: "P1"}
	return c, el
}

func lastEventOfType(el *events.EventLog, typ events.EventType) (events.GameEvent, bool) {
	all := el.Replay()
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Type == typ {
			return all[i], true
		}
	}
	return events.GameEvent{}, false
}

func TestShootCarriesMovement(t *testing.T) {
	// Setup: the player is mid-stride
	c, el := testClient()
	c.handleInput([]byte(`{"forward":1,"right":-1,"yaw":0.5}`))

	// Act
	c.handleShoot([]byte(`{"yaw":1.25}`))

	// Assert: the trigger pull keeps the stride
	e, ok := lastEventOfType(el, events.EventTypePlayerInput)
	if !ok {
		t.Fatalf("Expected a PLAYER_INPUT event from SHOOT")
	}
	payload, ok := e.Payload.(engine.PlayerInputPayload)
	if !ok {
		t.Fatalf("Unexpected payload type %T", e.Payload)
	}
	if !payload.Fire {
		t.Errorf("Expected fire set")
	}
	if payload.Forward != 1 || payload.Right != -1 {
		t.Errorf("Expected movement (1, -1) carried into the shot, got (%d, %d)",
			payload.Forward, payload.Right)
	}
	if payload.Yaw != 1.25 {
		t.Errorf("Expected the shot yaw, got %f", payload.Yaw)
	}
}

func TestShootWithoutPriorInput(t *testing.T) {
	// Setup
	c, el := testClient()

	// Act: trigger pull from a standstill
	c.handleShoot([]byte(`{"yaw":0}`))

	// Assert
	e, ok := lastEventOfType(el, events.EventTypePlayerInput)
	if !ok {
		t.Fatalf("Expected a PLAYER_INPUT event from SHOOT")
	}
	payload := e.Payload.(engine.PlayerInputPayload)
	if payload.Forward != 0 || payload.Right != 0 {
		t.Errorf("Expected a standstill shot, got (%d, %d)", payload.Forward, payload.Right)
	}
}

func TestInputRejectsOutOfRangeAxes(t *testing.T) {
	// Setup
	c, el := testClient()

	// Act
	c.handleInput([]byte(`{"forward":3,"right":0,"yaw":0}`))

	// Assert: rejected and not remembered
	if _, ok := lastEventOfType(el, events.EventTypePlayerInput); ok {
		t.Errorf("Expected the out-of-range input to be dropped")
	}
	c.handleShoot([]byte(`{"yaw":0}`))
	e, _ := lastEventOfType(el, events.EventTypePlayerInput)
	if payload := e.Payload.(engine.PlayerInputPayload); payload.Forward != 0 {
		t.Errorf("Expected rejected axes to stay forgotten, got forward %d", payload.Forward)
	}
}

func TestThrowRejectedOutsideGame(t *testing.T) {
	// Setup: engine still in the lobby
	c, el := testClient()

	// Act
	c.handleThrow()

	// Assert: no event, error reply queued
	if _, ok := lastEventOfType(el, events.EventTypeWeaponThrown); ok {
		t.Errorf("Expected no WEAPON_THROWN outside the game")
	}
	select {
	case <-c.send:
	default:
		t.Errorf("Expected an error reply")
	}
}
