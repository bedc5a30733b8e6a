package network

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shadowcurse/fridges-must-die/server/internal/engine"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Input is throttled to the simulation rate; control actions harder.
	minInputInterval   = 25 * time.Millisecond
	minControlInterval = 250 * time.Millisecond
)

// PlayerAction represents an incoming command from the frontend.
type PlayerAction struct {
	Type    string          `json:"type"` // "JOIN", "INPUT", "SHOOT", "THROW", "PAUSE", "RESUME"
	Payload json.RawMessage `json:"payload"`
}

// Client represents an active WebSocket connection. Added Hub ref to allow
// unregister.
type Client struct {
	hub             *Hub
	conn            *websocket.Conn
	send            chan []byte
	playerID        string
	lastInputTime   time.Time
	lastControlTime time.Time

	// Last accepted movement axes, reapplied by SHOOT so a trigger pull does
	// not cancel the stride.
	lastForward int
	lastRight   int
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.profile.ClientSendBuffer),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps messages from the websocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket read error: " + err.Error())
			}
			break
		}

		metrics.Get().RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Error("Failed to parse PlayerAction from WebSocket. err: " + err.Error())
			continue
		}

		c.handlePlayerAction(action)
	}
}

func (c *Client) handlePlayerAction(action PlayerAction) {
	// 1. Rate limiting. INPUT is continuous; everything else is a control
	// action and gets a stricter budget.
	if action.Type == "INPUT" {
		if time.Since(c.lastInputTime) < minInputInterval {
			return
		}
		c.lastInputTime = time.Now()
	} else {
		if time.Since(c.lastControlTime) < minControlInterval {
			c.hub.logger.Warn("Rate limit exceeded for client action " + action.Type)
			return
		}
		c.lastControlTime = time.Now()
	}

	// 2. Everything but JOIN needs an established identity.
	if action.Type != "JOIN" && c.playerID == "" {
		c.hub.logger.Warn("Action " + action.Type + " before JOIN ignored")
		return
	}

	switch action.Type {
	case "JOIN":
		c.handleJoin(action.Payload)
	case "INPUT":
		c.handleInput(action.Payload)
	case "SHOOT":
		c.handleShoot(action.Payload)
	case "THROW":
		c.handleThrow()
	case "PAUSE":
		c.handlePauseResume(events.EventTypeGamePaused, engine.StateInGame)
	case "RESUME":
		c.handlePauseResume(events.EventTypeGameResumed, engine.StatePaused)
	default:
		c.hub.logger.Warn("Unknown PlayerAction type: " + action.Type)
	}
}

func (c *Client) handleJoin(rawPayload []byte) {
	var parsed struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rawPayload, &parsed); err != nil || parsed.Name == "" {
		c.reply(Envelope{Type: "ERROR", Data: "JOIN requires a name"})
		return
	}

	snap := c.hub.engine.Snapshot()
	if snap.Player != nil {
		c.reply(Envelope{Type: "ERROR", Data: "player slot taken"})
		return
	}

	c.playerID = events.GenerateEventID()
	c.hub.engine.GetEventLog().Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypePlayerJoined,
		ActorID:   c.playerID,
		Payload: engine.PlayerJoinedPayload{
			PlayerID: c.playerID,
			Name:     parsed.Name,
		},
	})
	c.hub.logger.Event("PLAYER_ACTION_JOIN", c.playerID, parsed.Name)

	// First join boots the run.
	if snap.State == engine.StateLobby {
		c.hub.engine.StartRun()
	}

	c.reply(Envelope{Type: "JOINED", Data: map[string]string{"player_id": c.playerID}})
}

func (c *Client) handleInput(rawPayload []byte) {
	var parsed engine.PlayerInputPayload
	if err := json.Unmarshal(rawPayload, &parsed); err != nil {
		c.hub.logger.Warn("Failed to parse input payload from " + c.playerID)
		return
	}
	if parsed.Forward < -1 || parsed.Forward > 1 || parsed.Right < -1 || parsed.Right > 1 {
		c.hub.logger.Warn("Rejected out-of-range input from " + c.playerID)
		return
	}
	parsed.PlayerID = c.playerID
	c.lastForward = parsed.Forward
	c.lastRight = parsed.Right

	c.hub.engine.GetEventLog().Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypePlayerInput,
		ActorID:   c.playerID,
		Payload:   parsed,
	})
}

// handleShoot is a one-tap trigger pull: an input event with fire set and
// the last accepted movement axes carried over.
func (c *Client) handleShoot(rawPayload []byte) {
	var parsed struct {
		Yaw float64 `json:"yaw"`
	}
	if err := json.Unmarshal(rawPayload, &parsed); err != nil {
		return
	}

	c.hub.engine.GetEventLog().Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypePlayerInput,
		ActorID:   c.playerID,
		Payload: engine.PlayerInputPayload{
			PlayerID: c.playerID,
			Forward:  c.lastForward,
			Right:    c.lastRight,
			Yaw:      parsed.Yaw,
			Fire:     true,
		},
	})
}

func (c *Client) handleThrow() {
	snap := c.hub.engine.Snapshot()
	if snap.State != engine.StateInGame {
		c.reply(Envelope{Type: "ERROR", Data: "not allowed in state " + string(snap.State)})
		return
	}
	if snap.Player == nil || snap.Player.Weapon == nil {
		c.reply(Envelope{Type: "ERROR", Data: "nothing to throw"})
		return
	}

	c.hub.engine.GetEventLog().Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeWeaponThrown,
		ActorID:   c.playerID,
		Payload: engine.WeaponThrownPayload{
			PlayerID:   c.playerID,
			WeaponType: snap.Player.Weapon.Type,
		},
	})
	c.hub.logger.Event("PLAYER_ACTION_THROW", c.playerID, string(snap.Player.Weapon.Type))
}

func (c *Client) handlePauseResume(eventType events.EventType, requiredState engine.GameState) {
	snap := c.hub.engine.Snapshot()
	if snap.State != requiredState {
		c.reply(Envelope{Type: "ERROR", Data: "not allowed in state " + string(snap.State)})
		return
	}

	c.hub.engine.GetEventLog().Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      eventType,
		ActorID:   c.playerID,
	})
}

// reply queues a message for this client only.
func (c *Client) reply(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
