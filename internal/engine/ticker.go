// Package engine contains the game loop and simulation logic.
// This is the heartbeat of "Fridges must die".
//
// ARCHITECTURAL RULE: The Engine does NOT mutate world state directly.
// It emits TimeTickEvents to the EventLog. Subsystems subscribe and react.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/metrics"
)

// TickRate defines how often the game world updates (in real time).
const TickRate = 50 * time.Millisecond // 20 simulation steps per second

// TickDT is the fixed timestep fed to every system, in seconds.
const TickDT = 0.05

// TimeTickPayload is the data attached to each TimeTickEvent.
type TimeTickPayload struct {
	TickNumber int64   `json:"tick_number"`
	DT         float64 `json:"dt"`
	Depth      int     `json:"depth"`
}

// Ticker manages the game loop heartbeat.
// It does NOT know about players or fridges - only time progression.
type Ticker struct {
	eventLog   *events.EventLog
	logger     *logger.Logger
	tickNumber int64
	stopChan   chan struct{}

	mu    sync.Mutex
	depth int
}

// NewTicker creates a new game ticker.
func NewTicker(eventLog *events.EventLog, log *logger.Logger) *Ticker {
	return &Ticker{
		eventLog:   eventLog,
		logger:     log,
		tickNumber: 0,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the game loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info("Engine Ticker started. The fridges are humming...")

	ticker := time.NewTicker(TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Engine Ticker stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Engine Ticker stopped manually.")
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// Stop gracefully stops the ticker.
func (t *Ticker) Stop() {
	close(t.stopChan)
}

// SetDepth records the active level depth so it can be stamped on ticks.
func (t *Ticker) SetDepth(depth int) {
	t.mu.Lock()
	t.depth = depth
	t.mu.Unlock()
}

// TickNumber returns the number of ticks emitted so far.
func (t *Ticker) TickNumber() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tickNumber
}

// tick processes a single game tick.
func (t *Ticker) tick() {
	started := time.Now()
	defer func() { metrics.Get().RecordTick(time.Since(started)) }()

	t.mu.Lock()
	t.tickNumber++
	payload := TimeTickPayload{
		TickNumber: t.tickNumber,
		DT:         TickDT,
		Depth:      t.depth,
	}
	t.mu.Unlock()

	// Emit the TimeTickEvent - subsystems will react
	event := events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeTimeTick,
		ActorID:   "SYSTEM_CLOCK",
		Payload:   payload,
		Tick:      payload.TickNumber,
		Depth:     payload.Depth,
	}

	t.eventLog.Append(event)

	// One heartbeat line per in-game second keeps the log readable.
	if payload.TickNumber%20 == 0 {
		t.logger.Event("TIME_TICK", "CLOCK", fmt.Sprintf("tick %d depth %d", payload.TickNumber, payload.Depth))
	}
}
