package engine

import (
	"testing"

	"github.com/shadowcurse/fridges-must-die/server/internal/domain/enemy"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/level"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/player"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/weapon"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
)

type runHarness struct {
	world   *World
	el      *events.EventLog
	levels  *LevelSystem
	pickups *PickupSystem
}

func newRunHarness(runLevels int) *runHarness {
	w := NewWorld()
	el := events.NewEventLog(nil)
	log := logger.NewLogger()
	pickups := NewPickupSystem(w, el, log)
	levels := NewLevelSystem(w, el, log, pickups, weapon.DefaultSpecs(), enemy.DefaultSpec(), level.DefaultParams())

	w.Player = player.New("P1", "Tester", geom.Vec3{})

	levels.OnRunStarted(events.GameEvent{
		Type:    events.EventTypeRunStarted,
		ActorID: "SYSTEM_ENGINE",
		Payload: RunStartedPayload{Seed: 42, RunLevels: runLevels},
	})

	return &runHarness{world: w, el: el, levels: levels, pickups: pickups}
}

func (h *runHarness) killAllFridges() {
	for _, f := range h.world.Fridges {
		f.Health = 0
	}
}

func TestRunStarted(t *testing.T) {
	h := newRunHarness(5)

	if h.world.State != StateInGame {
		t.Fatalf("Expected IN_GAME after run start, got %s", h.world.State)
	}
	if h.world.Level == nil || h.world.Level.Depth != 0 {
		t.Fatalf("Expected a depth-0 level")
	}
	if got := h.world.AliveFridges(); got != level.DefaultParams().Enemies {
		t.Errorf("Expected %d fridges, got %d", level.DefaultParams().Enemies, got)
	}
	if got := len(h.world.Pickups); got != level.DefaultParams().WeaponSpawns {
		t.Errorf("Expected %d weapon pickups, got %d", level.DefaultParams().WeaponSpawns, got)
	}
	if h.world.Player.Position != h.world.Level.PlayerSpawn() {
		t.Errorf("Expected the player at the level spawn")
	}
	if countEvents(h.el, events.EventTypeLevelStarted) != 1 {
		t.Errorf("Expected LEVEL_STARTED")
	}
	if countEvents(h.el, events.EventTypeEnemySpawned) != level.DefaultParams().Enemies {
		t.Errorf("Expected one ENEMY_SPAWNED per fridge")
	}
}

func TestClearOpensDoors(t *testing.T) {
	h := newRunHarness(5)

	// Act: last fridge falls
	h.killAllFridges()
	h.levels.OnTimeTick(tickEvent(100))

	// Assert
	if !h.world.Level.Cleared {
		t.Fatalf("Expected the level to clear")
	}
	if h.world.LevelsCleared != 1 {
		t.Errorf("Expected 1 cleared level, got %d", h.world.LevelsCleared)
	}
	for _, d := range h.world.Level.Grid.Doors {
		if d.State != level.DoorOpen {
			t.Errorf("Expected door %s open, got %s", d.Side, d.State)
		}
	}
	if countEvents(h.el, events.EventTypeDoorChanged) != 4 {
		t.Errorf("Expected 4 DOOR_CHANGED events")
	}
	if countEvents(h.el, events.EventTypeLevelFinished) != 1 {
		t.Errorf("Expected LEVEL_FINISHED")
	}
	if h.world.State != StateInGame {
		t.Errorf("Expected the run to continue, got %s", h.world.State)
	}
}

func TestWalkingThroughDoorSwitchesLevel(t *testing.T) {
	h := newRunHarness(5)
	h.killAllFridges()
	h.levels.OnTimeTick(tickEvent(100))

	// Act: step into an open door
	lvl := h.world.Level
	exit := lvl.Grid.Doors[level.DoorRight]
	gx, gy := exit.GridCell()
	h.world.Player.Position = level.CellCenter(gx, gy, lvl.Translation)
	h.levels.OnTimeTick(tickEvent(101))

	// Assert
	next := h.world.Level
	if next.Depth != 1 {
		t.Fatalf("Expected depth 1, got %d", next.Depth)
	}
	if h.world.PrevLevel != lvl {
		t.Errorf("Expected the old level to linger during the handover")
	}
	if next.Translation != lvl.Translation.Add(exit.Side.Offset()) {
		t.Errorf("Expected the new arena one level-size to the right")
	}

	// The entry door of the next level mirrors the exit and starts open.
	entry := next.Grid.Doors[level.DoorLeft]
	if entry.State != level.DoorTemporaryOpen || entry.GridPos != exit.GridPos {
		t.Errorf("Expected a matching open entry door, got %v", entry)
	}
	if h.world.Player.Position != next.EntrySpawn(entry) {
		t.Errorf("Expected the player just inside the entry")
	}
	if countEvents(h.el, events.EventTypeLevelSwitched) != 1 {
		t.Errorf("Expected LEVEL_SWITCHED")
	}
}

func TestEntryDoorClosesBehindPlayer(t *testing.T) {
	h := newRunHarness(5)
	h.killAllFridges()
	h.levels.OnTimeTick(tickEvent(100))

	lvl := h.world.Level
	exit := lvl.Grid.Doors[level.DoorTop]
	gx, gy := exit.GridCell()
	h.world.Player.Position = level.CellCenter(gx, gy, lvl.Translation)
	h.levels.OnTimeTick(tickEvent(101))

	next := h.world.Level
	entry := next.Grid.Doors[level.DoorBottom]

	// Still near the entry: door stays open, previous level stays up
	h.levels.OnTimeTick(tickEvent(102))
	if entry.State != level.DoorTemporaryOpen {
		t.Fatalf("Expected the entry to stay open near the door")
	}
	if h.world.PrevLevel == nil {
		t.Fatalf("Expected the previous level to linger")
	}

	// Act: walk deep into the arena
	h.world.Player.Position = next.Translation
	h.levels.OnTimeTick(tickEvent(103))

	// Assert: entry locked, previous level torn down
	if entry.State != level.DoorLocked {
		t.Errorf("Expected the entry to lock, got %s", entry.State)
	}
	if h.world.PrevLevel != nil {
		t.Errorf("Expected the previous level to be torn down")
	}
}

func TestGameWonAfterFinalLevel(t *testing.T) {
	h := newRunHarness(1)

	h.killAllFridges()
	h.levels.OnTimeTick(tickEvent(100))

	if h.world.State != StateGameWon {
		t.Fatalf("Expected GAME_WON after the final clear, got %s", h.world.State)
	}
	if countEvents(h.el, events.EventTypeGameWon) != 1 {
		t.Errorf("Expected one GAME_WON event")
	}
}

func TestRunStartedResetsWorld(t *testing.T) {
	h := newRunHarness(5)

	// Dirty the world, then start over
	h.world.Player.Kills = 7
	h.world.Player.Health = 1
	h.world.LevelsCleared = 3
	h.world.Projectiles["X"] = &Projectile{ID: "X"}

	h.levels.OnRunStarted(events.GameEvent{
		Payload: RunStartedPayload{Seed: 43, RunLevels: 5},
	})

	if h.world.Player.Kills != 0 || h.world.Player.Health != player.Health {
		t.Errorf("Expected a fresh player")
	}
	if h.world.LevelsCleared != 0 {
		t.Errorf("Expected the clear counter to reset")
	}
	if len(h.world.Projectiles) != 0 {
		t.Errorf("Expected stray projectiles to vanish")
	}
}

func TestDirectorTrigger(t *testing.T) {
	h := newRunHarness(5)
	d := NewDirector(h.world, h.el, logger.NewLogger(), h.levels)

	before := h.world.AliveFridges()
	if !d.Trigger("AMBUSH", tickEvent(50)) {
		t.Fatalf("Expected the forced ambush to land")
	}
	if got := h.world.AliveFridges(); got != before+1 {
		t.Errorf("Expected one extra fridge, got %d", got)
	}

	// The spawn is announced with the ambush reason.
	found := false
	for _, e := range h.el.Replay() {
		if e.Type != events.EventTypeEnemySpawned {
			continue
		}
		if p, ok := e.Payload.(EnemySpawnedPayload); ok && p.Reason == "AMBUSH" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected an ENEMY_SPAWNED event with the AMBUSH reason")
	}
}

func TestDirectorRollsDoNotPerturbLevels(t *testing.T) {
	// Setup: two identical runs; only one takes director spawns
	quiet := newRunHarness(5)
	noisy := newRunHarness(5)
	d := NewDirector(noisy.world, noisy.el, logger.NewLogger(), noisy.levels)
	d.OnRunStarted(RunStartedPayload{Seed: 42})
	if !d.Trigger("AMBUSH", tickEvent(10)) || !d.Trigger("AMBUSH", tickEvent(11)) {
		t.Fatalf("Expected the forced ambushes to land")
	}

	// Act: clear each run and walk through the right door
	advance := func(h *runHarness) *level.Level {
		h.killAllFridges()
		h.levels.OnTimeTick(tickEvent(100))
		lvl := h.world.Level
		exit := lvl.Grid.Doors[level.DoorRight]
		gx, gy := exit.GridCell()
		h.world.Player.Position = level.CellCenter(gx, gy, lvl.Translation)
		h.levels.OnTimeTick(tickEvent(101))
		return h.world.Level
	}
	a := advance(quiet)
	b := advance(noisy)

	// Assert: the director's rolls never touch the layout stream
	if a.Grid.Cells != b.Grid.Cells {
		t.Errorf("Expected identical depth-1 layouts for the same seed")
	}
}

func TestDirectorRefusesOutsideRun(t *testing.T) {
	h := newRunHarness(5)
	d := NewDirector(h.world, h.el, logger.NewLogger(), h.levels)

	h.world.State = StateGameOver
	if d.Trigger("AMBUSH", tickEvent(50)) {
		t.Errorf("Expected no ambush after the run ended")
	}
}

func TestDirectorRespectsHeadroom(t *testing.T) {
	h := newRunHarness(5)
	d := NewDirector(h.world, h.el, logger.NewLogger(), h.levels)
	d.ambushChance = 1.0 // Roll every tick

	// Fill the arena to the cap
	for h.world.AliveFridges() < level.DefaultParams().Enemies+d.maxAmbush {
		f := enemy.New(events.GenerateEventID(), geom.Vec3{Y: 50}, enemy.DefaultSpec())
		h.world.Fridges[f.ID] = f
	}

	before := h.world.AliveFridges()
	d.OnTimeTick(TimeTickPayload{TickNumber: 60, DT: TickDT})
	if h.world.AliveFridges() != before {
		t.Errorf("Expected the headroom cap to block the ambush")
	}
}
