package engine

import (
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/level"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/weapon"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
)

// Snapshot types are what the network layer broadcasts to clients. They are
// plain copies; holding one never aliases live world state.

type PlayerSnapshot struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Position geom.Vec3      `json:"position"`
	Yaw      float64        `json:"yaw"`
	Health   int            `json:"health"`
	Kills    int            `json:"kills"`
	Weapon   *weapon.Weapon `json:"weapon,omitempty"`
}

type FridgeSnapshot struct {
	ID       string    `json:"id"`
	Position geom.Vec3 `json:"position"`
	Health   int       `json:"health"`
}

type ProjectileSnapshot struct {
	ID       string    `json:"id"`
	Position geom.Vec3 `json:"position"`
	Velocity geom.Vec3 `json:"velocity"`
	Radius   float64   `json:"radius"`
}

type PickupSnapshot struct {
	ID       string      `json:"id"`
	Position geom.Vec3   `json:"position"`
	Type     weapon.Type `json:"type"`
}

type DoorSnapshot struct {
	Side  level.DoorSide  `json:"side"`
	State level.DoorState `json:"state"`
}

// WorldSnapshot is one consistent view of the run.
type WorldSnapshot struct {
	State         GameState            `json:"state"`
	Tick          int64                `json:"tick"`
	Depth         int                  `json:"depth"`
	LevelsCleared int                  `json:"levels_cleared"`
	Player        *PlayerSnapshot      `json:"player,omitempty"`
	Fridges       []FridgeSnapshot     `json:"fridges"`
	Projectiles   []ProjectileSnapshot `json:"projectiles"`
	Pickups       []PickupSnapshot     `json:"pickups"`
	Doors         []DoorSnapshot       `json:"doors"`
}

// LevelLayout is the static geometry of the active arena, served once per
// level rather than per snapshot.
type LevelLayout struct {
	Depth       int                                            `json:"depth"`
	Translation geom.Vec3                                      `json:"translation"`
	Cells       [level.GridSize][level.GridSize]level.CellType `json:"cells"`
	Doors       []DoorSnapshot                                 `json:"doors"`
}

// Snapshot copies the current world state under the read lock.
func (e *Engine) Snapshot() WorldSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	w := e.world
	snap := WorldSnapshot{
		State:         w.State,
		Tick:          e.ticker.TickNumber(),
		LevelsCleared: w.LevelsCleared,
		Fridges:       make([]FridgeSnapshot, 0, len(w.Fridges)),
		Projectiles:   make([]ProjectileSnapshot, 0, len(w.Projectiles)),
		Pickups:       make([]PickupSnapshot, 0, len(w.Pickups)),
	}

	if p := w.Player; p != nil {
		ps := PlayerSnapshot{
			ID:       p.ID,
			Name:     p.Name,
			Position: p.Position,
			Yaw:      p.Yaw,
			Health:   p.Health,
			Kills:    p.Kills,
		}
		if p.Held != nil {
			held := *p.Held
			ps.Weapon = &held
		}
		snap.Player = &ps
	}

	for _, f := range w.Fridges {
		if !f.Alive() {
			continue
		}
		snap.Fridges = append(snap.Fridges, FridgeSnapshot{ID: f.ID, Position: f.Position, Health: f.Health})
	}
	for _, proj := range w.Projectiles {
		snap.Projectiles = append(snap.Projectiles, ProjectileSnapshot{
			ID: proj.ID, Position: proj.Position, Velocity: proj.Velocity, Radius: proj.Radius,
		})
	}
	for _, pickup := range w.Pickups {
		snap.Pickups = append(snap.Pickups, PickupSnapshot{
			ID: pickup.ID, Position: pickup.Position, Type: pickup.Weapon.Type,
		})
	}

	if lvl := w.Level; lvl != nil {
		snap.Depth = lvl.Depth
		for _, d := range lvl.Grid.Doors {
			snap.Doors = append(snap.Doors, DoorSnapshot{Side: d.Side, State: d.State})
		}
	}

	return snap
}

// Layout returns the static geometry of the active level, or false before a
// run has started.
func (e *Engine) Layout() (LevelLayout, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	lvl := e.world.Level
	if lvl == nil {
		return LevelLayout{}, false
	}

	layout := LevelLayout{
		Depth:       lvl.Depth,
		Translation: lvl.Translation,
		Cells:       lvl.Grid.Cells,
	}
	for _, d := range lvl.Grid.Doors {
		layout.Doors = append(layout.Doors, DoorSnapshot{Side: d.Side, State: d.State})
	}
	return layout, true
}
