package engine

import (
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/enemy"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/level"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/player"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/weapon"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
)

// GameState is the run lifecycle state machine.
type GameState string

const (
	StateLobby    GameState = "LOBBY"
	StateInGame   GameState = "IN_GAME"
	StatePaused   GameState = "PAUSED"
	StateGameOver GameState = "GAME_OVER"
	StateGameWon  GameState = "GAME_WON"
)

// Projectile is a round in flight. Thrown weapons use the same mechanics
// with a bigger radius and damage.
type Projectile struct {
	ID       string
	Position geom.Vec3
	Velocity geom.Vec3
	Radius   float64
	Damage   int
	SourceID string
	// Filter decides what the projectile can hit besides the level.
	Filter geom.Layer
	// TTL is the remaining lifetime in ticks.
	TTL int64
}

// Pickup is a weapon floating in the level waiting to be grabbed.
type Pickup struct {
	ID       string
	Position geom.Vec3
	Weapon   *weapon.Weapon
	// Depth ties the pickup to the level it spawned in, so it is torn
	// down together with that level.
	Depth int
}

// PickupRadius is the grab distance around a floating weapon.
const PickupRadius = 2.5

// World is the complete mutable state of one run. It is owned by the engine
// goroutine; everyone else reads it through engine accessors.
type World struct {
	State GameState

	Player      *player.Player
	Fridges     map[string]*enemy.Fridge
	Projectiles map[string]*Projectile
	Pickups     map[string]*Pickup

	Level *level.Level
	// PrevLevel stays alive until the entry door has closed behind the
	// player, exactly like the reference level handover.
	PrevLevel *level.Level

	LevelsCleared int
}

// NewWorld creates an empty world in the lobby state.
func NewWorld() *World {
	return &World{
		State:       StateLobby,
		Fridges:     make(map[string]*enemy.Fridge),
		Projectiles: make(map[string]*Projectile),
		Pickups:     make(map[string]*Pickup),
	}
}

// Running reports whether gameplay systems should advance.
func (w *World) Running() bool {
	return w.State == StateInGame
}

// AliveFridges counts the remaining enemies.
func (w *World) AliveFridges() int {
	n := 0
	for _, f := range w.Fridges {
		if f.Alive() {
			n++
		}
	}
	return n
}
