// Package player defines the core domain entity for the player character.
// This package is PURE and must NOT import any infrastructure packages.
package player

import (
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/weapon"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
)

// Movement tuning, matched to the reference balance.
const (
	Health         = 300
	Acceleration   = 50.0
	SlowDownRate   = 5.0
	MaxSpeed       = 40.0
	ColliderRadius = 1.0
)

// Input is the latest movement intent received from the client.
// Forward/Right are -1, 0 or 1; Yaw is the absolute camera yaw in radians.
// Fire is level-triggered: it stays set while the trigger is held.
type Input struct {
	Forward int     `json:"forward"`
	Right   int     `json:"right"`
	Yaw     float64 `json:"yaw"`
	Fire    bool    `json:"fire"`
}

// Active reports whether any directional key is held.
func (in Input) Active() bool {
	return in.Forward != 0 || in.Right != 0
}

// Player represents the state of a participant in the run.
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Position geom.Vec3 `json:"position"`
	Velocity geom.Vec3 `json:"velocity"`
	Yaw      float64   `json:"yaw"`

	Health int `json:"health"`
	Kills  int `json:"kills"`

	// Held is nil until the player picks up a floating weapon.
	Held *weapon.Weapon `json:"held,omitempty"`

	Input Input `json:"-"`
}

// New creates a fresh player at the given spawn position.
func New(id, name string, spawn geom.Vec3) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Position: spawn,
		Health:   Health,
	}
}

// Alive reports whether the player can still act.
func (p *Player) Alive() bool {
	return p.Health > 0
}

// Forward returns the player's planar facing direction.
func (p *Player) Forward() geom.Vec3 {
	return geom.FromYaw(p.Yaw)
}
