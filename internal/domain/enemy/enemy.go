// Package enemy defines the core domain entities for hostile fridges.
// This package is PURE and must NOT import any infrastructure packages.
package enemy

import (
	"time"

	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
)

// Spec holds the balance values for the fridge enemy.
type Spec struct {
	Health         int
	ChaseSpeed     float64
	ColliderRadius float64
	AggroRange     float64
	// Contact attack
	ContactDamage int
	ContactPeriod time.Duration
	// Ranged volley: fridges fling frost rounds at the player
	VolleyDamage    int
	VolleyPeriod    time.Duration
	VolleyRange     float64
	ProjectileSpeed float64
	// Death burst cosmetics
	PartCount int
}

// DefaultSpec returns the built-in fridge balance. Values can be overridden
// by the balance file at startup.
func DefaultSpec() Spec {
	return Spec{
		Health:          100,
		ChaseSpeed:      4.0,
		ColliderRadius:  2.0,
		AggroRange:      60.0,
		ContactDamage:   20,
		ContactPeriod:   time.Second,
		VolleyDamage:    10,
		VolleyPeriod:    2 * time.Second,
		VolleyRange:     40.0,
		ProjectileSpeed: 60.0,
		PartCount:       12,
	}
}

// Fridge is a single enemy instance.
type Fridge struct {
	ID       string    `json:"id"`
	Position geom.Vec3 `json:"position"`
	Health   int       `json:"health"`

	// Remaining cooldowns in ticks; 0 means the attack is available.
	ContactCooldown int64 `json:"-"`
	VolleyCooldown  int64 `json:"-"`
}

// New creates a fridge at the given spawn position.
func New(id string, spawn geom.Vec3, spec Spec) *Fridge {
	return &Fridge{
		ID:       id,
		Position: spawn,
		Health:   spec.Health,
	}
}

// Alive reports whether the fridge is still a threat.
func (f *Fridge) Alive() bool {
	return f.Health > 0
}
