// Package weapon defines the core domain entities for weapons and projectiles.
// This package is PURE and must NOT import any infrastructure packages.
package weapon

import "time"

// Type represents the kind of weapon.
type Type string

const (
	TypePistol  Type = "PISTOL"
	TypeShotgun Type = "SHOTGUN"
	TypeMinigun Type = "MINIGUN"
)

// Spec holds the balance values for a weapon type.
type Spec struct {
	Name             string
	Ammo             int
	Damage           int
	AttackPeriod     time.Duration
	ProjectileSpeed  float64
	MuzzleOffset     float64
	PelletsPerBarrel int     // Projectiles spawned per barrel per shot
	Barrels          int     // Barrel count; each barrel is offset half a unit sideways
	SpreadRad        float64 // Half-angle of pellet spread in radians
	ShellsPerShot    int     // Cosmetic shell casings ejected
}

// Thrown-weapon tuning. A thrown weapon becomes a heavy projectile.
const (
	ThrowSpeed        = 80.0
	ThrowDamage       = 50
	ThrowLaunchOffset = 10.0
)

// ProjectileRadius is the collision radius of a fired round.
const ProjectileRadius = 0.125

// DefaultSpecs returns the built-in balance table. Values can be overridden
// by the balance file at startup.
func DefaultSpecs() map[Type]Spec {
	return map[Type]Spec{
		TypePistol: {
			Name:             "Pistol",
			Ammo:             20,
			Damage:           10,
			AttackPeriod:     time.Second / 4,
			ProjectileSpeed:  500,
			MuzzleOffset:     2.0,
			PelletsPerBarrel: 1,
			Barrels:          1,
			SpreadRad:        0,
			ShellsPerShot:    1,
		},
		TypeShotgun: {
			Name:             "Shotgun",
			Ammo:             10,
			Damage:           5,
			AttackPeriod:     time.Second * 5 / 6, // 1/1.2s between shots
			ProjectileSpeed:  500,
			MuzzleOffset:     2.2,
			PelletsPerBarrel: 4,
			Barrels:          2,
			SpreadRad:        0.12,
			ShellsPerShot:    2,
		},
		TypeMinigun: {
			Name:             "Minigun",
			Ammo:             50,
			Damage:           10,
			AttackPeriod:     time.Second / 8,
			ProjectileSpeed:  500,
			MuzzleOffset:     3.0,
			PelletsPerBarrel: 1,
			Barrels:          2,
			SpreadRad:        0.04,
			ShellsPerShot:    2,
		},
	}
}

// Weapon is a weapon instance. It lives either in the level as a floating
// pickup or in a player's hands.
type Weapon struct {
	Type     Type  `json:"type"`
	Ammo     int   `json:"ammo"`
	Cooldown int64 `json:"-"` // Remaining cooldown in ticks; 0 means ready
}

// New creates a weapon with a full clip for its type.
func New(t Type, specs map[Type]Spec) *Weapon {
	return &Weapon{
		Type: t,
		Ammo: specs[t].Ammo,
	}
}

// Ready reports whether the weapon can fire.
func (w *Weapon) Ready() bool {
	return w.Cooldown <= 0 && w.Ammo > 0
}
