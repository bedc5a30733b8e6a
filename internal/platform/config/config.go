// Package config loads server configuration from the environment and the
// optional balance file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/shadowcurse/fridges-must-die/server/internal/domain/enemy"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/level"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/weapon"
)

// Server holds process-level settings, parsed from FRIDGE_* environment
// variables.
type Server struct {
	Addr          string        `env:"FRIDGE_ADDR"            envDefault:":8080"`
	StorageDriver string        `env:"FRIDGE_STORAGE_DRIVER"  envDefault:"sqlite"` // "sqlite" or "postgres"
	SQLitePath    string        `env:"FRIDGE_SQLITE_PATH"     envDefault:"data/fridges.db"`
	PostgresDSN   string        `env:"FRIDGE_POSTGRES_DSN"`
	BalancePath   string        `env:"FRIDGE_BALANCE_PATH"`
	RunLevels     int           `env:"FRIDGE_RUN_LEVELS"      envDefault:"5"`
	Seed          int64         `env:"FRIDGE_RUN_SEED"`
	Tutorial      bool          `env:"FRIDGE_TUTORIAL"        envDefault:"false"`
	SnapshotEvery time.Duration `env:"FRIDGE_SNAPSHOT_EVERY"  envDefault:"5s"`
	Profile       string        `env:"FRIDGE_PROFILE"         envDefault:"default"` // "default", "stress" or "low"
}

// Load parses the server configuration from the environment.
func Load() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// WeaponBalance overrides a single weapon's tuning. Zero values keep the
// built-in default.
type WeaponBalance struct {
	Ammo            int     `yaml:"ammo"`
	Damage          int     `yaml:"damage"`
	AttackPeriodSec float64 `yaml:"attack_period_sec"`
	ProjectileSpeed float64 `yaml:"projectile_speed"`
	SpreadRad       float64 `yaml:"spread_rad"`
}

// EnemyBalance overrides fridge tuning.
type EnemyBalance struct {
	Health        int     `yaml:"health"`
	ChaseSpeed    float64 `yaml:"chase_speed"`
	AggroRange    float64 `yaml:"aggro_range"`
	ContactDamage int     `yaml:"contact_damage"`
	VolleyDamage  int     `yaml:"volley_damage"`
	VolleyRange   float64 `yaml:"volley_range"`
	PartCount     int     `yaml:"part_count"`
}

// LevelBalance overrides arena content density.
type LevelBalance struct {
	WeaponSpawns int `yaml:"weapon_spawns"`
	Enemies      int `yaml:"enemies"`
}

// Balance is the optional YAML balance file, layered over the built-in
// defaults.
type Balance struct {
	Weapons   map[string]WeaponBalance `yaml:"weapons"`
	Enemy     EnemyBalance             `yaml:"enemy"`
	Level     LevelBalance             `yaml:"level"`
	RunLevels int                      `yaml:"run_levels"`
}

// LoadBalance reads a balance file. A missing path returns an empty Balance
// so every value stays at its default.
func LoadBalance(path string) (Balance, error) {
	var b Balance
	if path == "" {
		return b, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, fmt.Errorf("read balance file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return Balance{}, fmt.Errorf("parse balance file: %w", err)
	}
	return b, nil
}

// WeaponSpecs merges the balance overrides into the default weapon table.
func (b Balance) WeaponSpecs() map[weapon.Type]weapon.Spec {
	specs := weapon.DefaultSpecs()
	for name, override := range b.Weapons {
		t := weapon.Type(name)
		spec, ok := specs[t]
		if !ok {
			continue
		}
		if override.Ammo > 0 {
			spec.Ammo = override.Ammo
		}
		if override.Damage > 0 {
			spec.Damage = override.Damage
		}
		if override.AttackPeriodSec > 0 {
			spec.AttackPeriod = time.Duration(override.AttackPeriodSec * float64(time.Second))
		}
		if override.ProjectileSpeed > 0 {
			spec.ProjectileSpeed = override.ProjectileSpeed
		}
		if override.SpreadRad > 0 {
			spec.SpreadRad = override.SpreadRad
		}
		specs[t] = spec
	}
	return specs
}

// EnemySpec merges the balance overrides into the default fridge tuning.
func (b Balance) EnemySpec() enemy.Spec {
	spec := enemy.DefaultSpec()
	if b.Enemy.Health > 0 {
		spec.Health = b.Enemy.Health
	}
	if b.Enemy.ChaseSpeed > 0 {
		spec.ChaseSpeed = b.Enemy.ChaseSpeed
	}
	if b.Enemy.AggroRange > 0 {
		spec.AggroRange = b.Enemy.AggroRange
	}
	if b.Enemy.ContactDamage > 0 {
		spec.ContactDamage = b.Enemy.ContactDamage
	}
	if b.Enemy.VolleyDamage > 0 {
		spec.VolleyDamage = b.Enemy.VolleyDamage
	}
	if b.Enemy.VolleyRange > 0 {
		spec.VolleyRange = b.Enemy.VolleyRange
	}
	if b.Enemy.PartCount > 0 {
		spec.PartCount = b.Enemy.PartCount
	}
	return spec
}

// LevelParams merges the balance overrides into the default level density.
func (b Balance) LevelParams() level.Params {
	params := level.DefaultParams()
	if b.Level.WeaponSpawns > 0 {
		params.WeaponSpawns = b.Level.WeaponSpawns
	}
	if b.Level.Enemies > 0 {
		params.Enemies = b.Level.Enemies
	}
	return params
}
