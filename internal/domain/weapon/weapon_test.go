package weapon

import (
	"testing"
	"time"
)

func TestNewFillsClip(t *testing.T) {
	specs := DefaultSpecs()
	w := New(TypeShotgun, specs)

	if w.Type != TypeShotgun {
		t.Errorf("Expected shotgun, got %s", w.Type)
	}
	if w.Ammo != specs[TypeShotgun].Ammo {
		t.Errorf("Expected full clip %d, got %d", specs[TypeShotgun].Ammo, w.Ammo)
	}
	if !w.Ready() {
		t.Errorf("Expected a fresh weapon to be ready")
	}
}

func TestReady(t *testing.T) {
	w := &Weapon{Type: TypePistol, Ammo: 1}
	if !w.Ready() {
		t.Errorf("Expected ready with ammo and no cooldown")
	}

	w.Cooldown = 5
	if w.Ready() {
		t.Errorf("Expected not ready while cooling down")
	}

	w.Cooldown = 0
	w.Ammo = 0
	if w.Ready() {
		t.Errorf("Expected not ready with an empty clip")
	}
}

func TestDefaultSpecsShape(t *testing.T) {
	specs := DefaultSpecs()

	for _, typ := range []Type{TypePistol, TypeShotgun, TypeMinigun} {
		spec, ok := specs[typ]
		if !ok {
			t.Fatalf("Missing spec for %s", typ)
		}
		if spec.Barrels < 1 || spec.PelletsPerBarrel < 1 {
			t.Errorf("%s: barrels and pellets must be at least 1", typ)
		}
		if spec.Ammo <= 0 || spec.Damage <= 0 || spec.AttackPeriod <= 0 {
			t.Errorf("%s: ammo, damage and attack period must be positive", typ)
		}
	}

	// The shotgun is the only true spread weapon: 2 barrels x 4 pellets.
	if got := specs[TypeShotgun].Barrels * specs[TypeShotgun].PelletsPerBarrel; got != 8 {
		t.Errorf("Expected 8 shotgun pellets per shot, got %d", got)
	}
}

func TestAttackPeriods(t *testing.T) {
	specs := DefaultSpecs()

	cases := []struct {
		typ  Type
		want time.Duration
	}{
		{TypePistol, 250 * time.Millisecond},
		{TypeShotgun, time.Second * 5 / 6}, // 1/1.2s
		{TypeMinigun, 125 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := specs[tc.typ].AttackPeriod; got != tc.want {
			t.Errorf("%s: expected attack period %v, got %v", tc.typ, tc.want, got)
		}
	}
}
