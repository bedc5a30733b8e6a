package level

import (
	"math/rand"
	"testing"

	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
)

func TestGenerateBorders(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := Generate(rng, nil, DefaultParams())

	for i := 0; i < GridSize; i++ {
		for _, cell := range []CellType{g.Cells[0][i], g.Cells[GridSize-1][i], g.Cells[i][0], g.Cells[i][GridSize-1]} {
			if cell != CellColumn && cell != CellDoor {
				t.Fatalf("Expected border cells to be columns or doors, found %d", cell)
			}
		}
	}
}

func TestGenerateDoors(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	g := Generate(rng, nil, DefaultParams())

	if len(g.Doors) != 4 {
		t.Fatalf("Expected one door per wall, got %d", len(g.Doors))
	}
	for side, d := range g.Doors {
		if d.Side != side {
			t.Errorf("Door filed under %s reports side %s", side, d.Side)
		}
		if d.State != DoorLocked {
			t.Errorf("Expected first-level door %s to be locked, got %s", side, d.State)
		}
		gx, gy := d.GridCell()
		if g.Cells[gy][gx] != CellDoor {
			t.Errorf("Expected a door cell at (%d, %d)", gx, gy)
		}
	}
}

func TestGeneratePlayerSpawnBelowTopDoor(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := Generate(rng, nil, DefaultParams())

	top := g.Doors[DoorTop]
	if g.Cells[1][top.GridPos] != CellPlayer {
		t.Errorf("Expected player marker below the top door")
	}
}

func TestGenerateEntryDoor(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	prev := &Door{Side: DoorTop, State: DoorOpen, GridPos: 10}
	g := Generate(rng, prev, DefaultParams())

	// The exit through the top wall becomes an entry in the bottom wall at
	// the same grid position, already open.
	entry := g.Doors[DoorBottom]
	if entry.GridPos != 10 {
		t.Errorf("Expected entry door to reuse grid position 10, got %d", entry.GridPos)
	}
	if entry.State != DoorTemporaryOpen {
		t.Errorf("Expected entry door to start open, got %s", entry.State)
	}

	// No player marker: the player walks in through the door.
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			if g.Cells[y][x] == CellPlayer {
				t.Fatalf("Unexpected player marker at (%d, %d)", x, y)
			}
		}
	}
}

func TestGenerateSpawnCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g := Generate(rng, nil, Params{WeaponSpawns: 4, Enemies: 2})

	weapons, enemies := 0, 0
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			switch g.Cells[y][x] {
			case CellWeapon:
				weapons++
			case CellEnemy:
				enemies++
			}
		}
	}
	if weapons != 4 {
		t.Errorf("Expected 4 weapon spawns, got %d", weapons)
	}
	if enemies != 2 {
		t.Errorf("Expected 2 enemy spawns, got %d", enemies)
	}
}

func TestGenerateNoTrappedPockets(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		g := Generate(rng, nil, DefaultParams())

		for y := 2; y < GridSize-2; y++ {
			for x := 2; x < GridSize-2; x++ {
				if g.Cells[y][x] != CellEmpty {
					continue
				}
				if g.Cells[y-1][x] == CellColumn && g.Cells[y+1][x] == CellColumn &&
					g.Cells[y][x-1] == CellColumn && g.Cells[y][x+1] == CellColumn {
					t.Fatalf("Seed %d left a trapped cell at (%d, %d)", seed, x, y)
				}
			}
		}
	}
}

func TestTutorial(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	g := Generate(rng, nil, DefaultParams())
	g.Tutorial()

	players, content := 0, 0
	for y := 1; y < GridSize-1; y++ {
		for x := 1; x < GridSize-1; x++ {
			switch g.Cells[y][x] {
			case CellPlayer:
				players++
			case CellWeapon, CellEnemy:
				content++
			}
		}
	}
	if players != 1 {
		t.Errorf("Expected exactly one player marker after tutorial rewrite, got %d", players)
	}
	if content != 0 {
		t.Errorf("Expected tutorial to clear weapons and enemies, found %d", content)
	}
}

func TestCellCenter(t *testing.T) {
	c := CellCenter(0, 0, geom.Vec3{})
	if c.X != -Size/2+ColumnSize/2 || c.Y != Size/2-ColumnSize/2 {
		t.Errorf("Unexpected corner cell center %v", c)
	}

	translated := CellCenter(0, 0, geom.Vec3{X: Size})
	if translated.X != c.X+Size {
		t.Errorf("Expected translation to shift the center, got %v", translated)
	}
}

func TestDoorSideMirror(t *testing.T) {
	pairs := map[DoorSide]DoorSide{
		DoorTop:    DoorBottom,
		DoorBottom: DoorTop,
		DoorLeft:   DoorRight,
		DoorRight:  DoorLeft,
	}
	for side, want := range pairs {
		if got := side.Mirror(); got != want {
			t.Errorf("Mirror of %s: expected %s, got %s", side, want, got)
		}
	}
}
