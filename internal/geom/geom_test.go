package geom

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestFromYaw(t *testing.T) {
	// Yaw 0 looks along +Y
	v := FromYaw(0)
	if !almostEqual(v.X, 0) || !almostEqual(v.Y, 1) {
		t.Errorf("Expected yaw 0 to face +Y, got (%f, %f)", v.X, v.Y)
	}

	// Positive yaw turns counterclockwise towards -X
	v = FromYaw(math.Pi / 2)
	if !almostEqual(v.X, -1) || !almostEqual(v.Y, 0) {
		t.Errorf("Expected yaw pi/2 to face -X, got (%f, %f)", v.X, v.Y)
	}
}

func TestPlanarRight(t *testing.T) {
	forward := FromYaw(0) // +Y
	right := forward.PlanarRight()
	if !almostEqual(right.X, 1) || !almostEqual(right.Y, 0) {
		t.Errorf("Expected right of +Y to be +X, got (%f, %f)", right.X, right.Y)
	}
}

func TestNormalizedZeroVector(t *testing.T) {
	v := Vec3{}.Normalized()
	if v != (Vec3{}) {
		t.Errorf("Expected zero vector to normalize to zero, got %v", v)
	}
}

func TestLayerContains(t *testing.T) {
	filter := LayerEnemy | LayerLevel
	if !filter.Contains(LayerEnemy) {
		t.Errorf("Expected filter to contain LayerEnemy")
	}
	if filter.Contains(LayerPlayer) {
		t.Errorf("Expected filter to exclude LayerPlayer")
	}
}

func TestCircleOverlapMiss(t *testing.T) {
	box := NewAABB(0, 0, 1, 1)
	if _, ok := CircleOverlap(5, 0, 1, box); ok {
		t.Errorf("Expected no overlap for a distant circle")
	}
}

func TestCircleOverlapEdge(t *testing.T) {
	box := NewAABB(0, 0, 1, 1)

	// Circle center 1.5 right of the box, radius 1: overlaps by 0.5
	hit, ok := CircleOverlap(1.5, 0, 1, box)
	if !ok {
		t.Fatalf("Expected overlap")
	}
	if !almostEqual(hit.Normal.X, 1) || !almostEqual(hit.Normal.Y, 0) {
		t.Errorf("Expected normal +X, got %v", hit.Normal)
	}
	if !almostEqual(hit.Depth, 0.5) {
		t.Errorf("Expected depth 0.5, got %f", hit.Depth)
	}

	// Pushing out along normal*depth must separate the circle
	cx := 1.5 + hit.Normal.X*hit.Depth
	if _, ok := CircleOverlap(cx, 0, 1, box); ok {
		t.Errorf("Expected no overlap after pushout")
	}
}

func TestCircleOverlapCenterInside(t *testing.T) {
	box := NewAABB(0, 0, 2, 2)

	// Center inside, closest to the right face
	hit, ok := CircleOverlap(1.5, 0, 0.5, box)
	if !ok {
		t.Fatalf("Expected overlap with center inside the box")
	}
	if !almostEqual(hit.Normal.X, 1) || !almostEqual(hit.Normal.Y, 0) {
		t.Errorf("Expected pushout along +X, got %v", hit.Normal)
	}
	if !almostEqual(hit.Depth, 1.0) {
		t.Errorf("Expected depth 1.0 (0.5 to face + 0.5 radius), got %f", hit.Depth)
	}
}

func TestSegmentCastHit(t *testing.T) {
	box := NewAABB(0, 0, 1, 1)

	hit, ok := SegmentCast(-3, 0, 3, 0, box)
	if !ok {
		t.Fatalf("Expected segment to hit the box")
	}
	// Entry at x=-1, one third of the way along the segment
	if !almostEqual(hit.T, 1.0/3.0) {
		t.Errorf("Expected T=1/3, got %f", hit.T)
	}
	if !almostEqual(hit.Normal.X, -1) || !almostEqual(hit.Normal.Y, 0) {
		t.Errorf("Expected normal -X, got %v", hit.Normal)
	}
}

func TestSegmentCastMiss(t *testing.T) {
	box := NewAABB(0, 0, 1, 1)

	if _, ok := SegmentCast(-3, 5, 3, 5, box); ok {
		t.Errorf("Expected segment above the box to miss")
	}
	if _, ok := SegmentCast(2, 0, 5, 0, box); ok {
		t.Errorf("Expected segment past the box to miss")
	}
}

func TestSlideAlong(t *testing.T) {
	// Moving diagonally into a wall facing +Y keeps only the X component
	slid := SlideAlong(Vec3{X: 1, Y: -1}, Vec3{Y: 1})
	if !almostEqual(slid.X, 1) || !almostEqual(slid.Y, 0) {
		t.Errorf("Expected slide (1, 0), got (%f, %f)", slid.X, slid.Y)
	}

	// Moving straight into the wall leaves no velocity
	slid = SlideAlong(Vec3{Y: -1}, Vec3{Y: 1})
	if !almostEqual(slid.Length(), 0) {
		t.Errorf("Expected head-on movement to cancel, got %v", slid)
	}
}
