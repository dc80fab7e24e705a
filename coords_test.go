package voxelworld

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPackCoordRoundTrip(t *testing.T) {
	cases := []VoxelCoord{
		{0, 0, 0},
		{1, 2, 3},
		{-1, -1, -1},
		{-512, 1024, -77},
		{1 << 19, -(1 << 19), 123456},
	}
	for _, c := range cases {
		got := UnpackCoord(PackCoord(c))
		if got != c {
			t.Errorf("round trip %v -> %v", c, got)
		}
	}
}

func TestPackCoordDistinct(t *testing.T) {
	// Neighboring coordinates must never collide.
	seen := make(map[uint64]VoxelCoord)
	for x := int32(-2); x <= 2; x++ {
		for y := int32(-2); y <= 2; y++ {
			for z := int32(-2); z <= 2; z++ {
				c := VoxelCoord{x, y, z}
				key := PackCoord(c)
				if prev, ok := seen[key]; ok {
					t.Fatalf("key collision: %v and %v", prev, c)
				}
				seen[key] = c
			}
		}
	}
}

func TestAABBOverlap(t *testing.T) {
	a := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}
	b := AABB{Min: mgl32.Vec3{0.9, 0.5, 0.7}, Max: mgl32.Vec3{1.9, 1.5, 1.7}}

	o := a.Overlap(b)
	if !a.Intersects(b) {
		t.Fatal("boxes should intersect")
	}
	approx := func(got, want float32) bool { return absf(got-want) < 1e-5 }
	if !approx(o.X(), 0.1) || !approx(o.Y(), 0.5) || !approx(o.Z(), 0.3) {
		t.Errorf("overlap = %v, want (0.1, 0.5, 0.3)", o)
	}

	c := AABB{Min: mgl32.Vec3{2, 2, 2}, Max: mgl32.Vec3{3, 3, 3}}
	if a.Intersects(c) {
		t.Error("disjoint boxes reported intersecting")
	}
	// Touching faces do not count as intersection.
	d := AABB{Min: mgl32.Vec3{1, 0, 0}, Max: mgl32.Vec3{2, 1, 1}}
	if a.Intersects(d) {
		t.Error("face-touching boxes reported intersecting")
	}
}

func TestCoordAt(t *testing.T) {
	if got := CoordAt(mgl32.Vec3{0.5, 1.9, -0.1}); got != (VoxelCoord{0, 1, -1}) {
		t.Errorf("CoordAt = %v", got)
	}
}

func TestSafeNormalize(t *testing.T) {
	fallback := mgl32.Vec3{0, 1, 0}
	v, ok := safeNormalize(mgl32.Vec3{}, fallback)
	if ok || v != fallback {
		t.Errorf("zero vector should return fallback, got %v ok=%v", v, ok)
	}
	v, ok = safeNormalize(mgl32.Vec3{3, 0, 4}, fallback)
	if !ok || absf(v.Len()-1) > 1e-6 {
		t.Errorf("normalize failed: %v ok=%v", v, ok)
	}
}
