package voxelworld

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tickDt = 1.0 / 60.0

func newSlabWorld(t *testing.T) *World {
	t.Helper()
	w, err := NewWorld(DefaultConfig(), testMaterials(), nil)
	require.NoError(t, err)
	w.LoadChunk(solidChunk(8, 2, 8))
	return w
}

// settle drops the body onto the slab and steps until it rests.
func settle(t *testing.T, w *World) {
	t.Helper()
	w.Body().Position = mgl32.Vec3{4, 3.5, 4}
	for i := 0; i < 240; i++ {
		w.Step(MoveIntent{}, tickDt)
	}
	require.True(t, w.Body().OnGround, "body never landed")
}

func TestWorldFallAndLand(t *testing.T) {
	w := newSlabWorld(t)
	settle(t, w)

	feet := w.Body().Position.Y() - w.Body().HalfExtents.Y()
	assert.InDelta(t, 2.0, feet, 0.2, "feet should rest on the slab top")
	assert.InDelta(t, 0, w.Body().Velocity.Y(), 0.5)
}

func TestWorldJump(t *testing.T) {
	w := newSlabWorld(t)
	settle(t, w)

	res := w.Step(MoveIntent{Jump: true}, tickDt)
	assert.False(t, res.OnGround, "jump should leave the ground")
	assert.Greater(t, w.Body().Velocity.Y(), float32(1.0))
}

func TestWorldWalk(t *testing.T) {
	w := newSlabWorld(t)
	settle(t, w)

	start := w.Body().Position
	for i := 0; i < 30; i++ {
		w.Step(MoveIntent{Move: mgl32.Vec3{0, 0, 1}, Yaw: 0}, tickDt)
	}
	// Yaw 0 walks toward -Z.
	assert.Less(t, w.Body().Position.Z(), start.Z())
	assert.InDelta(t, start.X(), w.Body().Position.X(), 0.05)
}

func TestWorldDigCascade(t *testing.T) {
	w, err := NewWorld(DefaultConfig(), testMaterials(), nil)
	require.NoError(t, err)
	w.LoadChunk(solidChunk(5, 3, 5))

	hidden := VoxelCoord{2, 1, 2}
	top := VoxelCoord{2, 2, 2}

	// The interior voxel is not in the sparse set yet, so digging it no-ops.
	assert.False(t, w.DigVoxel(hidden))

	require.True(t, w.DigVoxel(top))
	assert.True(t, hasBinding(w, hidden), "digging the top voxel should expose the one below")
	assert.False(t, hasBinding(w, top))

	// Now it is real and diggable.
	assert.True(t, w.DigVoxel(hidden))
}

func hasBinding(w *World, c VoxelCoord) bool {
	found := false
	w.Bindings(func(bc VoxelCoord, s Slot, m MaterialTag) bool {
		if bc == c {
			found = true
			return false
		}
		return true
	})
	return found
}

func TestWorldRayPickAndDig(t *testing.T) {
	w := newSlabWorld(t)

	c, normal, ok := w.RayPick(mgl32.Vec3{4.5, 5, 4.5}, mgl32.Vec3{0, -1, 0}, 10)
	require.True(t, ok)
	assert.Equal(t, VoxelCoord{4, 1, 4}, c)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, normal)

	require.True(t, w.DigVoxel(c))

	c, _, ok = w.RayPick(mgl32.Vec3{4.5, 5, 4.5}, mgl32.Vec3{0, -1, 0}, 10)
	require.True(t, ok)
	assert.Equal(t, VoxelCoord{4, 0, 4}, c, "ray should reach the layer below after the dig")
}

func TestWorldNoPhantomCollisionAfterDig(t *testing.T) {
	w := newSlabWorld(t)
	settle(t, w)

	// Open a 2x2 shaft under the body (it straddles four columns). The
	// cache is invalidated by the digs, so the very next steps must fall
	// instead of standing on removed voxels.
	for x := int32(3); x <= 4; x++ {
		for z := int32(3); z <= 4; z++ {
			for y := int32(1); y >= 0; y-- {
				require.True(t, w.DigVoxel(VoxelCoord{x, y, z}))
			}
		}
	}

	startY := w.Body().Position.Y()
	for i := 0; i < 30; i++ {
		w.Step(MoveIntent{}, tickDt)
	}
	assert.Less(t, w.Body().Position.Y(), startY-0.1, "body should fall into the dug shaft")
}

func TestWorldCameraMapping(t *testing.T) {
	w := newSlabWorld(t)

	eye := mgl32.Vec3{4, 6, 4}
	w.SetCameraPosition(eye)
	got := w.CameraPosition()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, eye[i], got[i], 1e-5)
	}
	assert.InDelta(t, eye.Y()-0.7, w.Body().Position.Y(), 1e-5)
}

func TestWorldGroundHeight(t *testing.T) {
	w := newSlabWorld(t)
	w.Body().Position = mgl32.Vec3{4, 6, 4}

	h, ok := w.GroundHeight(4.5, 4.5)
	require.True(t, ok)
	assert.Equal(t, float32(2.0), h)
}

func TestWorldStats(t *testing.T) {
	w := newSlabWorld(t)
	w.Step(MoveIntent{}, tickDt)

	s := w.Stats()
	assert.Equal(t, uint64(1), s.Tick)
	assert.Equal(t, 128, s.Voxels, "an 8x2x8 slab is all boundary, all exposed")
	assert.Equal(t, DefaultConfig().SlotCapacity, s.SlotCapacity)
}

func TestWorldRadialGravity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GravityMode = "radial"
	cfg.PlanetRadius = 20
	w, err := NewWorld(cfg, testMaterials(), nil)
	require.NoError(t, err)

	// Drop toward the planet from just above the snap band and let the
	// analytic surface catch the body.
	w.Body().Position = mgl32.Vec3{0, 21.2, 0}
	for i := 0; i < 120; i++ {
		w.Step(MoveIntent{}, tickDt)
	}

	require.True(t, w.Body().OnGround)
	surface := cfg.PlanetRadius + cfg.HalfExtents().Y()
	assert.InDelta(t, surface, w.Body().Position.Len(), 0.05)
}
