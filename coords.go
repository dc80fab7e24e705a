package voxelworld

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// VoxelCoord is an integer position on the voxel grid.
type VoxelCoord struct {
	X, Y, Z int32
}

const (
	coordBits = 21
	coordMask = (1 << coordBits) - 1
)

// PackCoord packs a voxel coordinate into a single uint64 map key.
// 21 bits per axis, two's complement, so each axis covers [-2^20, 2^20).
func PackCoord(c VoxelCoord) uint64 {
	return uint64(uint32(c.X)&coordMask) |
		uint64(uint32(c.Y)&coordMask)<<coordBits |
		uint64(uint32(c.Z)&coordMask)<<(2*coordBits)
}

func UnpackCoord(key uint64) VoxelCoord {
	return VoxelCoord{
		X: signExtend21(uint32(key & coordMask)),
		Y: signExtend21(uint32((key >> coordBits) & coordMask)),
		Z: signExtend21(uint32((key >> (2 * coordBits)) & coordMask)),
	}
}

func signExtend21(v uint32) int32 {
	if v&(1<<(coordBits-1)) != 0 {
		v |= ^uint32(coordMask)
	}
	return int32(v)
}

// neighborOffsets are the 6-connected offsets, one per face.
var neighborOffsets = [6]VoxelCoord{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

func (c VoxelCoord) Add(o VoxelCoord) VoxelCoord {
	return VoxelCoord{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

// Center returns the world-space center of the voxel cell (unit voxels).
func (c VoxelCoord) Center() mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X) + 0.5, float32(c.Y) + 0.5, float32(c.Z) + 0.5}
}

// AABB is an axis-aligned box in world space.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// VoxelAABB returns the unit box occupied by the voxel cell.
func VoxelAABB(c VoxelCoord) AABB {
	min := mgl32.Vec3{float32(c.X), float32(c.Y), float32(c.Z)}
	return AABB{Min: min, Max: min.Add(mgl32.Vec3{1, 1, 1})}
}

// BodyAABB returns the box centered on pos with the given half extents.
func BodyAABB(pos, half mgl32.Vec3) AABB {
	return AABB{Min: pos.Sub(half), Max: pos.Add(half)}
}

// Overlap returns the per-axis overlap of two boxes. All three components
// are positive iff the boxes intersect.
func (a AABB) Overlap(b AABB) mgl32.Vec3 {
	var o mgl32.Vec3
	for i := 0; i < 3; i++ {
		o[i] = minf(a.Max[i], b.Max[i]) - maxf(a.Min[i], b.Min[i])
	}
	return o
}

func (a AABB) Intersects(b AABB) bool {
	o := a.Overlap(b)
	return o.X() > 0 && o.Y() > 0 && o.Z() > 0
}

// CoordAt returns the voxel cell containing a world-space point.
func CoordAt(p mgl32.Vec3) VoxelCoord {
	return VoxelCoord{
		X: int32(math.Floor(float64(p.X()))),
		Y: int32(math.Floor(float64(p.Y()))),
		Z: int32(math.Floor(float64(p.Z()))),
	}
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// safeNormalize guards against NaN propagation from near-zero vectors.
// Returns (fallback, false) when v is too short to normalize.
func safeNormalize(v mgl32.Vec3, fallback mgl32.Vec3) (mgl32.Vec3, bool) {
	l := v.Len()
	if l < 1e-6 {
		return fallback, false
	}
	return v.Mul(1.0 / l), true
}
