package voxelworld

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SpatialIndex is a hash grid over the currently collidable voxel set.
// Contains is exact; QueryRegion returns a broad-phase superset of the
// voxels whose cells intersect the queried box.
type SpatialIndex struct {
	cellSize float32
	present  map[uint64]struct{}
	cells    map[uint64]map[uint64]struct{}
}

func NewSpatialIndex(cellSize float32) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = 1.0
	}
	return &SpatialIndex{
		cellSize: cellSize,
		present:  make(map[uint64]struct{}),
		cells:    make(map[uint64]map[uint64]struct{}),
	}
}

func (s *SpatialIndex) cellIndex(pos float32) int32 {
	return int32(math.Floor(float64(pos / s.cellSize)))
}

func (s *SpatialIndex) cellKeyFor(c VoxelCoord) uint64 {
	return PackCoord(VoxelCoord{
		X: s.cellIndex(float32(c.X)),
		Y: s.cellIndex(float32(c.Y)),
		Z: s.cellIndex(float32(c.Z)),
	})
}

func (s *SpatialIndex) Register(c VoxelCoord) {
	key := PackCoord(c)
	if _, ok := s.present[key]; ok {
		return
	}
	s.present[key] = struct{}{}

	cellKey := s.cellKeyFor(c)
	bucket, ok := s.cells[cellKey]
	if !ok {
		bucket = make(map[uint64]struct{})
		s.cells[cellKey] = bucket
	}
	bucket[key] = struct{}{}
}

func (s *SpatialIndex) Unregister(c VoxelCoord) {
	key := PackCoord(c)
	if _, ok := s.present[key]; !ok {
		return
	}
	delete(s.present, key)

	cellKey := s.cellKeyFor(c)
	if bucket, ok := s.cells[cellKey]; ok {
		delete(bucket, key)
		if len(bucket) == 0 {
			delete(s.cells, cellKey)
		}
	}
}

func (s *SpatialIndex) Contains(c VoxelCoord) bool {
	_, ok := s.present[PackCoord(c)]
	return ok
}

func (s *SpatialIndex) Count() int {
	return len(s.present)
}

// QueryRegion collects the contents of every cell intersecting the box.
// Each voxel lives in exactly one cell, so the result has no duplicates,
// but it may contain voxels outside the box: callers narrow-phase it.
func (s *SpatialIndex) QueryRegion(min, max mgl32.Vec3) []uint64 {
	minX, maxX := s.cellIndex(min.X()), s.cellIndex(max.X())
	minY, maxY := s.cellIndex(min.Y()), s.cellIndex(max.Y())
	minZ, maxZ := s.cellIndex(min.Z()), s.cellIndex(max.Z())

	var results []uint64
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				cellKey := PackCoord(VoxelCoord{x, y, z})
				for key := range s.cells[cellKey] {
					results = append(results, key)
				}
			}
		}
	}
	return results
}
