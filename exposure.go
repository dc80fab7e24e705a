package voxelworld

import "errors"

// VoxelSink receives coordinates that become exposed. The exposure engine
// depends on this capability, not on a concrete store.
type VoxelSink interface {
	AddVoxel(c VoxelCoord, m MaterialTag) (Slot, error)
	IsBound(c VoxelCoord) bool
}

// ExposureEngine decides which voxels of a dense chunk snapshot must exist
// in the sparse collidable set, and incrementally re-evaluates neighbors
// when a voxel is removed.
//
// "Was this cell ever solid" is always answered from the original terrain
// record, never from the live sparse set: a hidden neighbor of a deleted
// voxel is not in the sparse set, yet must still become exposed.
type ExposureEngine struct {
	chunk     *Chunk
	materials MaterialTable
	original  map[uint64]MaterialTag
	deleted   map[uint64]struct{}
	sink      VoxelSink
	log       Logger
}

func NewExposureEngine(chunk *Chunk, materials MaterialTable, sink VoxelSink, log Logger) *ExposureEngine {
	if log == nil {
		log = NewNopLogger()
	}
	e := &ExposureEngine{
		chunk:     chunk,
		materials: materials,
		original:  make(map[uint64]MaterialTag),
		deleted:   make(map[uint64]struct{}),
		sink:      sink,
		log:       log,
	}
	e.buildOriginalRecord()
	return e
}

// buildOriginalRecord snapshots every originally solid cell once. Deletions
// later consult this record, so the chunk itself is never re-read after load.
func (e *ExposureEngine) buildOriginalRecord() {
	for lz := int32(0); lz < e.chunk.SizeZ; lz++ {
		for ly := int32(0); ly < e.chunk.SizeY; ly++ {
			for lx := int32(0); lx < e.chunk.SizeX; lx++ {
				m := e.chunk.At(lx, ly, lz)
				if m != MaterialAir && e.materials.Solid(m) {
					e.original[PackCoord(e.chunk.World(lx, ly, lz))] = m
				}
			}
		}
	}
}

// solidAt reports whether the cell is solid right now (originally solid
// and not deleted).
func (e *ExposureEngine) solidAt(c VoxelCoord) bool {
	key := PackCoord(c)
	if _, dead := e.deleted[key]; dead {
		return false
	}
	_, ok := e.original[key]
	return ok
}

// onBoundary reports whether the world coordinate sits on a chunk face.
func (e *ExposureEngine) onBoundary(c VoxelCoord) bool {
	lx, ly, lz := e.chunk.Local(c)
	return lx == 0 || lx == e.chunk.SizeX-1 ||
		ly == 0 || ly == e.chunk.SizeY-1 ||
		lz == 0 || lz == e.chunk.SizeZ-1
}

// IsExposed reports whether the voxel must exist in the sparse set: it is
// solid and at least one 6-neighbor is air, deleted, or outside the chunk.
// Voxels on the chunk boundary are always exposed; the face beyond the
// boundary is treated as air so chunk seams never show holes.
func (e *ExposureEngine) IsExposed(c VoxelCoord) bool {
	if !e.solidAt(c) {
		return false
	}
	if e.onBoundary(c) {
		return true
	}
	for _, off := range neighborOffsets {
		if !e.solidAt(c.Add(off)) {
			return true
		}
	}
	return false
}

// IsDeleted reports whether the voxel was explicitly removed.
func (e *ExposureEngine) IsDeleted(c VoxelCoord) bool {
	_, ok := e.deleted[PackCoord(c)]
	return ok
}

// OriginalMaterial returns the material the cell held before any edits.
func (e *ExposureEngine) OriginalMaterial(c VoxelCoord) (MaterialTag, bool) {
	m, ok := e.original[PackCoord(c)]
	return m, ok
}

// RegisterExposed walks the chunk once and feeds every exposed voxel to
// the sink. Capacity failures are not fatal: the voxel is skipped and
// counted, everything else still registers.
func (e *ExposureEngine) RegisterExposed() (registered, dropped int) {
	for lz := int32(0); lz < e.chunk.SizeZ; lz++ {
		for ly := int32(0); ly < e.chunk.SizeY; ly++ {
			for lx := int32(0); lx < e.chunk.SizeX; lx++ {
				c := e.chunk.World(lx, ly, lz)
				if !e.IsExposed(c) {
					continue
				}
				m := e.original[PackCoord(c)]
				if _, err := e.sink.AddVoxel(c, m); err != nil {
					if errors.Is(err, ErrCapacityExceeded) {
						dropped++
						continue
					}
					e.log.Errorf("register exposed (%d,%d,%d): %v", c.X, c.Y, c.Z, err)
					continue
				}
				registered++
			}
		}
	}
	if dropped > 0 {
		e.log.Warnf("chunk registration dropped %d exposed voxels (capacity)", dropped)
	}
	return registered, dropped
}

// OnRemoved marks the coordinate deleted and re-evaluates exactly its six
// neighbors for new exposure. The removed coordinate itself can never
// re-register in the same pass: it is in the deleted set before any
// neighbor is tested.
func (e *ExposureEngine) OnRemoved(c VoxelCoord) {
	e.deleted[PackCoord(c)] = struct{}{}

	for _, off := range neighborOffsets {
		n := c.Add(off)
		key := PackCoord(n)
		if _, dead := e.deleted[key]; dead {
			continue
		}
		if _, wasSolid := e.original[key]; !wasSolid {
			continue
		}
		if e.sink.IsBound(n) {
			continue
		}
		if !e.IsExposed(n) {
			continue
		}
		if _, err := e.sink.AddVoxel(n, e.original[key]); err != nil {
			if !errors.Is(err, ErrCapacityExceeded) {
				e.log.Errorf("cascade expose (%d,%d,%d): %v", n.X, n.Y, n.Z, err)
			}
		}
	}
}
