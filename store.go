package voxelworld

import (
	"errors"
	"time"
)

// Slot is a reusable index into a fixed-capacity render/collision array.
type Slot uint32

// ErrCapacityExceeded is returned by AddVoxel when every slot is taken.
// The affected voxel is simply absent from rendering and collision; the
// caller decides whether that matters.
var ErrCapacityExceeded = errors.New("voxelworld: slot capacity exceeded")

type boundVoxel struct {
	slot     Slot
	material MaterialTag
}

// VoxelStore binds exposed voxel coordinates to reusable slots and keeps
// the spatial index in sync. Capacity is fixed at construction and never
// grows; slots are only freed by explicit removal.
type VoxelStore struct {
	capacity  uint32
	nextSlot  uint32
	freeSlots []Slot
	bound     map[uint64]boundVoxel
	index     *SpatialIndex
	log       Logger

	capacityDrops   int
	lastCapacityLog time.Time
}

func NewVoxelStore(capacity uint32, index *SpatialIndex, log Logger) *VoxelStore {
	if log == nil {
		log = NewNopLogger()
	}
	return &VoxelStore{
		capacity: capacity,
		bound:    make(map[uint64]boundVoxel),
		index:    index,
		log:      log,
	}
}

// AddVoxel binds a coordinate to a slot and registers it in the index.
// Adding an already-bound coordinate is a no-op returning its slot.
// Free slots are reused LIFO before the high-water mark advances.
func (vs *VoxelStore) AddVoxel(c VoxelCoord, m MaterialTag) (Slot, error) {
	key := PackCoord(c)
	if bv, ok := vs.bound[key]; ok {
		return bv.slot, nil
	}

	var slot Slot
	switch {
	case len(vs.freeSlots) > 0:
		slot = vs.freeSlots[len(vs.freeSlots)-1]
		vs.freeSlots = vs.freeSlots[:len(vs.freeSlots)-1]
	case vs.nextSlot < vs.capacity:
		slot = Slot(vs.nextSlot)
		vs.nextSlot++
	default:
		vs.noteCapacityDrop(c)
		return 0, ErrCapacityExceeded
	}

	vs.bound[key] = boundVoxel{slot: slot, material: m}
	vs.index.Register(c)
	return slot, nil
}

// RemoveVoxel releases the coordinate's slot and unregisters it.
// Removing an unbound coordinate is a no-op.
func (vs *VoxelStore) RemoveVoxel(c VoxelCoord) bool {
	key := PackCoord(c)
	bv, ok := vs.bound[key]
	if !ok {
		return false
	}
	delete(vs.bound, key)
	vs.freeSlots = append(vs.freeSlots, bv.slot)
	vs.index.Unregister(c)
	return true
}

func (vs *VoxelStore) IsBound(c VoxelCoord) bool {
	_, ok := vs.bound[PackCoord(c)]
	return ok
}

func (vs *VoxelStore) SlotOf(c VoxelCoord) (Slot, bool) {
	bv, ok := vs.bound[PackCoord(c)]
	return bv.slot, ok
}

func (vs *VoxelStore) Material(c VoxelCoord) (MaterialTag, bool) {
	bv, ok := vs.bound[PackCoord(c)]
	return bv.material, ok
}

// Bindings iterates the live coordinate<->slot map for the renderer.
// Return false from fn to stop early.
func (vs *VoxelStore) Bindings(fn func(c VoxelCoord, s Slot, m MaterialTag) bool) {
	for key, bv := range vs.bound {
		if !fn(UnpackCoord(key), bv.slot, bv.material) {
			return
		}
	}
}

func (vs *VoxelStore) Len() int         { return len(vs.bound) }
func (vs *VoxelStore) Capacity() uint32 { return vs.capacity }

// FreeCount returns how many more voxels can be bound right now.
func (vs *VoxelStore) FreeCount() uint32 {
	return vs.capacity - vs.nextSlot + uint32(len(vs.freeSlots))
}

// CapacityDrops returns how many AddVoxel calls failed for lack of a slot.
func (vs *VoxelStore) CapacityDrops() int { return vs.capacityDrops }

// noteCapacityDrop counts the failure and logs at most once per second.
func (vs *VoxelStore) noteCapacityDrop(c VoxelCoord) {
	vs.capacityDrops++
	if time.Since(vs.lastCapacityLog) >= time.Second {
		vs.lastCapacityLog = time.Now()
		vs.log.Warnf("voxel store full (%d slots), dropped (%d,%d,%d); %d drops total",
			vs.capacity, c.X, c.Y, c.Z, vs.capacityDrops)
	}
}
