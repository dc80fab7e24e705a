package voxelworld

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// World owns one simulation session: the spatial index, the slot store,
// the exposure engines of every loaded chunk, the collision resolver and
// the performance cache. Everything runs on the caller's tick thread; an
// edit and its exposure cascade always complete before the next query.
type World struct {
	ID  uuid.UUID
	cfg Config
	log Logger

	index     *SpatialIndex
	store     *VoxelStore
	cache     *PerformanceCache
	resolver  *CollisionResolver
	materials MaterialTable
	engines   []*ExposureEngine

	body         PlayerBody
	tick         uint64
	lastJumpTick uint64
}

// WorldStats is a diagnostics snapshot.
type WorldStats struct {
	Tick           uint64
	Voxels         int
	SlotCapacity   uint32
	CapacityDrops  int
	LastCandidates int
	Cache          CacheStats
}

func NewWorld(cfg Config, materials MaterialTable, log Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = NewNopLogger()
	}

	index := NewSpatialIndex(cfg.CellSize)
	store := NewVoxelStore(cfg.SlotCapacity, index, log)
	cache := NewPerformanceCache(cfg, log)

	w := &World{
		ID:        uuid.New(),
		cfg:       cfg,
		log:       log,
		index:     index,
		store:     store,
		cache:     cache,
		resolver:  NewCollisionResolver(index, store, materials, cache, cfg, log),
		materials: materials,
		body: PlayerBody{
			HalfExtents: cfg.HalfExtents(),
		},
	}
	log.Infof("world %s: %d slots, gravity=%s", w.ID, cfg.SlotCapacity, cfg.GravityMode)
	return w, nil
}

// LoadChunk scans a dense snapshot and registers every exposed voxel.
// Returns how many voxels were registered; capacity overruns are logged
// and skipped, not fatal.
func (w *World) LoadChunk(chunk *Chunk) int {
	engine := NewExposureEngine(chunk, w.materials, w.store, w.log)
	registered, dropped := engine.RegisterExposed()
	w.engines = append(w.engines, engine)
	w.cache.InvalidateAll()
	w.log.Infof("chunk (%d,%d,%d) %dx%dx%d: %d exposed, %d dropped",
		chunk.Origin.X, chunk.Origin.Y, chunk.Origin.Z,
		chunk.SizeX, chunk.SizeY, chunk.SizeZ, registered, dropped)
	return registered
}

func (w *World) engineFor(c VoxelCoord) *ExposureEngine {
	for _, e := range w.engines {
		lx, ly, lz := e.chunk.Local(c)
		if e.chunk.InBounds(lx, ly, lz) {
			return e
		}
	}
	return nil
}

// DigVoxel removes a voxel, frees its slot and cascades exposure to its
// neighbors. The whole sequence is applied before this returns, so no
// later query can see a half-updated index. Unbound coordinates no-op.
func (w *World) DigVoxel(c VoxelCoord) bool {
	if !w.store.RemoveVoxel(c) {
		return false
	}
	if e := w.engineFor(c); e != nil {
		e.OnRemoved(c)
	}
	w.cache.InvalidateAll()
	return true
}

// Step advances the simulation one tick: input projection, jump, gravity,
// then collision resolution. dt is the tick duration in seconds.
func (w *World) Step(intent MoveIntent, dt float32) CollisionResult {
	w.tick++
	w.cache.BeginFrame()
	if w.cache.ShouldTune() {
		w.cache.Tune(w.resolver)
	}

	up := w.resolver.UpAt(w.body.Position)

	// Walking control replaces the surface-plane velocity and keeps the
	// vertical component for gravity and jumping to act on.
	move := w.moveWorld(intent, up)
	vUp := w.body.Velocity.Dot(up)
	w.body.Velocity = move.Add(up.Mul(vUp))

	if intent.Jump && w.body.OnGround && w.tick-w.lastJumpTick >= w.cfg.JumpCooldownTicks {
		w.body.Velocity = w.body.Velocity.Add(up.Mul(w.cfg.JumpSpeed))
		w.body.OnGround = false
		w.lastJumpTick = w.tick
	}

	w.body.Velocity = w.body.Velocity.Sub(up.Mul(w.cfg.Gravity * dt))

	target := w.body.Position.Add(w.body.Velocity.Mul(dt))
	res := w.resolver.Resolve(w.body.Position, target, w.body.Velocity)

	w.body.Position = res.Position
	w.body.Velocity = res.Velocity
	w.body.OnGround = res.OnGround
	return res
}

// moveWorld projects the camera-local move vector into world space by yaw
// and flattens it onto the plane perpendicular to up, so walking on a
// planet follows the surface.
func (w *World) moveWorld(intent MoveIntent, up mgl32.Vec3) mgl32.Vec3 {
	yaw := float64(mgl32.DegToRad(intent.Yaw))
	forward := mgl32.Vec3{float32(math.Sin(yaw)), 0, float32(-math.Cos(yaw))}
	right := mgl32.Vec3{float32(math.Cos(yaw)), 0, float32(math.Sin(yaw))}

	m := forward.Mul(intent.Move.Z()).Add(right.Mul(intent.Move.X()))
	l := m.Len()
	if l < 1e-6 {
		return mgl32.Vec3{}
	}
	if l > 1 {
		l = 1
	}

	m = m.Sub(up.Mul(m.Dot(up)))
	m, ok := safeNormalize(m, mgl32.Vec3{})
	if !ok {
		return mgl32.Vec3{}
	}
	return m.Mul(w.cfg.MoveSpeed * l)
}

func (w *World) Body() *PlayerBody { return &w.body }

// CameraPosition returns the eye position for the external camera layer.
func (w *World) CameraPosition() mgl32.Vec3 {
	return BodyCenterToCamera(w.body.Position, w.cfg.CameraOffsetVec())
}

// SetCameraPosition places the body so the eye ends up at p.
func (w *World) SetCameraPosition(p mgl32.Vec3) {
	w.body.Position = CameraToBodyCenter(p, w.cfg.CameraOffsetVec())
}

// Bindings exposes the live coordinate<->slot map for the renderer.
func (w *World) Bindings(fn func(c VoxelCoord, s Slot, m MaterialTag) bool) {
	w.store.Bindings(fn)
}

// RayPick walks the sparse set from origin along dir; used by clients to
// choose a dig target.
func (w *World) RayPick(origin, dir mgl32.Vec3, maxDist float32) (VoxelCoord, mgl32.Vec3, bool) {
	return w.resolver.RayPick(origin, dir, maxDist)
}

// GroundHeight samples the surface height in the column under (x,z),
// probing down from the body's current height.
func (w *World) GroundHeight(x, z float32) (float32, bool) {
	return w.resolver.GroundHeight(x, z, w.body.Position.Y())
}

func (w *World) Stats() WorldStats {
	return WorldStats{
		Tick:           w.tick,
		Voxels:         w.store.Len(),
		SlotCapacity:   w.store.Capacity(),
		CapacityDrops:  w.store.CapacityDrops(),
		LastCandidates: w.resolver.LastCandidateCount(),
		Cache:          w.cache.Stats(),
	}
}
