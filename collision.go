package voxelworld

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CollisionResult is the resolved motion for one tick.
type CollisionResult struct {
	Position   mgl32.Vec3
	Velocity   mgl32.Vec3
	OnGround   bool
	HitWall    bool
	HitCeiling bool
}

// CollisionResolver moves a body AABB through the sparse voxel set:
// broad phase over the spatial index, exact AABB narrow phase, then
// per-axis penetration correction in the fixed order Y, X, Z. Vertical
// support is decided first because grounded state feeds movement logic.
type CollisionResolver struct {
	index     *SpatialIndex
	store     *VoxelStore
	materials MaterialTable
	cache     *PerformanceCache
	cfg       Config
	half      mgl32.Vec3
	expand    float32
	log       Logger

	lastCandidates int
}

func NewCollisionResolver(index *SpatialIndex, store *VoxelStore, materials MaterialTable, cache *PerformanceCache, cfg Config, log Logger) *CollisionResolver {
	if log == nil {
		log = NewNopLogger()
	}
	return &CollisionResolver{
		index:     index,
		store:     store,
		materials: materials,
		cache:     cache,
		cfg:       cfg,
		half:      cfg.HalfExtents(),
		expand:    cfg.PredictiveExpand,
		log:       log,
	}
}

// ExpandFactor and SetExpandFactor let the cache controller retune the
// predictive broad-phase expansion at runtime.
func (r *CollisionResolver) ExpandFactor() float32     { return r.expand }
func (r *CollisionResolver) SetExpandFactor(f float32) { r.expand = f }

// LastCandidateCount returns the broad-phase candidate count of the most
// recent Resolve call.
func (r *CollisionResolver) LastCandidateCount() int { return r.lastCandidates }

// UpAt returns the current up direction at a position. Radial gravity
// recomputes it from the planet center every query; a zero-length guard
// keeps a body at the exact center from producing NaNs.
func (r *CollisionResolver) UpAt(pos mgl32.Vec3) mgl32.Vec3 {
	if r.cfg.Mode() == GravityRadial {
		up, _ := safeNormalize(pos.Sub(r.cfg.PlanetCenterVec()), mgl32.Vec3{0, 1, 0})
		return up
	}
	return mgl32.Vec3{0, 1, 0}
}

// Resolve moves the body from current toward target and returns the
// corrected position, velocity and contact flags.
//
// A jumping body never touches the collision cache: the velocity key is
// coarse, so a snap stored for a slow upward drift could otherwise be
// replayed onto a jump and pull it back to the surface.
func (r *CollisionResolver) Resolve(current, target, vel mgl32.Vec3) CollisionResult {
	jumping := vel.Dot(r.UpAt(target)) > r.cfg.JumpVelocityThreshold
	if r.cache != nil && !jumping {
		if res, ok := r.cache.LookupCollision(target, vel); ok {
			return res
		}
	}
	res := r.resolve(current, target, vel)
	if r.cache != nil && !jumping {
		r.cache.StoreCollision(target, vel, res)
	}
	return res
}

type axisHit struct {
	overlap float32
	dir     float32
}

func (r *CollisionResolver) resolve(current, target, vel mgl32.Vec3) CollisionResult {
	body := BodyAABB(target, r.half)

	// Predictive query box: spans the swept path from current to target
	// and grows per axis proportionally to speed, so fast motion cannot
	// tunnel past the broad phase. Narrow phase still tests only the
	// target AABB; the sweep just widens the candidate superset.
	sweepMin := mgl32.Vec3{
		minf(current.X(), target.X()),
		minf(current.Y(), target.Y()),
		minf(current.Z(), target.Z()),
	}.Sub(r.half)
	sweepMax := mgl32.Vec3{
		maxf(current.X(), target.X()),
		maxf(current.Y(), target.Y()),
		maxf(current.Z(), target.Z()),
	}.Add(r.half)
	expand := mgl32.Vec3{
		absf(vel.X())*r.expand + r.cfg.BroadPhaseMargin,
		absf(vel.Y())*r.expand + r.cfg.BroadPhaseMargin,
		absf(vel.Z())*r.expand + r.cfg.BroadPhaseMargin,
	}
	candidates := r.index.QueryRegion(sweepMin.Sub(expand), sweepMax.Add(expand))
	r.lastCandidates = len(candidates)
	if r.cache != nil {
		r.cache.ObserveCandidates(len(candidates))
	}

	// One dominant hit per axis: every intersecting voxel is assigned to
	// the axis where its overlap is smallest (minimum translation), and
	// the deepest hit on each axis wins.
	var best [3]axisHit
	collided := false

	for _, key := range candidates {
		c := UnpackCoord(key)
		// Re-validate against the authoritative index so a stale candidate
		// can never resolve as a phantom collision.
		if !r.index.Contains(c) {
			continue
		}
		if m, ok := r.store.Material(c); ok && !r.materials.Collidable(m) {
			continue
		}
		o := body.Overlap(VoxelAABB(c))
		if o.X() <= 0 || o.Y() <= 0 || o.Z() <= 0 {
			continue
		}
		collided = true

		axis := 0
		if o.Y() < o[axis] {
			axis = 1
		}
		if o.Z() < o[axis] {
			axis = 2
		}

		dir := float32(1)
		if target[axis] < c.Center()[axis] {
			dir = -1
		}
		if o[axis] > best[axis].overlap {
			best[axis] = axisHit{overlap: o[axis], dir: dir}
		}
	}

	pos := target
	res := CollisionResult{}

	if collided {
		// Y first: vertical support decides grounded state before any
		// lateral sliding. ResolutionStrength < 1 avoids one-frame jitter.
		for _, axis := range [3]int{1, 0, 2} {
			h := best[axis]
			if h.overlap <= 0 {
				continue
			}
			pos[axis] += h.overlap * h.dir * r.cfg.ResolutionStrength
			switch axis {
			case 1:
				if h.dir > 0 {
					res.OnGround = true
					if vel[1] < 0 {
						vel[1] = 0
					}
				} else {
					res.HitCeiling = true
					if vel[1] > 0 {
						vel[1] = 0
					}
				}
			default:
				res.HitWall = true
				vel[axis] *= r.cfg.WallDamping
			}
		}
	} else {
		pos, vel, res.OnGround = r.groundAttach(pos, vel)
	}

	vel = r.damp(pos, vel, res.OnGround)

	res.Position = pos
	res.Velocity = vel
	return res
}

// groundAttach snaps the body onto a nearby surface when it is not
// colliding and not jumping. A body whose up-velocity exceeds the jump
// threshold is mid-jump and must never be pulled back by the snap.
func (r *CollisionResolver) groundAttach(pos, vel mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3, bool) {
	up := r.UpAt(pos)
	if vel.Dot(up) > r.cfg.JumpVelocityThreshold {
		return pos, vel, false
	}

	if r.cfg.Mode() == GravityRadial {
		rel := pos.Sub(r.cfg.PlanetCenterVec())
		dist := rel.Len()
		if dist < 1e-6 {
			return pos, vel, false
		}
		surface := r.cfg.PlanetRadius + r.half.Y()
		if absf(dist-surface) > r.cfg.SnapTolerance {
			return pos, vel, false
		}
		pos = r.cfg.PlanetCenterVec().Add(up.Mul(surface))
		if inward := vel.Dot(up); inward < 0 {
			vel = vel.Sub(up.Mul(inward))
		}
		return pos, vel, true
	}

	h, ok := r.GroundHeight(pos.X(), pos.Z(), pos.Y())
	if !ok {
		return pos, vel, false
	}
	feet := pos.Y() - r.half.Y()
	if absf(feet-h) > r.cfg.SnapTolerance {
		return pos, vel, false
	}
	pos[1] = h + r.half.Y()
	if vel[1] < 0 {
		vel[1] = 0
	}
	return pos, vel, true
}

// GroundHeight samples the top surface of the highest voxel in the column
// under (x,z), probing downward from fromY up to GroundProbeDepth cells.
// Results, including misses, go through the performance cache.
func (r *CollisionResolver) GroundHeight(x, z, fromY float32) (float32, bool) {
	probe := mgl32.Vec3{x, fromY, z}
	if r.cache != nil {
		if h, found, hit := r.cache.LookupGround(probe); hit {
			return h, found
		}
	}

	cx := int32(math.Floor(float64(x)))
	cz := int32(math.Floor(float64(z)))
	startY := int32(math.Floor(float64(fromY - r.half.Y())))

	var height float32
	found := false
	for dy := int32(0); dy <= r.cfg.GroundProbeDepth; dy++ {
		if r.index.Contains(VoxelCoord{cx, startY - dy, cz}) {
			height = float32(startY-dy) + 1
			found = true
			break
		}
	}

	if r.cache != nil {
		r.cache.StoreGround(probe, height, found)
	}
	return height, found
}

// damp applies friction to the velocity component perpendicular to up.
// Grounded bodies brake hard (surface friction, per material when the
// voxel underfoot declares one); airborne bodies keep responsiveness.
func (r *CollisionResolver) damp(pos, vel mgl32.Vec3, grounded bool) mgl32.Vec3 {
	up := r.UpAt(pos)
	vUp := vel.Dot(up)
	horiz := vel.Sub(up.Mul(vUp))

	if grounded {
		f := r.cfg.GroundFriction
		below := CoordAt(pos.Sub(up.Mul(r.half.Y() + 0.1)))
		if m, ok := r.store.Material(below); ok {
			if props := r.materials.Props(m); props.Friction > 0 {
				f = props.Friction
			}
		}
		horiz = horiz.Mul(1 - f)
	} else {
		horiz = horiz.Mul(1 - r.cfg.AirDrag)
	}
	return horiz.Add(up.Mul(vUp))
}

// RayPick walks the voxel grid from origin along dir and returns the first
// registered voxel hit and the face normal it was entered through. This is
// how a digging client picks its removal target.
func (r *CollisionResolver) RayPick(origin, dir mgl32.Vec3, maxDist float32) (VoxelCoord, mgl32.Vec3, bool) {
	d, ok := safeNormalize(dir, mgl32.Vec3{})
	if !ok {
		return VoxelCoord{}, mgl32.Vec3{}, false
	}

	cur := CoordAt(origin)

	var step [3]int32
	var tMax, tDelta [3]float32
	for i := 0; i < 3; i++ {
		if d[i] > 1e-7 {
			step[i] = 1
			tMax[i] = (float32(cur.axis(i)+1) - origin[i]) / d[i]
			tDelta[i] = 1 / d[i]
		} else if d[i] < -1e-7 {
			step[i] = -1
			tMax[i] = (origin[i] - float32(cur.axis(i))) / -d[i]
			tDelta[i] = -1 / d[i]
		} else {
			step[i] = 0
			tMax[i] = float32(math.Inf(1))
			tDelta[i] = float32(math.Inf(1))
		}
	}

	// Starting inside a voxel: no entry face to report.
	if r.index.Contains(cur) {
		return cur, mgl32.Vec3{}, true
	}

	for {
		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		if tMax[axis] > maxDist {
			return VoxelCoord{}, mgl32.Vec3{}, false
		}
		tMax[axis] += tDelta[axis]
		switch axis {
		case 0:
			cur.X += step[0]
		case 1:
			cur.Y += step[1]
		case 2:
			cur.Z += step[2]
		}

		if r.index.Contains(cur) {
			var normal mgl32.Vec3
			normal[axis] = -float32(step[axis])
			return cur, normal, true
		}
	}
}

func (c VoxelCoord) axis(i int) int32 {
	switch i {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}
