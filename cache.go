package voxelworld

import (
	"math"
	"math/bits"

	"github.com/go-gl/mathgl/mgl32"
)

// BroadPhaseTuner is the knob the cache's feedback controller turns:
// the velocity-proportional expansion of the predictive query box.
type BroadPhaseTuner interface {
	ExpandFactor() float32
	SetExpandFactor(f float32)
}

type groundEntry struct {
	height float32
	ok     bool
	frame  uint64
}

type collisionEntry struct {
	posDelta   mgl32.Vec3
	velDelta   mgl32.Vec3
	onGround   bool
	hitWall    bool
	hitCeiling bool
	frame      uint64
}

// PerformanceCache holds frame-stamped caches for repeated ground-height
// and collision queries, plus a feedback controller that retunes the cache
// lifetime and the broad-phase expansion so per-tick cost stays bounded.
type PerformanceCache struct {
	ttl        uint64
	minTTL     uint64
	maxTTL     uint64
	sweepEvery uint64
	tuneEvery  uint64
	quantum    float32
	budget     int

	frame      uint64
	ground     map[uint64]groundEntry
	collisions map[uint64]collisionEntry

	hits             uint64
	misses           uint64
	candidateSum     int
	candidateSamples int

	log Logger
}

// CacheStats is a diagnostics snapshot.
type CacheStats struct {
	Frame         uint64
	TTLFrames     uint64
	Hits          uint64
	Misses        uint64
	GroundEntries int
	CollisionEnts int
}

func NewPerformanceCache(cfg Config, log Logger) *PerformanceCache {
	if log == nil {
		log = NewNopLogger()
	}
	quantum := cfg.CacheQuantum
	if quantum <= 0 {
		quantum = 0.25
	}
	return &PerformanceCache{
		ttl:        cfg.CacheTTLFrames,
		minTTL:     cfg.CacheMinTTLFrames,
		maxTTL:     cfg.CacheMaxTTLFrames,
		sweepEvery: cfg.CacheSweepEvery,
		tuneEvery:  cfg.TuneEvery,
		quantum:    quantum,
		budget:     cfg.CandidateBudget,
		ground:     make(map[uint64]groundEntry),
		collisions: make(map[uint64]collisionEntry),
		log:        log,
	}
}

// BeginFrame advances the frame counter and periodically sweeps expired
// entries. Call once per simulation tick.
func (pc *PerformanceCache) BeginFrame() {
	pc.frame++
	if pc.sweepEvery > 0 && pc.frame%pc.sweepEvery == 0 {
		pc.sweep()
	}
}

func (pc *PerformanceCache) Frame() uint64 { return pc.frame }

func (pc *PerformanceCache) sweep() {
	for k, e := range pc.ground {
		if pc.frame-e.frame > pc.ttl {
			delete(pc.ground, k)
		}
	}
	for k, e := range pc.collisions {
		if pc.frame-e.frame > pc.ttl {
			delete(pc.collisions, k)
		}
	}
}

func (pc *PerformanceCache) quantKey(p mgl32.Vec3, q float32) uint64 {
	return PackCoord(VoxelCoord{
		X: int32(math.Floor(float64(p.X() / q))),
		Y: int32(math.Floor(float64(p.Y() / q))),
		Z: int32(math.Floor(float64(p.Z() / q))),
	})
}

// LookupGround returns (height, found-ground, cache-hit). Negative results
// are cached too: "no ground within probe depth" is a valid answer.
func (pc *PerformanceCache) LookupGround(pos mgl32.Vec3) (float32, bool, bool) {
	key := pc.quantKey(pos, pc.quantum)
	e, ok := pc.ground[key]
	if !ok || pc.frame-e.frame > pc.ttl {
		pc.misses++
		return 0, false, false
	}
	pc.hits++
	return e.height, e.ok, true
}

func (pc *PerformanceCache) StoreGround(pos mgl32.Vec3, height float32, found bool) {
	pc.ground[pc.quantKey(pos, pc.quantum)] = groundEntry{height: height, ok: found, frame: pc.frame}
}

// Collision results are keyed on quantized position and a coarser
// quantized velocity, so a cached result is only reused for a body moving
// roughly the same way through roughly the same place.
func (pc *PerformanceCache) collisionKey(pos, vel mgl32.Vec3) uint64 {
	posKey := pc.quantKey(pos, pc.quantum)
	velKey := pc.quantKey(vel, pc.quantum*4)
	return posKey ^ bits.RotateLeft64(velKey, 21)
}

// Collision entries store the correction relative to the query, not the
// absolute result. A hit during free motion then still integrates the
// body forward instead of replaying a stale position.
func (pc *PerformanceCache) LookupCollision(pos, vel mgl32.Vec3) (CollisionResult, bool) {
	e, ok := pc.collisions[pc.collisionKey(pos, vel)]
	if !ok || pc.frame-e.frame > pc.ttl {
		pc.misses++
		return CollisionResult{}, false
	}
	pc.hits++
	return CollisionResult{
		Position:   pos.Add(e.posDelta),
		Velocity:   vel.Add(e.velDelta),
		OnGround:   e.onGround,
		HitWall:    e.hitWall,
		HitCeiling: e.hitCeiling,
	}, true
}

func (pc *PerformanceCache) StoreCollision(pos, vel mgl32.Vec3, res CollisionResult) {
	pc.collisions[pc.collisionKey(pos, vel)] = collisionEntry{
		posDelta:   res.Position.Sub(pos),
		velDelta:   res.Velocity.Sub(vel),
		onGround:   res.OnGround,
		hitWall:    res.HitWall,
		hitCeiling: res.HitCeiling,
		frame:      pc.frame,
	}
}

// InvalidateAll drops everything. Called on voxel edits so no stale ground
// height or collision result survives a changed world.
func (pc *PerformanceCache) InvalidateAll() {
	pc.ground = make(map[uint64]groundEntry)
	pc.collisions = make(map[uint64]collisionEntry)
}

// ObserveCandidates records a broad-phase candidate count for the tuner.
func (pc *PerformanceCache) ObserveCandidates(n int) {
	pc.candidateSum += n
	pc.candidateSamples++
}

func (pc *PerformanceCache) HitRatio() float64 {
	total := pc.hits + pc.misses
	if total == 0 {
		return 0
	}
	return float64(pc.hits) / float64(total)
}

// ShouldTune reports whether this frame is a controller frame.
func (pc *PerformanceCache) ShouldTune() bool {
	return pc.tuneEvery > 0 && pc.frame%pc.tuneEvery == 0
}

// Tune runs the feedback controller: low hit ratio lengthens the cache
// lifetime, high hit ratio shortens it; candidate counts over budget
// shrink the predictive expansion, counts far under budget grow it back.
func (pc *PerformanceCache) Tune(t BroadPhaseTuner) {
	total := pc.hits + pc.misses
	if total >= 16 {
		ratio := float64(pc.hits) / float64(total)
		switch {
		case ratio < 0.25:
			pc.ttl *= 2
			if pc.ttl > pc.maxTTL {
				pc.ttl = pc.maxTTL
			}
		case ratio > 0.75:
			pc.ttl /= 2
			if pc.ttl < pc.minTTL {
				pc.ttl = pc.minTTL
			}
		}
	}

	if t != nil && pc.candidateSamples > 0 && pc.budget > 0 {
		avg := pc.candidateSum / pc.candidateSamples
		f := t.ExpandFactor()
		if avg > pc.budget {
			f *= 0.8
			if f < 0.02 {
				f = 0.02
			}
		} else if avg < pc.budget/4 {
			f *= 1.25
			if f > 1.0 {
				f = 1.0
			}
		}
		t.SetExpandFactor(f)
	}

	if pc.log.DebugEnabled() {
		pc.log.Debugf("cache tune: ttl=%d hit=%.2f candidates=%d/%d",
			pc.ttl, pc.HitRatio(), pc.candidateSum, pc.candidateSamples)
	}

	pc.hits, pc.misses = 0, 0
	pc.candidateSum, pc.candidateSamples = 0, 0
}

func (pc *PerformanceCache) TTL() uint64 { return pc.ttl }

func (pc *PerformanceCache) Stats() CacheStats {
	return CacheStats{
		Frame:         pc.frame,
		TTLFrames:     pc.ttl,
		Hits:          pc.hits,
		Misses:        pc.misses,
		GroundEntries: len(pc.ground),
		CollisionEnts: len(pc.collisions),
	}
}
