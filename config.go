package voxelworld

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// GravityMode selects how "up" is computed.
type GravityMode int

const (
	// GravityDown pulls along the fixed -Y axis.
	GravityDown GravityMode = iota
	// GravityRadial pulls toward PlanetCenter; up is recomputed per query.
	GravityRadial
)

// Config holds every tunable of the simulation. The thresholds here were
// tuned empirically, so they are configuration, not derived constants.
type Config struct {
	CellSize     float32 `yaml:"cell_size"`
	SlotCapacity uint32  `yaml:"slot_capacity"`

	BodyHalfExtents [3]float32 `yaml:"body_half_extents"`
	CameraOffset    [3]float32 `yaml:"camera_offset"`

	GravityMode  string     `yaml:"gravity_mode"` // "down" or "radial"
	Gravity      float32    `yaml:"gravity"`
	PlanetCenter [3]float32 `yaml:"planet_center"`
	PlanetRadius float32    `yaml:"planet_radius"`

	MoveSpeed             float32 `yaml:"move_speed"`
	JumpSpeed             float32 `yaml:"jump_speed"`
	JumpCooldownTicks     uint64  `yaml:"jump_cooldown_ticks"`
	JumpVelocityThreshold float32 `yaml:"jump_velocity_threshold"`

	ResolutionStrength float32 `yaml:"resolution_strength"`
	SnapTolerance      float32 `yaml:"snap_tolerance"`
	PredictiveExpand   float32 `yaml:"predictive_expand"`
	BroadPhaseMargin   float32 `yaml:"broad_phase_margin"`
	GroundProbeDepth   int32   `yaml:"ground_probe_depth"`

	GroundFriction float32 `yaml:"ground_friction"`
	AirDrag        float32 `yaml:"air_drag"`
	WallDamping    float32 `yaml:"wall_damping"`

	CacheTTLFrames    uint64  `yaml:"cache_ttl_frames"`
	CacheMinTTLFrames uint64  `yaml:"cache_min_ttl_frames"`
	CacheMaxTTLFrames uint64  `yaml:"cache_max_ttl_frames"`
	CacheSweepEvery   uint64  `yaml:"cache_sweep_every"`
	TuneEvery         uint64  `yaml:"tune_every"`
	CacheQuantum      float32 `yaml:"cache_quantum"`
	CandidateBudget   int     `yaml:"candidate_budget"`

	Debug bool `yaml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		CellSize:     4.0,
		SlotCapacity: 65536,

		BodyHalfExtents: [3]float32{0.4, 0.9, 0.4},
		CameraOffset:    [3]float32{0, 0.7, 0},

		GravityMode: "down",
		Gravity:     20.0,

		MoveSpeed:             5.0,
		JumpSpeed:             7.5,
		JumpCooldownTicks:     10,
		JumpVelocityThreshold: 0.5,

		ResolutionStrength: 0.8,
		SnapTolerance:      0.25,
		PredictiveExpand:   0.15,
		BroadPhaseMargin:   0.5,
		GroundProbeDepth:   8,

		GroundFriction: 0.25,
		AirDrag:        0.02,
		WallDamping:    0.5,

		CacheTTLFrames:    8,
		CacheMinTTLFrames: 2,
		CacheMaxTTLFrames: 60,
		CacheSweepEvery:   32,
		TuneEvery:         64,
		CacheQuantum:      0.25,
		CandidateBudget:   64,
	}
}

// LoadConfig reads a yaml file over the defaults, so partial files are fine.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.GravityMode {
	case "down", "radial":
	default:
		return fmt.Errorf("unknown gravity_mode %q", c.GravityMode)
	}
	if c.GravityMode == "radial" && c.PlanetRadius <= 0 {
		return fmt.Errorf("radial gravity needs planet_radius > 0")
	}
	if c.ResolutionStrength <= 0 || c.ResolutionStrength > 1 {
		return fmt.Errorf("resolution_strength must be in (0, 1], got %v", c.ResolutionStrength)
	}
	if c.SlotCapacity == 0 {
		return fmt.Errorf("slot_capacity must be positive")
	}
	if c.CacheMinTTLFrames == 0 || c.CacheMinTTLFrames > c.CacheMaxTTLFrames {
		return fmt.Errorf("cache ttl bounds invalid: min=%d max=%d",
			c.CacheMinTTLFrames, c.CacheMaxTTLFrames)
	}
	if c.CacheTTLFrames < c.CacheMinTTLFrames || c.CacheTTLFrames > c.CacheMaxTTLFrames {
		return fmt.Errorf("cache_ttl_frames %d outside [%d, %d]",
			c.CacheTTLFrames, c.CacheMinTTLFrames, c.CacheMaxTTLFrames)
	}
	return nil
}

func (c *Config) Mode() GravityMode {
	if c.GravityMode == "radial" {
		return GravityRadial
	}
	return GravityDown
}

func (c *Config) HalfExtents() mgl32.Vec3 {
	return mgl32.Vec3{c.BodyHalfExtents[0], c.BodyHalfExtents[1], c.BodyHalfExtents[2]}
}

func (c *Config) CameraOffsetVec() mgl32.Vec3 {
	return mgl32.Vec3{c.CameraOffset[0], c.CameraOffset[1], c.CameraOffset[2]}
}

func (c *Config) PlanetCenterVec() mgl32.Vec3 {
	return mgl32.Vec3{c.PlanetCenter[0], c.PlanetCenter[1], c.PlanetCenter[2]}
}
