// Stress test: generates a perlin terrain chunk, walks a body across it
// while digging random voxels, and reports per-tick timing.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"

	voxelworld "github.com/gekko3d/voxelworld"
)

const (
	matDirt  voxelworld.MaterialTag = 1
	matRock  voxelworld.MaterialTag = 2
	matGrass voxelworld.MaterialTag = 3
)

func materials() voxelworld.MaterialTable {
	return voxelworld.MaterialTable{
		voxelworld.MaterialAir: {},
		matDirt:                {Collidable: true, Solid: true, Friction: 0.3},
		matRock:                {Collidable: true, Solid: true, Friction: 0.15},
		matGrass:               {Collidable: true, Solid: true, Friction: 0.35},
	}
}

// generateChunk plays the external terrain generator role: perlin
// heightmap, rock below, dirt above, grass on top.
func generateChunk(size int32, seed int64) *voxelworld.Chunk {
	noise := perlin.NewPerlin(2.0, 2.0, 3, seed)
	chunk := voxelworld.NewChunk(voxelworld.VoxelCoord{}, size, size, size)

	for x := int32(0); x < size; x++ {
		for z := int32(0); z < size; z++ {
			n := noise.Noise2D(float64(x)/float64(size), float64(z)/float64(size))
			h := int32(float64(size) * 0.3 * (n + 1.0) / 2.0)
			if h < 1 {
				h = 1
			}
			for y := int32(0); y <= h; y++ {
				m := matDirt
				switch {
				case y == h:
					m = matGrass
				case y < h/2:
					m = matRock
				}
				chunk.Set(x, y, z, m)
			}
		}
	}
	return chunk
}

func main() {
	size := flag.Int("size", 64, "chunk side length in voxels")
	ticks := flag.Int("ticks", 2000, "simulation ticks to run")
	digs := flag.Int("digs", 200, "random voxels to dig during the run")
	seed := flag.Int64("seed", 42, "terrain seed")
	configPath := flag.String("config", "", "optional yaml config")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	log := voxelworld.NewDefaultLogger("stress", *debug)

	cfg := voxelworld.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = voxelworld.LoadConfig(*configPath)
		if err != nil {
			log.Errorf("load config: %v", err)
			return
		}
	}

	world, err := voxelworld.NewWorld(cfg, materials(), log)
	if err != nil {
		log.Errorf("new world: %v", err)
		return
	}

	genStart := time.Now()
	chunk := generateChunk(int32(*size), *seed)
	registered := world.LoadChunk(chunk)
	log.Infof("generated+loaded %d exposed voxels in %v", registered, time.Since(genStart))

	half := float32(*size) / 2
	if h, ok := world.GroundHeight(half, half); ok {
		world.Body().Position = mgl32.Vec3{half, h + cfg.BodyHalfExtents[1], half}
	} else {
		world.Body().Position = mgl32.Vec3{half, float32(*size), half}
	}

	rng := rand.New(rand.NewSource(*seed))
	digEvery := 0
	if *digs > 0 {
		digEvery = *ticks / *digs
		if digEvery == 0 {
			digEvery = 1
		}
	}

	const dt = 1.0 / 60.0
	simStart := time.Now()
	dug := 0

	for i := 0; i < *ticks; i++ {
		intent := voxelworld.MoveIntent{
			Move: mgl32.Vec3{0, 0, 1},
			Yaw:  float32(i) * 0.5,
			Jump: i%120 == 0,
		}
		world.Step(intent, dt)

		if digEvery > 0 && i%digEvery == 0 {
			eye := world.CameraPosition()
			dir := mgl32.Vec3{rng.Float32()*2 - 1, -1, rng.Float32()*2 - 1}
			if c, _, ok := world.RayPick(eye, dir, 16); ok {
				if world.DigVoxel(c) {
					dug++
				}
			}
		}
	}

	elapsed := time.Since(simStart)
	stats := world.Stats()
	fmt.Printf("%d ticks in %v (%.1f us/tick), dug %d\n",
		*ticks, elapsed, float64(elapsed.Microseconds())/float64(*ticks), dug)
	fmt.Printf("voxels=%d/%d drops=%d candidates=%d cacheTTL=%d ground=%d coll=%d\n",
		stats.Voxels, stats.SlotCapacity, stats.CapacityDrops, stats.LastCandidates,
		stats.Cache.TTLFrames, stats.Cache.GroundEntries, stats.Cache.CollisionEnts)
}
