package voxelworld

// MaterialTag identifies a voxel material. Zero is always air.
type MaterialTag uint8

const MaterialAir MaterialTag = 0

// MaterialProps describes how the simulation treats a material.
// The table is supplied by the terrain generator; the core never defines it.
type MaterialProps struct {
	Collidable bool
	Solid      bool
	Friction   float32
}

// MaterialTable maps tags to properties, indexed by tag value.
type MaterialTable []MaterialProps

func (t MaterialTable) Props(m MaterialTag) MaterialProps {
	if int(m) >= len(t) {
		return MaterialProps{}
	}
	return t[m]
}

func (t MaterialTable) Solid(m MaterialTag) bool {
	return t.Props(m).Solid
}

func (t MaterialTable) Collidable(m MaterialTag) bool {
	return t.Props(m).Collidable
}

// Chunk is a dense material snapshot owned by the terrain generator.
// The core only reads it during (re)registration.
type Chunk struct {
	Origin  VoxelCoord // world coordinate of local cell (0,0,0)
	SizeX   int32
	SizeY   int32
	SizeZ   int32
	cells   []MaterialTag
}

func NewChunk(origin VoxelCoord, sx, sy, sz int32) *Chunk {
	return &Chunk{
		Origin: origin,
		SizeX:  sx,
		SizeY:  sy,
		SizeZ:  sz,
		cells:  make([]MaterialTag, int(sx)*int(sy)*int(sz)),
	}
}

func (c *Chunk) index(lx, ly, lz int32) int {
	return int(lx) + int(c.SizeX)*(int(ly)+int(c.SizeY)*int(lz))
}

// InBounds reports whether the local coordinate lies inside the chunk.
func (c *Chunk) InBounds(lx, ly, lz int32) bool {
	return lx >= 0 && lx < c.SizeX && ly >= 0 && ly < c.SizeY && lz >= 0 && lz < c.SizeZ
}

// At returns the material at a local coordinate, air when out of bounds.
func (c *Chunk) At(lx, ly, lz int32) MaterialTag {
	if !c.InBounds(lx, ly, lz) {
		return MaterialAir
	}
	return c.cells[c.index(lx, ly, lz)]
}

// Set writes a material cell. Meant for generators and tests; the
// simulation core treats loaded chunks as immutable.
func (c *Chunk) Set(lx, ly, lz int32, m MaterialTag) {
	if !c.InBounds(lx, ly, lz) {
		return
	}
	c.cells[c.index(lx, ly, lz)] = m
}

// Local converts a world coordinate into chunk-local space.
func (c *Chunk) Local(w VoxelCoord) (int32, int32, int32) {
	return w.X - c.Origin.X, w.Y - c.Origin.Y, w.Z - c.Origin.Z
}

// World converts a chunk-local coordinate into world space.
func (c *Chunk) World(lx, ly, lz int32) VoxelCoord {
	return VoxelCoord{c.Origin.X + lx, c.Origin.Y + ly, c.Origin.Z + lz}
}
