package voxelworld

import "github.com/go-gl/mathgl/mgl32"

// PlayerBody is the moving body the resolver acts on. Position is the
// body center, not the camera: the two are related by a constant offset.
type PlayerBody struct {
	Position    mgl32.Vec3
	Velocity    mgl32.Vec3
	HalfExtents mgl32.Vec3
	OnGround    bool
}

func (b *PlayerBody) AABB() AABB {
	return BodyAABB(b.Position, b.HalfExtents)
}

// BodyCenterToCamera and CameraToBodyCenter convert between the body
// center and the eye position. They are exact inverses.
func BodyCenterToCamera(center, offset mgl32.Vec3) mgl32.Vec3 {
	return center.Add(offset)
}

func CameraToBodyCenter(camera, offset mgl32.Vec3) mgl32.Vec3 {
	return camera.Sub(offset)
}

// MoveIntent is the per-tick input from the external input/camera layer.
// Move is in camera-local space: X strafes, Z walks forward. Yaw (degrees)
// projects it into world space.
type MoveIntent struct {
	Move mgl32.Vec3
	Jump bool
	Yaw  float32
}
