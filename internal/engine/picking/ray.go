// Package picking resolves the cursor to a world-space point on the terrain.
package picking

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj mgl32.Mat4) Ray {
	// Convert screen coords to normalized device coords (-1 to 1)
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // Flip Y

	nearWorld := unproject(invViewProj, mgl32.Vec4{ndcX, ndcY, -1, 1})
	farWorld := unproject(invViewProj, mgl32.Vec4{ndcX, ndcY, 1, 1})

	dir := farWorld.Sub(nearWorld)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: nearWorld, Direction: dir}
}

func unproject(invViewProj mgl32.Mat4, ndc mgl32.Vec4) mgl32.Vec3 {
	p := invViewProj.Mul4x1(ndc)
	// Perspective divide
	if p[3] != 0 {
		return p.Vec3().Mul(1 / p[3])
	}
	return p.Vec3()
}

// IntersectPlaneZ intersects a ray with a horizontal plane at the given height.
// Returns the intersection point and whether it lies in front of the origin.
func (r Ray) IntersectPlaneZ(planeZ float32) (mgl32.Vec3, bool) {
	if mgl32.Abs(r.Direction[2]) < 0.001 {
		return mgl32.Vec3{}, false // Ray parallel to plane
	}

	t := (planeZ - r.Origin[2]) / r.Direction[2]
	if t < 0 {
		return mgl32.Vec3{}, false // Intersection behind ray origin
	}
	return r.At(t), true
}
