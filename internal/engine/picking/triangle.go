package picking

import "github.com/go-gl/mathgl/mgl32"

// Triangle is three vertices in counter-clockwise order seen from the front.
type Triangle struct {
	V0, V1, V2 mgl32.Vec3
}

// Intersection is a ray/triangle hit. P = Origin + T*Direction, and
// equivalently P = (1-U-V)*V0 + U*V1 + V*V2.
type Intersection struct {
	Triangle
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
	T         float32 // Distance along Direction
	U, V      float32 // Barycentric coordinates
	P         mgl32.Vec3
}

// IntersectTriangle tests ray r against tri with the Möller–Trumbore
// algorithm, solving
//
//	[-D  E1  E2] (t, u, v) = O - V0
//
// by Cramer's rule with E1 = V1-V0, E2 = V2-V0. Triangles seen from behind
// (det <= 0) are rejected. Hits exactly on an edge or vertex are accepted.
func IntersectTriangle(r Ray, tri Triangle) (Intersection, bool) {
	e1 := tri.V1.Sub(tri.V0)
	e2 := tri.V2.Sub(tri.V0)
	tv := r.Origin.Sub(tri.V0)

	p := r.Direction.Cross(e2)
	det := p.Dot(e1)
	if det <= 0 {
		return Intersection{}, false
	}

	u := p.Dot(tv) / det
	if u < 0 || u > 1 {
		return Intersection{}, false
	}

	q := tv.Cross(e1)
	v := q.Dot(r.Direction) / det
	if v < 0 || v > 1 || u+v > 1 {
		return Intersection{}, false
	}

	t := q.Dot(e2) / det
	if t < 0 {
		return Intersection{}, false
	}

	return Intersection{
		Triangle:  tri,
		Origin:    r.Origin,
		Direction: r.Direction,
		T:         t,
		U:         u,
		V:         v,
		P:         PointFromRay(r, t),
	}, true
}

// PointFromRay returns Origin + t*Direction.
func PointFromRay(r Ray, t float32) mgl32.Vec3 {
	return r.At(t)
}

// PointFromTriangle returns the point with barycentric coordinates (u, v).
func PointFromTriangle(tri Triangle, u, v float32) mgl32.Vec3 {
	return tri.V0.Mul(1 - u - v).Add(tri.V1.Mul(u)).Add(tri.V2.Mul(v))
}
