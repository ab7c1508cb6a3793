package picking

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Entity id layout written to the pick target: the top byte tags the kind
// of entity, the low 24 bits index into that kind's table.
const (
	TerrainEntityBit uint32 = 1 << 31
	entityKindMask   uint32 = 0xFF000000
	entityIndexMask  uint32 = 0x00FFFFFF
)

// TerrainEntity returns the entity id written for terrain tile idx.
func TerrainEntity(idx int) uint32 {
	return TerrainEntityBit | uint32(idx)&entityIndexMask
}

// DecodeTerrainEntity returns the tile index encoded in id, if id tags a
// terrain tile.
func DecodeTerrainEntity(id uint32) (int, bool) {
	if id&entityKindMask != TerrainEntityBit {
		return 0, false
	}
	return int(id & entityIndexMask), true
}

// TileDetails places a tile's resident height samples in the world.
type TileDetails struct {
	Origin  mgl32.Vec3 // World position of sample (0, 0)
	Spacing float32    // World distance between samples
	Samples int        // Samples per side
}

// vertex returns the world position of sample (x, y).
func (d TileDetails) vertex(heights []float32, x, y int) mgl32.Vec3 {
	return mgl32.Vec3{
		d.Origin[0] + float32(x)*d.Spacing,
		d.Origin[1] + float32(y)*d.Spacing,
		d.Origin[2] + heights[y*d.Samples+x],
	}
}

// TerrainSelector intersects a ray with one tile's height field.
type TerrainSelector struct {
	// ClosestHit keeps searching after the first hit and returns the one
	// nearest the ray origin. Otherwise the first hit in traversal order
	// wins, which can pick a far fold of the terrain over a near one.
	ClosestHit bool
}

// FindIntersection walks every quad of the tile row-major, testing triangle
// p00-p10-p11 before p00-p11-p01.
func (s TerrainSelector) FindIntersection(d TileDetails, heights []float32, r Ray) (Intersection, bool) {
	if d.Samples < 2 || len(heights) != d.Samples*d.Samples {
		return Intersection{}, false
	}

	var best Intersection
	found := false
	for y := 0; y < d.Samples-1; y++ {
		for x := 0; x < d.Samples-1; x++ {
			p00 := d.vertex(heights, x, y)
			p10 := d.vertex(heights, x+1, y)
			p01 := d.vertex(heights, x, y+1)
			p11 := d.vertex(heights, x+1, y+1)

			for _, tri := range [2]Triangle{{p00, p10, p11}, {p00, p11, p01}} {
				hit, ok := IntersectTriangle(r, tri)
				if !ok {
					continue
				}
				if !s.ClosestHit {
					return hit, true
				}
				if !found || hit.T < best.T {
					best, found = hit, true
				}
			}
		}
	}
	return best, found
}

// Selector tracks the entity under the cursor and the cursor ray, and
// resolves them to a point on the terrain.
type Selector struct {
	terrain TerrainSelector
	ray     Ray
	entity  uint32
}

// NewSelector creates a selector with no entity and a zero ray.
func NewSelector(closestHit bool) *Selector {
	return &Selector{terrain: TerrainSelector{ClosestHit: closestHit}}
}

// UpdateEntity sets the entity id read back from the pick target.
func (s *Selector) UpdateEntity(entity uint32) {
	s.entity = entity
}

// Entity returns the current entity id.
func (s *Selector) Entity() uint32 {
	return s.entity
}

// UpdateView recomputes the cursor ray from the eye position and the
// inverse view-projection matrix.
func (s *Selector) UpdateView(eye mgl32.Vec3, invViewProj mgl32.Mat4, cursorX, cursorY, viewportW, viewportH float32) {
	r := ScreenToRay(cursorX, cursorY, viewportW, viewportH, invViewProj)
	s.ray = Ray{Origin: eye, Direction: r.Direction}
}

// SetRay replaces the cursor ray directly.
func (s *Selector) SetRay(r Ray) {
	s.ray = r
}

// Ray returns the current cursor ray.
func (s *Selector) Ray() Ray {
	return s.ray
}

// FindSelection intersects the cursor ray with the tile named by the
// current entity. details and heights are indexed by tile; a tile with no
// resident heights yields no selection.
func (s *Selector) FindSelection(details []TileDetails, heights [][]float32) (Intersection, bool) {
	idx, ok := DecodeTerrainEntity(s.entity)
	if !ok || idx >= len(details) || idx >= len(heights) {
		return Intersection{}, false
	}
	if heights[idx] == nil {
		return Intersection{}, false
	}
	return s.terrain.FindIntersection(details[idx], heights[idx], s.ray)
}
