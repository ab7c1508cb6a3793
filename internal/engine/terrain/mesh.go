package terrain

import "fmt"

// BuildGrid creates the flat lattice mesh shared by every tile at one LOD.
// The vertex shader lifts each vertex by the height texture, so the mesh
// only carries lattice positions (0..samples-1) and texture coordinates.
//
// Each quad (i, j) is split along its (i,j)-(i+1,j+1) diagonal into two
// triangles, counter-clockwise when seen from above:
//
//	p00, p10, p11
//	p00, p11, p01
func BuildGrid(samples int) *Mesh {
	if samples < 2 {
		panic(fmt.Sprintf("terrain: grid needs at least 2 samples per side, got %d", samples))
	}

	quads := samples - 1
	vertices := make([]Vertex, 0, samples*samples)
	indices := make([]uint32, 0, quads*quads*6)

	for y := range samples {
		for x := range samples {
			// Texel centres, so the edge samples land exactly on texels.
			u := (float32(x) + 0.5) / float32(samples)
			v := (float32(y) + 0.5) / float32(samples)
			vertices = append(vertices, Vertex{
				Position: [2]float32{float32(x), float32(y)},
				TexCoord: [2]float32{u, v},
			})
		}
	}

	for y := range quads {
		for x := range quads {
			p00 := uint32(y*samples + x)
			p10 := p00 + 1
			p01 := p00 + uint32(samples)
			p11 := p01 + 1
			indices = append(indices,
				p00, p10, p11,
				p00, p11, p01,
			)
		}
	}

	return &Mesh{Vertices: vertices, Indices: indices}
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}
