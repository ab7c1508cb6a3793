// Package terrain streams procedurally generated height fields into a
// per-tile, per-LOD cache and decides what to draw each frame.
package terrain

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/heightstream/internal/heightfield"
)

// TileCoord addresses a tile in the grid.
type TileCoord struct {
	X, Y int
}

// HeightTexture is the backend's handle for an uploaded height field.
type HeightTexture any

// Instance is the per-draw data handed to the backend with a tile.
type Instance struct {
	TileIndex int
	Position  mgl32.Vec3 // World position of sample (0, 0)
	Spacing   float32    // World distance between samples at this LOD
}

// Backend is the GPU side of the cache.
type Backend interface {
	// CreateHeightTexture uploads width*height samples and returns a handle.
	CreateHeightTexture(samples []float32, width, height int) (HeightTexture, error)
	// ReleaseHeightTexture frees a handle returned by CreateHeightTexture.
	ReleaseHeightTexture(tex HeightTexture)
	// RenderTile draws the grid mesh for lod displaced by tex.
	RenderTile(lod LOD, tex HeightTexture, inst Instance)
}

// RequestSender accepts tile requests without blocking.
type RequestSender interface {
	SendRequest(d heightfield.Descriptor) error
}

// ResponseSource yields finished height fields without blocking.
type ResponseSource interface {
	PollHeavy() (heightfield.Heightfield, bool)
}

// Vertex is one grid mesh vertex. Heights come from the texture, so only
// the lattice position and texture coordinate are stored.
type Vertex struct {
	Position [2]float32
	TexCoord [2]float32
}

// Mesh holds grid mesh data ready for GPU upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// TileView is the resident height data for one tile, in world units.
type TileView struct {
	Index   int
	LOD     LOD
	Origin  mgl32.Vec3 // World position of sample (0, 0)
	Spacing float32    // World distance between samples
	Samples int        // Samples per side
	Heights []float32  // Row-major, Samples*Samples
}

// Stats is a snapshot of cache occupancy.
type Stats struct {
	NotRequested int
	Requested    int
	Available    int
	Sent         uint64 // Requests accepted by the channel
	SendFailures uint64
	Evictions    uint64
	Frame        uint64
}
