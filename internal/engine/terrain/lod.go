package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// LODCount is the default number of resolution tiers per tile.
const LODCount = 4

// LOD is a resolution tier. 0 is full resolution; each level halves the
// samples per side.
type LOD int

// ResolveLOD maps the viewer's distance to a tile onto a level. Thresholds
// sit at 2, 4, 6, ... tile sizes; distances past the last threshold clamp to
// the coarsest level. Closer never resolves coarser than farther.
func ResolveLOD(viewer, tile mgl32.Vec3, tileSize float32, lodCount int) LOD {
	return LODForDistance(viewer.Sub(tile).Len(), tileSize, lodCount)
}

// LODForDistance is ResolveLOD for a precomputed distance.
func LODForDistance(distance, tileSize float32, lodCount int) LOD {
	for k := 0; k < lodCount-1; k++ {
		if distance < tileSize*2*float32(k+1) {
			return LOD(k)
		}
	}
	return LOD(lodCount - 1)
}

// SamplesPerSide returns the samples per side of a tile with tileSide quads
// at LOD 0.
func SamplesPerSide(tileSide int, lod LOD) int {
	return tileSide>>lod + 1
}

// Spacing returns the lattice distance between samples at lod.
func Spacing(lod LOD) int {
	return 1 << lod
}

func checkLOD(lod LOD, lodCount int) {
	if lod < 0 || int(lod) >= lodCount {
		panic(fmt.Sprintf("terrain: lod %d out of range [0,%d)", lod, lodCount))
	}
}
