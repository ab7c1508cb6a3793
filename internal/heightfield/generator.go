// Package heightfield synthesizes procedural terrain height samples.
//
// Generation is a pure function of a Descriptor and the generator seed: the
// same descriptor always yields the same samples, so tiles can be generated
// on any goroutine and in any order.
package heightfield

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
)

// Descriptor describes one height field to generate. It is passed by value
// across the worker channels.
type Descriptor struct {
	OriginX   int // Lattice X of sample (0, 0)
	OriginY   int // Lattice Y of sample (0, 0)
	Spacing   int // Lattice distance between neighbouring samples (2^LOD)
	Samples   int // Samples per side
	TileIndex int // Flat tile index in the cache grid
	LOD       int
}

// Len returns the number of samples the descriptor asks for.
func (d Descriptor) Len() int {
	return d.Samples * d.Samples
}

// Heightfield owns a freshly computed sample buffer, row-major in Y then X.
type Heightfield struct {
	Heights    []float32
	Descriptor Descriptor
}

// At returns the sample at column x, row y.
func (h *Heightfield) At(x, y int) float32 {
	return h.Heights[y*h.Descriptor.Samples+x]
}

// octave is one layer of coherent noise.
type octave struct {
	period    float64 // Lattice units per noise unit
	amplitude float64
}

// Octaves from broad hills down to fine detail. Negative lobes are clipped
// per octave, which flattens valleys into plains.
var octaves = [...]octave{
	{period: 128, amplitude: 20},
	{period: 64, amplitude: 20},
	{period: 32, amplitude: 20},
	{period: 16, amplitude: 8},
	{period: 8, amplitude: 2},
}

const (
	canyonCenter = 0  // Lattice X of the canyon floor
	canyonWidth  = 20 // Lattice units from floor to rim
)

// Generator produces height fields from seeded Perlin noise.
// It is safe for concurrent use once constructed.
type Generator struct {
	noise *perlin.Perlin
	seed  int64
}

// NewGenerator creates a generator for the given seed.
func NewGenerator(seed int64) *Generator {
	// One octave per lookup; layering is done in Generate.
	return &Generator{
		noise: perlin.NewPerlin(2, 2, 1, seed),
		seed:  seed,
	}
}

// Seed returns the seed the generator was built with.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Generate computes the height field for d. It panics on a descriptor with
// no samples or spacing, which indicates a misconfigured cache.
func (g *Generator) Generate(d Descriptor) Heightfield {
	if d.Samples <= 0 || d.Spacing <= 0 {
		panic(fmt.Sprintf("heightfield: invalid descriptor %+v", d))
	}

	heights := make([]float32, 0, d.Len())
	for y := 0; y < d.Samples; y++ {
		wy := d.OriginY + y*d.Spacing
		for x := 0; x < d.Samples; x++ {
			wx := d.OriginX + x*d.Spacing
			heights = append(heights, g.HeightAt(wx, wy))
		}
	}

	return Heightfield{Heights: heights, Descriptor: d}
}

// HeightAt returns the terrain height at a lattice position.
func (g *Generator) HeightAt(x, y int) float32 {
	var h float64
	for _, o := range octaves {
		n := g.noise.Noise2D(float64(x)/o.period, float64(y)/o.period) * o.amplitude
		h += math.Max(n, 0)
	}
	h *= float64(Canyon(float32(x-canyonCenter) / canyonWidth))
	return float32(h)
}

// Canyon is the shaping profile across the canyon: 0 at the floor, rising
// steeply to 1 about one unit away.
func Canyon(x float32) float32 {
	x6 := x * x * x * x * x * x
	return 1 - 1/(1+x6)
}
