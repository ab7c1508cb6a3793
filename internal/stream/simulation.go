package stream

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/heightstream/internal/heightfield"
)

// Ant is a wandering agent simulated on the worker.
type Ant struct {
	ID      int
	X, Y    float32 // Lattice position
	Z       float32 // Surface height under the ant
	Heading float32 // Radians
}

const (
	antSpeed = 0.25 // Lattice units per tick
	antTurn  = 0.3  // Max heading change per tick, radians
)

// Ants random-walks a fixed population inside the terrain bounds.
type Ants struct {
	ants          []Ant
	width, height float32
	rng           *rand.Rand
}

// NewAnts spawns count ants spread across a width x height lattice area.
func NewAnts(count int, width, height float32, seed int64) *Ants {
	rng := rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
	a := &Ants{
		ants:   make([]Ant, count),
		width:  width,
		height: height,
		rng:    rng,
	}
	for i := range a.ants {
		a.ants[i] = Ant{
			ID:      i,
			X:       rng.Float32() * width,
			Y:       rng.Float32() * height,
			Heading: rng.Float32() * 2 * math.Pi,
		}
	}
	return a
}

// Len returns the population size.
func (a *Ants) Len() int {
	return len(a.ants)
}

// Step advances every ant and hands each new state to emit.
func (a *Ants) Step(emit func(Ant)) {
	for i := range a.ants {
		ant := &a.ants[i]
		ant.Heading += (a.rng.Float32()*2 - 1) * antTurn
		ant.X += antSpeed * float32(math.Cos(float64(ant.Heading)))
		ant.Y += antSpeed * float32(math.Sin(float64(ant.Heading)))

		// Bounce off the terrain edge.
		if ant.X < 0 || ant.X > a.width {
			ant.X = mgl32.Clamp(ant.X, 0, a.width)
			ant.Heading = math.Pi - ant.Heading
		}
		if ant.Y < 0 || ant.Y > a.height {
			ant.Y = mgl32.Clamp(ant.Y, 0, a.height)
			ant.Heading = -ant.Heading
		}
		emit(*ant)
	}
}

// Attenuation selects a light's falloff range.
type Attenuation uint8

const (
	Attenuation7 Attenuation = iota
	Attenuation13
	Attenuation20
	Attenuation32
	Attenuation50
	Attenuation100
)

// PointLight is a light hovering above the terrain.
type PointLight struct {
	ID          uint32
	Position    mgl32.Vec3
	Color       mgl32.Vec3
	Attenuation Attenuation
}

const (
	lightHover = 5    // Height above the terrain surface
	lightDrift = 0.02 // Lattice units per tick along X
)

// PointLights drifts a grid of lights across the terrain.
type PointLights struct {
	lights []PointLight
}

// NewPointLights places a light every spacing lattice units over the area,
// hovering above the generated surface.
func NewPointLights(gen *heightfield.Generator, width, height, spacing int) *PointLights {
	p := &PointLights{}
	if spacing <= 0 {
		return p
	}
	var id uint32
	for x := 0; x < width; x += spacing {
		for y := 0; y < height; y += spacing {
			p.lights = append(p.lights, PointLight{
				ID:          id,
				Position:    mgl32.Vec3{float32(x), float32(y), gen.HeightAt(x, y) + lightHover},
				Color:       gradient(float32(id%100) / 100),
				Attenuation: Attenuation100,
			})
			id++
		}
	}
	return p
}

// Len returns the number of lights.
func (p *PointLights) Len() int {
	return len(p.lights)
}

// Step moves every light and hands each new state to emit.
func (p *PointLights) Step(emit func(PointLight)) {
	for i := range p.lights {
		p.lights[i].Position[0] += lightDrift
		emit(p.lights[i])
	}
}

// gradient maps t in [0,1] onto a blue → green → red ramp.
func gradient(t float32) mgl32.Vec3 {
	t = mgl32.Clamp(t, 0, 1)
	switch {
	case t < 0.5:
		s := t * 2
		return mgl32.Vec3{0, s, 1 - s}
	default:
		s := (t - 0.5) * 2
		return mgl32.Vec3{s, 1 - s, 0}
	}
}
