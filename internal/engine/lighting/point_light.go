// Package lighting collects the worker's light updates for GPU upload.
package lighting

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/heightstream/internal/stream"
)

// MaxPointLights is the maximum number of point lights supported in shaders.
const MaxPointLights = 32

// PointLight represents a point light source for GPU upload.
type PointLight struct {
	Position  mgl32.Vec3 // World position
	Color     mgl32.Vec3 // RGB color (0-1 range)
	Range     float32    // Light radius/falloff distance
	Intensity float32    // Light intensity multiplier
}

const (
	antRange     = 3
	antIntensity = 0.6
	antLift      = 0.5 // World units above the surface
)

var antColor = mgl32.Vec3{1, 0.85, 0.4}

// AttenuationRange returns the falloff distance, in lattice units, of a
// worker light's attenuation class.
func AttenuationRange(a stream.Attenuation) float32 {
	switch a {
	case stream.Attenuation7:
		return 7
	case stream.Attenuation13:
		return 13
	case stream.Attenuation20:
		return 20
	case stream.Attenuation32:
		return 32
	case stream.Attenuation50:
		return 50
	default:
		return 100
	}
}

type lightKey struct {
	kind stream.LightKind
	id   uint32
}

// KindCapacity is the share of MaxPointLights each light kind may hold, so
// a burst of one kind cannot crowd the other out of the shader.
const KindCapacity = MaxPointLights / 2

// PointLightBuffer keeps the latest state of every light the worker has
// reported, keyed by kind and id. Each kind keeps its first KindCapacity
// distinct lights; later ones are counted and ignored.
type PointLightBuffer struct {
	scale   float32 // World units per lattice unit
	lights  []PointLight
	index   map[lightKey]int
	perKind map[stream.LightKind]int
	ignored uint64
}

// NewPointLightBuffer creates an empty buffer that converts lattice X and Y
// to world units with scale. Heights are already in world units.
func NewPointLightBuffer(scale float32) *PointLightBuffer {
	return &PointLightBuffer{
		scale:   scale,
		lights:  make([]PointLight, 0, MaxPointLights),
		index:   make(map[lightKey]int),
		perKind: make(map[stream.LightKind]int),
	}
}

// Apply records one update from the worker.
func (b *PointLightBuffer) Apply(u stream.LightUpdate) {
	var key lightKey
	var light PointLight

	switch u.Kind {
	case stream.LightAnt:
		key = lightKey{kind: u.Kind, id: uint32(u.Ant.ID)}
		light = PointLight{
			Position:  b.world(u.Ant.X, u.Ant.Y, u.Ant.Z+antLift),
			Color:     antColor,
			Range:     antRange * b.scale,
			Intensity: antIntensity,
		}
	case stream.LightPointLight:
		key = lightKey{kind: u.Kind, id: u.PointLight.ID}
		light = PointLight{
			Position:  b.world(u.PointLight.Position[0], u.PointLight.Position[1], u.PointLight.Position[2]),
			Color:     clampColor(u.PointLight.Color),
			Range:     AttenuationRange(u.PointLight.Attenuation) * b.scale,
			Intensity: 1,
		}
	default:
		return
	}

	if i, ok := b.index[key]; ok {
		b.lights[i] = light
		return
	}
	if b.perKind[key.kind] >= KindCapacity {
		b.ignored++
		return
	}
	b.perKind[key.kind]++
	b.index[key] = len(b.lights)
	b.lights = append(b.lights, light)
}

// Lights returns the current lights. The slice is reused by later calls.
func (b *PointLightBuffer) Lights() []PointLight {
	return b.lights
}

// Count returns the number of lights held.
func (b *PointLightBuffer) Count() int {
	return len(b.lights)
}

// Ignored returns how many new lights were turned away at capacity.
func (b *PointLightBuffer) Ignored() uint64 {
	return b.ignored
}

// Clear removes all lights from the buffer.
func (b *PointLightBuffer) Clear() {
	b.lights = b.lights[:0]
	clear(b.index)
	clear(b.perKind)
}

// GetPositions returns positions as a flat float32 slice for GPU upload.
// Format: [x0, y0, z0, x1, y1, z1, ...]
func (b *PointLightBuffer) GetPositions() []float32 {
	result := make([]float32, MaxPointLights*3)
	for i, light := range b.lights {
		copy(result[i*3:], light.Position[:])
	}
	return result
}

// GetColors returns colors scaled by intensity as a flat float32 slice.
func (b *PointLightBuffer) GetColors() []float32 {
	result := make([]float32, MaxPointLights*3)
	for i, light := range b.lights {
		c := light.Color.Mul(light.Intensity)
		copy(result[i*3:], c[:])
	}
	return result
}

// GetRanges returns ranges as a flat float32 slice for GPU upload.
func (b *PointLightBuffer) GetRanges() []float32 {
	result := make([]float32, MaxPointLights)
	for i, light := range b.lights {
		result[i] = light.Range
	}
	return result
}

func (b *PointLightBuffer) world(x, y, z float32) mgl32.Vec3 {
	return mgl32.Vec3{x * b.scale, y * b.scale, z}
}

func clampColor(c mgl32.Vec3) mgl32.Vec3 {
	for i := range c {
		c[i] = mgl32.Clamp(c[i], 0, 1)
	}
	return c
}
