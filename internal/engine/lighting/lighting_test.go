package lighting

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/heightstream/internal/stream"
)

func TestPointLightBufferApply(t *testing.T) {
	b := NewPointLightBuffer(2)

	b.Apply(stream.LightUpdate{Kind: stream.LightPointLight, PointLight: stream.PointLight{
		ID:          7,
		Position:    mgl32.Vec3{1, 2, 3},
		Color:       mgl32.Vec3{2, 0.5, -1},
		Attenuation: stream.Attenuation20,
	}})
	b.Apply(stream.LightUpdate{Kind: stream.LightAnt, Ant: stream.Ant{ID: 7, X: 4, Y: 5, Z: 1}})
	require.Equal(t, 2, b.Count(), "same id, different kind")

	// Only X and Y are lattice units; heights are already world units.
	light := b.Lights()[0]
	assert.Equal(t, mgl32.Vec3{2, 4, 3}, light.Position)
	assert.Equal(t, mgl32.Vec3{1, 0.5, 0}, light.Color)
	assert.Equal(t, float32(40), light.Range)

	ant := b.Lights()[1]
	assert.Equal(t, mgl32.Vec3{8, 10, 1.5}, ant.Position)

	// An update replaces the light in place.
	b.Apply(stream.LightUpdate{Kind: stream.LightPointLight, PointLight: stream.PointLight{
		ID:       7,
		Position: mgl32.Vec3{9, 9, 9},
	}})
	assert.Equal(t, 2, b.Count())
	assert.Equal(t, mgl32.Vec3{18, 18, 9}, b.Lights()[0].Position)
}

func TestPointLightBufferCapacity(t *testing.T) {
	b := NewPointLightBuffer(1)
	for i := range KindCapacity + 5 {
		b.Apply(stream.LightUpdate{Kind: stream.LightAnt, Ant: stream.Ant{ID: i}})
	}
	assert.Equal(t, KindCapacity, b.Count())
	assert.Equal(t, uint64(5), b.Ignored())

	assert.Len(t, b.GetPositions(), MaxPointLights*3)
	assert.Len(t, b.GetColors(), MaxPointLights*3)
	assert.Len(t, b.GetRanges(), MaxPointLights)

	b.Clear()
	assert.Equal(t, 0, b.Count())
	b.Apply(stream.LightUpdate{Kind: stream.LightAnt, Ant: stream.Ant{ID: 99}})
	assert.Equal(t, 1, b.Count(), "clear frees the kind's share")
}

func TestPointLightBufferMixedKinds(t *testing.T) {
	b := NewPointLightBuffer(1)

	// One worker tick: every ant is published before any point light.
	for tick := 0; tick < 3; tick++ {
		for i := range 64 {
			b.Apply(stream.LightUpdate{Kind: stream.LightAnt, Ant: stream.Ant{ID: i}})
		}
		for i := range 40 {
			b.Apply(stream.LightUpdate{Kind: stream.LightPointLight, PointLight: stream.PointLight{
				ID:    uint32(i),
				Color: mgl32.Vec3{1, 1, 1},
			}})
		}
	}

	require.Equal(t, MaxPointLights, b.Count())
	ants, points := 0, 0
	for _, l := range b.Lights() {
		if l.Intensity == 1 {
			points++
		} else {
			ants++
		}
	}
	assert.Equal(t, KindCapacity, ants)
	assert.Equal(t, KindCapacity, points)
	assert.Equal(t, uint64(3*(64-KindCapacity+40-KindCapacity)), b.Ignored())
}

func TestGetColorsScalesByIntensity(t *testing.T) {
	b := NewPointLightBuffer(1)
	b.Apply(stream.LightUpdate{Kind: stream.LightAnt, Ant: stream.Ant{ID: 1}})

	colors := b.GetColors()
	want := antColor.Mul(antIntensity)
	for i := range 3 {
		assert.InDelta(t, want[i], colors[i], 1e-6)
	}
	assert.Equal(t, []float32{0, 0, 0}, colors[3:6])
}

func TestFlatUploadLayout(t *testing.T) {
	b := NewPointLightBuffer(1)
	b.Apply(stream.LightUpdate{Kind: stream.LightPointLight, PointLight: stream.PointLight{
		ID:          1,
		Position:    mgl32.Vec3{1, 2, 3},
		Color:       mgl32.Vec3{0.5, 0.5, 0.5},
		Attenuation: stream.Attenuation7,
	}})

	assert.Equal(t, []float32{1, 2, 3}, b.GetPositions()[:3])
	assert.Equal(t, []float32{0.5, 0.5, 0.5}, b.GetColors()[:3])
	assert.Equal(t, float32(7), b.GetRanges()[0])
	assert.Equal(t, float32(0), b.GetRanges()[1])
}

func TestAttenuationRange(t *testing.T) {
	assert.Equal(t, float32(13), AttenuationRange(stream.Attenuation13))
	assert.Equal(t, float32(100), AttenuationRange(stream.Attenuation100))
}

func TestSunDirection(t *testing.T) {
	up := SunDirection(0, 90)
	east := SunDirection(90, 0)
	for i, want := range []float32{0, 0, 1} {
		assert.InDelta(t, want, up[i], 1e-6)
	}
	for i, want := range []float32{0, 1, 0} {
		assert.InDelta(t, want, east[i], 1e-6)
	}
	assert.InDelta(t, 1, SunDirection(37, 21).Len(), 1e-6)
}
