package heightfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSize(t *testing.T) {
	g := NewGenerator(1)
	d := Descriptor{OriginX: 64, OriginY: 32, Spacing: 2, Samples: 17, TileIndex: 3, LOD: 1}

	hf := g.Generate(d)

	require.Len(t, hf.Heights, 17*17)
	assert.Equal(t, d, hf.Descriptor)
	for i, h := range hf.Heights {
		assert.GreaterOrEqualf(t, h, float32(0), "sample %d is negative", i)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	d := Descriptor{OriginX: 100, OriginY: -40, Spacing: 1, Samples: 9}

	a := NewGenerator(7).Generate(d)
	b := NewGenerator(7).Generate(d)

	assert.Equal(t, a.Heights, b.Heights)
}

func TestCoarseSamplesMatchFine(t *testing.T) {
	g := NewGenerator(3)
	fine := g.Generate(Descriptor{OriginX: 32, OriginY: 32, Spacing: 1, Samples: 33})
	coarse := g.Generate(Descriptor{OriginX: 32, OriginY: 32, Spacing: 4, Samples: 9, LOD: 2})

	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			assert.Equalf(t, fine.At(x*4, y*4), coarse.At(x, y), "sample (%d,%d)", x, y)
		}
	}
}

func TestCanyonFloor(t *testing.T) {
	g := NewGenerator(1)
	for y := -50; y < 50; y += 7 {
		assert.Equal(t, float32(0), g.HeightAt(canyonCenter, y))
	}
}

func TestCanyonProfile(t *testing.T) {
	assert.Equal(t, float32(0), Canyon(0))
	assert.InDelta(t, 0.5, Canyon(1), 1e-6)
	assert.InDelta(t, 0.5, Canyon(-1), 1e-6)
	assert.Greater(t, Canyon(3), float32(0.99))
}

func TestGenerateInvalidPanics(t *testing.T) {
	g := NewGenerator(1)
	assert.Panics(t, func() { g.Generate(Descriptor{Samples: 0, Spacing: 1}) })
	assert.Panics(t, func() { g.Generate(Descriptor{Samples: 4, Spacing: 0}) })
}
