package debug

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// HeightImage maps a samples x samples height grid onto 16-bit gray,
// stretching the tile's own range to full scale. Row 0 of the grid is the
// tile's lowest Y, so it becomes the bottom row of the image.
func HeightImage(heights []float32, samples int) (*image.Gray16, error) {
	if samples < 1 || len(heights) != samples*samples {
		return nil, fmt.Errorf("%d heights for %d samples per side", len(heights), samples)
	}

	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, h := range heights {
		lo = min(lo, h)
		hi = max(hi, h)
	}
	scale := float32(0)
	if hi > lo {
		scale = math.MaxUint16 / (hi - lo)
	}

	img := image.NewGray16(image.Rect(0, 0, samples, samples))
	for y := 0; y < samples; y++ {
		for x := 0; x < samples; x++ {
			v := (heights[y*samples+x] - lo) * scale
			img.SetGray16(x, samples-1-y, color.Gray16{Y: uint16(v + 0.5)})
		}
	}
	return img, nil
}
