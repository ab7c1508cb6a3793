// Package debug writes frame captures and tile height dumps for inspection.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// Capturer writes timestamped PNG files into a directory.
type Capturer struct {
	outputDir string
	now       func() time.Time
}

// NewCapturer creates a capturer writing into outputDir. An empty
// outputDir writes into the working directory.
func NewCapturer(outputDir string) *Capturer {
	return &Capturer{outputDir: outputDir, now: time.Now}
}

// SaveFrame writes RGBA pixels read back from OpenGL. The rows are flipped
// since OpenGL has its origin at the bottom-left.
func (c *Capturer) SaveFrame(pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * img.Stride
		copy(img.Pix[dst:dst+rowSize], pixels[src:src+rowSize])
	}

	return c.save("frame", img)
}

// SaveTile writes a tile's height samples as a 16-bit grayscale image.
func (c *Capturer) SaveTile(tile, lod int, heights []float32, samples int) (string, error) {
	img, err := HeightImage(heights, samples)
	if err != nil {
		return "", err
	}
	return c.save(fmt.Sprintf("tile%d_lod%d", tile, lod), img)
}

func (c *Capturer) save(prefix string, img image.Image) (string, error) {
	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := fmt.Sprintf("%s_%s.png", prefix, c.now().Format("2006-01-02_15-04-05.000"))
	if c.outputDir != "" {
		filename = filepath.Join(c.outputDir, filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, nil
}
