package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks settings that would otherwise trip invariants deep inside
// the tile cache.
func (c *Config) Validate() error {
	t := c.Terrain
	if t.GridWidth <= 0 || t.GridHeight <= 0 {
		return fmt.Errorf("%w: terrain grid %dx%d", ErrInvalid, t.GridWidth, t.GridHeight)
	}
	if t.LODCount <= 0 {
		return fmt.Errorf("%w: terrain.lod_count %d", ErrInvalid, t.LODCount)
	}
	if t.TileSide <= 0 || t.TileSide&(t.TileSide-1) != 0 {
		return fmt.Errorf("%w: terrain.tile_side %d is not a power of two", ErrInvalid, t.TileSide)
	}
	if t.TileSide>>(t.LODCount-1) < 1 {
		return fmt.Errorf("%w: terrain.tile_side %d too small for %d LOD levels", ErrInvalid, t.TileSide, t.LODCount)
	}
	if t.TileSize <= 0 {
		return fmt.Errorf("%w: terrain.tile_size %v", ErrInvalid, t.TileSize)
	}
	if t.MaxResident < 0 {
		return fmt.Errorf("%w: terrain.max_resident %d", ErrInvalid, t.MaxResident)
	}
	// The pick id carries the tile index in 24 bits.
	if t.GridWidth*t.GridHeight > 1<<24 {
		return fmt.Errorf("%w: %d tiles exceed the pick id range", ErrInvalid, t.GridWidth*t.GridHeight)
	}

	w := c.Worker
	switch w.Mode {
	case WorkerThreaded, WorkerInline:
	default:
		return fmt.Errorf("%w: worker.mode %q", ErrInvalid, w.Mode)
	}
	if w.Mode == WorkerThreaded && w.TickInterval <= 0 {
		return fmt.Errorf("%w: worker.tick_interval %v", ErrInvalid, w.TickInterval)
	}
	if w.RequestBuffer <= 0 || w.ResponseBuffer <= 0 {
		return fmt.Errorf("%w: worker buffers must be positive", ErrInvalid)
	}

	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("%w: window %dx%d", ErrInvalid, c.Graphics.Width, c.Graphics.Height)
	}
	return nil
}
