package terrain

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/heightstream/internal/heightfield"
	"github.com/Faultbox/heightstream/internal/logger"
	"github.com/Faultbox/heightstream/internal/stream"
)

// Config describes the tile grid.
type Config struct {
	TileSide    int     // Quads per tile side at LOD 0, power of two
	GridWidth   int     // Tiles in X
	GridHeight  int     // Tiles in Y
	TileSize    float32 // World units per tile side
	LODCount    int     // Defaults to LODCount when zero
	MaxResident int     // Available slots kept before eviction, 0 = never evict
}

type tile struct {
	coord  TileCoord
	center mgl32.Vec3
	slots  []slot
}

// Cache owns every (tile, LOD) slot for the lifetime of the process. It is
// not safe for concurrent use: the render loop is its only caller, and the
// worker is reached only through the request and response channels.
type Cache struct {
	cfg       Config
	backend   Backend
	requests  RequestSender
	responses ResponseSource
	log       *zap.Logger

	tiles        []tile
	viewPosition mgl32.Vec3
	frame        uint64

	evict *evictor
	stats Stats

	closedLogged bool
}

// NewCache creates a cache with every slot NotRequested. It panics on a
// grid that cannot hold the requested LOD levels.
func NewCache(cfg Config, backend Backend, requests RequestSender, responses ResponseSource) *Cache {
	if cfg.LODCount == 0 {
		cfg.LODCount = LODCount
	}
	if cfg.GridWidth <= 0 || cfg.GridHeight <= 0 || cfg.TileSide <= 0 {
		panic(fmt.Sprintf("terrain: invalid grid %+v", cfg))
	}
	if cfg.TileSide>>(cfg.LODCount-1) < 1 {
		panic(fmt.Sprintf("terrain: tile side %d too small for %d LOD levels", cfg.TileSide, cfg.LODCount))
	}

	c := &Cache{
		cfg:       cfg,
		backend:   backend,
		requests:  requests,
		responses: responses,
		log:       logger.Named("terrain"),
		tiles:     make([]tile, 0, cfg.GridWidth*cfg.GridHeight),
	}
	if cfg.MaxResident > 0 {
		c.evict = newEvictor()
	}

	for y := 0; y < cfg.GridHeight; y++ {
		for x := 0; x < cfg.GridWidth; x++ {
			c.tiles = append(c.tiles, tile{
				coord: TileCoord{X: x, Y: y},
				center: mgl32.Vec3{
					(float32(x) + 0.5) * cfg.TileSize,
					(float32(y) + 0.5) * cfg.TileSize,
					0,
				},
				slots: make([]slot, cfg.LODCount),
			})
		}
	}
	c.stats.NotRequested = len(c.tiles) * cfg.LODCount

	c.log.Info("tile cache created",
		zap.Int("grid_width", cfg.GridWidth),
		zap.Int("grid_height", cfg.GridHeight),
		zap.Int("tile_side", cfg.TileSide),
		zap.Int("lods", cfg.LODCount),
		zap.Int("max_resident", cfg.MaxResident),
	)
	return c
}

// Config returns the grid configuration.
func (c *Cache) Config() Config {
	return c.cfg
}

// Len returns the number of tiles.
func (c *Cache) Len() int {
	return len(c.tiles)
}

// Index returns the flat index of a tile coordinate.
func (c *Cache) Index(coord TileCoord) int {
	if coord.X < 0 || coord.Y < 0 || coord.X >= c.cfg.GridWidth || coord.Y >= c.cfg.GridHeight {
		panic(fmt.Sprintf("terrain: tile %+v outside %dx%d grid", coord, c.cfg.GridWidth, c.cfg.GridHeight))
	}
	return coord.Y*c.cfg.GridWidth + coord.X
}

// Coord returns the coordinate of a flat tile index.
func (c *Cache) Coord(idx int) TileCoord {
	return c.tile(idx).coord
}

// UpdateViewPosition sets the viewer position used for LOD selection.
func (c *Cache) UpdateViewPosition(pos mgl32.Vec3) {
	c.viewPosition = pos
}

// ViewPosition returns the last viewer position.
func (c *Cache) ViewPosition() mgl32.Vec3 {
	return c.viewPosition
}

// ResolveLOD returns the level tile idx should be drawn at from the current
// viewer position.
func (c *Cache) ResolveLOD(idx int) LOD {
	return ResolveLOD(c.viewPosition, c.tile(idx).center, c.cfg.TileSize, c.cfg.LODCount)
}

// State returns the state of one slot.
func (c *Cache) State(idx int, lod LOD) SlotState {
	return c.slot(idx, lod).state
}

// Descriptor returns the request that fills slot (idx, lod).
func (c *Cache) Descriptor(idx int, lod LOD) heightfield.Descriptor {
	checkLOD(lod, c.cfg.LODCount)
	t := c.tile(idx)
	return heightfield.Descriptor{
		OriginX:   t.coord.X * c.cfg.TileSide,
		OriginY:   t.coord.Y * c.cfg.TileSide,
		Spacing:   Spacing(lod),
		Samples:   SamplesPerSide(c.cfg.TileSide, lod),
		TileIndex: idx,
		LOD:       int(lod),
	}
}

// TickTile advances slot (idx, lod) for this frame and reports whether it
// can be drawn. A NotRequested slot sends its request and becomes Requested
// at once; if the channel refuses, it stays NotRequested and retries next
// frame. A Requested slot waits. An Available slot is drawable.
func (c *Cache) TickTile(idx int, lod LOD) bool {
	s := c.slot(idx, lod)

	switch s.state {
	case NotRequested:
		if err := c.requests.SendRequest(c.Descriptor(idx, lod)); err != nil {
			c.noteSendFailure(err)
			return false
		}
		s.state = Requested
		c.stats.NotRequested--
		c.stats.Requested++
		c.stats.Sent++
		return false
	case Requested:
		return false
	default:
		c.touch(slotKey{tile: idx, lod: lod}, s)
		return true
	}
}

// SubmitPendingRequests runs the request side of the draw traversal without
// drawing: every tile at its resolved LOD gets ticked.
func (c *Cache) SubmitPendingRequests() {
	c.frame++
	for i := range c.tiles {
		c.TickTile(i, c.ResolveLOD(i))
	}
}

// Draw walks every tile, resolves its LOD, ticks the slot and renders the
// ones that are Available. Tiles with nothing resident are skipped.
// DrainResponses should run first so this frame sees this frame's arrivals.
func (c *Cache) Draw() int {
	c.frame++
	drawn := 0
	for i := range c.tiles {
		lod := c.ResolveLOD(i)
		if !c.TickTile(i, lod) {
			continue
		}
		s := c.slot(i, lod)
		c.backend.RenderTile(lod, s.texture, c.instance(i, lod))
		drawn++
	}
	return drawn
}

// DrainResponses applies every height field waiting on the response channel.
// Texture creation failures are collected and returned after the rest are
// applied; the affected slots stay Requested.
func (c *Cache) DrainResponses() error {
	var errs []error
	for {
		hf, ok := c.responses.PollHeavy()
		if !ok {
			break
		}
		if err := c.ApplyResponse(hf); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ApplyResponse stores one height field in its (tile, LOD) slot. A response
// for a slot that is already Available is ignored. The slot takes ownership
// of hf.Heights.
func (c *Cache) ApplyResponse(hf heightfield.Heightfield) error {
	d := hf.Descriptor
	lod := LOD(d.LOD)
	s := c.slot(d.TileIndex, lod)

	side := SamplesPerSide(c.cfg.TileSide, lod)
	if d.Samples != side || len(hf.Heights) != side*side {
		panic(fmt.Sprintf("terrain: tile %d lod %d has %d samples (%d per side), want %d per side",
			d.TileIndex, d.LOD, len(hf.Heights), d.Samples, side))
	}

	if s.state == Available {
		c.log.Debug("duplicate height field ignored", zap.Int("tile", d.TileIndex), zap.Int("lod", d.LOD))
		return nil
	}

	tex, err := c.backend.CreateHeightTexture(hf.Heights, side, side)
	if err != nil {
		return fmt.Errorf("height texture for tile %d lod %d: %w", d.TileIndex, d.LOD, err)
	}

	switch s.state {
	case NotRequested:
		c.stats.NotRequested--
	case Requested:
		c.stats.Requested--
	}
	c.stats.Available++
	s.fill(hf.Heights, tex, c.frame)

	key := slotKey{tile: d.TileIndex, lod: lod}
	if c.evict != nil {
		c.evict.track(key, c.frame)
		c.enforceCapacity(key)
	}
	return nil
}

// Resident returns the height data tile idx is currently shown with: the
// slot at its resolved LOD if Available, otherwise the finest Available one.
func (c *Cache) Resident(idx int) (TileView, bool) {
	t := c.tile(idx)
	lod := c.ResolveLOD(idx)
	if t.slots[lod].state != Available {
		found := false
		for l := range t.slots {
			if t.slots[l].state == Available {
				lod, found = LOD(l), true
				break
			}
		}
		if !found {
			return TileView{}, false
		}
	}

	inst := c.instance(idx, lod)
	return TileView{
		Index:   idx,
		LOD:     lod,
		Origin:  inst.Position,
		Spacing: inst.Spacing,
		Samples: SamplesPerSide(c.cfg.TileSide, lod),
		Heights: t.slots[lod].heights,
	}, true
}

// Stats returns a snapshot of slot occupancy and counters.
func (c *Cache) Stats() Stats {
	st := c.stats
	st.Frame = c.frame
	return st
}

// Release frees every texture. The cache must not be used afterwards.
func (c *Cache) Release() {
	for i := range c.tiles {
		for l := range c.tiles[i].slots {
			s := &c.tiles[i].slots[l]
			if s.state == Available {
				c.backend.ReleaseHeightTexture(s.release())
			}
		}
	}
}

func (c *Cache) instance(idx int, lod LOD) Instance {
	t := c.tile(idx)
	scale := c.cfg.TileSize / float32(c.cfg.TileSide)
	return Instance{
		TileIndex: idx,
		Position: mgl32.Vec3{
			float32(t.coord.X) * c.cfg.TileSize,
			float32(t.coord.Y) * c.cfg.TileSize,
			0,
		},
		Spacing: scale * float32(Spacing(lod)),
	}
}

func (c *Cache) touch(key slotKey, s *slot) {
	s.lastUsed = c.frame
	if c.evict != nil {
		c.evict.track(key, c.frame)
	}
}

// enforceCapacity releases the lowest ranked slots until the cache is back
// within MaxResident. The slot just filled is never chosen.
func (c *Cache) enforceCapacity(keep slotKey) {
	for c.stats.Available > c.cfg.MaxResident {
		key, ok := c.evict.victim(keep)
		if !ok {
			return
		}
		s := c.slot(key.tile, key.lod)
		c.backend.ReleaseHeightTexture(s.release())
		c.stats.Available--
		c.stats.NotRequested++
		c.stats.Evictions++
		c.log.Debug("tile evicted", zap.Int("tile", key.tile), zap.Int("lod", int(key.lod)))
	}
}

func (c *Cache) noteSendFailure(err error) {
	c.stats.SendFailures++
	if errors.Is(err, stream.ErrClosed) {
		if !c.closedLogged {
			c.closedLogged = true
			c.log.Warn("request channel closed, tiles will not load", zap.Error(err))
		}
		return
	}
	c.log.Debug("tile request deferred", zap.Error(err))
}

func (c *Cache) tile(idx int) *tile {
	if idx < 0 || idx >= len(c.tiles) {
		panic(fmt.Sprintf("terrain: tile index %d out of range [0,%d)", idx, len(c.tiles)))
	}
	return &c.tiles[idx]
}

func (c *Cache) slot(idx int, lod LOD) *slot {
	checkLOD(lod, c.cfg.LODCount)
	return &c.tile(idx).slots[lod]
}
