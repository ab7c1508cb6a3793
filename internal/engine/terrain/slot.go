package terrain

// SlotState is the lifecycle of one (tile, LOD) entry.
type SlotState uint8

const (
	// NotRequested has no data and no request in flight.
	NotRequested SlotState = iota
	// Requested has exactly one request in flight.
	Requested
	// Available holds heights and a texture.
	Available
)

func (s SlotState) String() string {
	switch s {
	case NotRequested:
		return "not-requested"
	case Requested:
		return "requested"
	case Available:
		return "available"
	default:
		return "unknown"
	}
}

// slot is one (tile, LOD) entry. heights and texture are set exactly when
// state is Available.
type slot struct {
	state    SlotState
	heights  []float32
	texture  HeightTexture
	lastUsed uint64 // Frame the slot was last drawn or filled
}

func (s *slot) fill(heights []float32, tex HeightTexture, frame uint64) {
	s.state = Available
	s.heights = heights
	s.texture = tex
	s.lastUsed = frame
}

// release drops the data and returns the texture for the caller to free.
func (s *slot) release() HeightTexture {
	tex := s.texture
	s.state = NotRequested
	s.heights = nil
	s.texture = nil
	return tex
}

// slotKey identifies a slot in the cache.
type slotKey struct {
	tile int
	lod  LOD
}
