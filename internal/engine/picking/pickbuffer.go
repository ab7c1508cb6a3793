package picking

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/heightstream/internal/logger"
)

// PixelReadback is the GPU side of the pick buffer: a one pixel staging
// buffer that is filled by a copy and read back once the GPU is done.
type PixelReadback interface {
	// CopyPixel queues a copy of the pick target pixel at (x, y).
	CopyPixel(x, y int) error
	// RequestMap asks for the staging buffer to become CPU readable.
	RequestMap() error
	// TryReadMapped returns the staging bytes if the map has completed.
	TryReadMapped() ([]byte, bool, error)
	// Unmap releases the mapping so the buffer can be copied into again.
	Unmap()
}

// PickState is the stage of the current readback cycle.
type PickState uint8

const (
	PickIdle PickState = iota
	PickCopying
	PickMapping
	PickMapped
)

func (s PickState) String() string {
	switch s {
	case PickIdle:
		return "idle"
	case PickCopying:
		return "copying"
	case PickMapping:
		return "mapping"
	case PickMapped:
		return "mapped"
	default:
		return "unknown"
	}
}

// PickBuffer runs one copy/map cycle at a time over a PixelReadback and
// hands out the entity id of the last completed cycle. A failing device
// resets the cycle and reads as "no entity" (0).
type PickBuffer struct {
	readback PixelReadback
	state    PickState
	mapped   uint32
	value    uint32
	failures uint64
	log      *zap.Logger
}

// NewPickBuffer creates an idle pick buffer.
func NewPickBuffer(readback PixelReadback) *PickBuffer {
	return &PickBuffer{
		readback: readback,
		log:      logger.Named("picking"),
	}
}

// State returns the current cycle stage.
func (b *PickBuffer) State() PickState {
	return b.state
}

// Failures returns how many cycles were abandoned on device errors.
func (b *PickBuffer) Failures() uint64 {
	return b.failures
}

// Copy starts a new cycle for pixel (x, y). It does nothing while a cycle
// is in flight or its result has not been read.
func (b *PickBuffer) Copy(x, y int) {
	if b.state != PickIdle {
		return
	}
	if err := b.readback.CopyPixel(x, y); err != nil {
		b.fail("copy", err)
		return
	}
	b.state = PickCopying
}

// Poll advances the cycle without blocking: Copying issues the map request,
// Mapping checks whether it has completed.
func (b *PickBuffer) Poll() {
	switch b.state {
	case PickCopying:
		if err := b.readback.RequestMap(); err != nil {
			b.fail("map", err)
			return
		}
		b.state = PickMapping
	case PickMapping:
		data, ok, err := b.readback.TryReadMapped()
		if err != nil {
			b.fail("read", err)
			return
		}
		if !ok {
			return
		}
		if len(data) < 4 {
			b.readback.Unmap()
			b.fail("read", fmt.Errorf("short pixel: %d bytes", len(data)))
			return
		}
		b.mapped = binary.LittleEndian.Uint32(data)
		b.state = PickMapped
	}
}

// ReadPixel returns the entity id of the last completed cycle. When a
// cycle has just completed it takes its value, unmaps, and returns to Idle.
func (b *PickBuffer) ReadPixel() uint32 {
	if b.state != PickMapped {
		return b.value
	}
	b.value = b.mapped
	b.readback.Unmap()
	b.state = PickIdle
	return b.value
}

func (b *PickBuffer) fail(stage string, err error) {
	b.failures++
	b.state = PickIdle
	b.value = 0
	b.log.Debug("pick readback failed", zap.String("stage", stage), zap.Error(err))
}
