package gpu

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// errSyncFailed means the driver could not wait on a fence, usually a lost
// context.
var errSyncFailed = errors.New("gpu: fence wait failed")

// Readback copies one entity pixel into a pixel pack buffer and reads it
// back once a fence says the copy has finished, so the CPU never waits for
// the GPU. It implements picking.PixelReadback.
type Readback struct {
	target *target
	pbo    uint32
	fence  uintptr
	mapped bool
}

func newReadback(t *target) *Readback {
	r := &Readback{target: t}
	gl.GenBuffers(1, &r.pbo)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, r.pbo)
	gl.BufferData(gl.PIXEL_PACK_BUFFER, 4, nil, gl.STREAM_READ)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	return r
}

// CopyPixel queues a copy of the entity id at window pixel (x, y), with y
// growing downwards.
func (r *Readback) CopyPixel(x, y int) error {
	t := r.target
	if x < 0 || y < 0 || int32(x) >= t.width || int32(y) >= t.height {
		return fmt.Errorf("pixel (%d, %d) outside %dx%d target", x, y, t.width, t.height)
	}

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT1)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, r.pbo)
	// With a pack buffer bound the last argument is an offset into it.
	gl.ReadPixels(int32(x), t.height-1-int32(y), 1, 1, gl.RED_INTEGER, gl.UNSIGNED_INT, nil)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	return glError("copy pixel")
}

// RequestMap fences the copy so TryReadMapped can tell when it is done.
func (r *Readback) RequestMap() error {
	r.deleteFence()
	r.fence = gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	if r.fence == 0 {
		return errors.New("gpu: fence creation failed")
	}
	// Make sure the fence reaches the GPU, or polling could spin forever.
	gl.Flush()
	return nil
}

// TryReadMapped polls the fence without waiting and maps the buffer once
// it has signaled.
func (r *Readback) TryReadMapped() ([]byte, bool, error) {
	if r.fence == 0 {
		return nil, false, errors.New("gpu: no map requested")
	}

	switch gl.ClientWaitSync(r.fence, 0, 0) {
	case gl.TIMEOUT_EXPIRED:
		return nil, false, nil
	case gl.WAIT_FAILED:
		r.deleteFence()
		return nil, false, errSyncFailed
	}
	r.deleteFence()

	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, r.pbo)
	ptr := gl.MapBufferRange(gl.PIXEL_PACK_BUFFER, 0, 4, gl.MAP_READ_BIT)
	if ptr == nil {
		gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
		return nil, false, glError("map pixel buffer")
	}
	r.mapped = true

	data := make([]byte, 4)
	copy(data, unsafe.Slice((*byte)(ptr), 4))
	return data, true, nil
}

// Unmap releases the mapping made by TryReadMapped.
func (r *Readback) Unmap() {
	if !r.mapped {
		return
	}
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, r.pbo)
	gl.UnmapBuffer(gl.PIXEL_PACK_BUFFER)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	r.mapped = false
}

func (r *Readback) deleteFence() {
	if r.fence != 0 {
		gl.DeleteSync(r.fence)
		r.fence = 0
	}
}

func (r *Readback) destroy() {
	r.Unmap()
	r.deleteFence()
	if r.pbo != 0 {
		gl.DeleteBuffers(1, &r.pbo)
		r.pbo = 0
	}
}

// glError drains the GL error queue and reports the first error, if any.
func glError(op string) error {
	var first uint32
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		if first == 0 {
			first = code
		}
	}
	if first == 0 {
		return nil
	}
	return fmt.Errorf("gpu: %s: GL error 0x%x", op, first)
}
