package app

import (
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/heightstream/internal/config"
	"github.com/Faultbox/heightstream/internal/engine/camera"
	"github.com/Faultbox/heightstream/internal/engine/lighting"
	"github.com/Faultbox/heightstream/internal/engine/picking"
	"github.com/Faultbox/heightstream/internal/engine/terrain"
)

type fakeWindow struct {
	width, height int
	drawW, drawH  int
	swaps         int
	title         string
}

func (w *fakeWindow) Size() (int, int)         { return w.width, w.height }
func (w *fakeWindow) DrawableSize() (int, int) { return w.drawW, w.drawH }
func (w *fakeWindow) SetTitle(title string)    { w.title = title }
func (w *fakeWindow) SwapBuffers()             { w.swaps++ }

type fakeInput struct {
	quitAfter int // Update calls before quitting, 0 = never
	updates   int
	controls  camera.Controls
	resized   bool
	shot      bool
	dump      bool
}

func (i *fakeInput) Update() bool {
	i.updates++
	return i.quitAfter > 0 && i.updates > i.quitAfter
}

func (i *fakeInput) Controls() camera.Controls { return i.controls }

func (i *fakeInput) ScreenshotRequested() bool {
	v := i.shot
	i.shot = false
	return v
}

func (i *fakeInput) DumpTileRequested() bool {
	v := i.dump
	i.dump = false
	return v
}

func (i *fakeInput) Resized() (int, int, bool) {
	if !i.resized {
		return 0, 0, false
	}
	i.resized = false
	return 1, 1, true
}

type fakeReadback struct {
	entity  uint32
	copies  [][2]int
	pending bool
}

func (r *fakeReadback) CopyPixel(x, y int) error {
	r.copies = append(r.copies, [2]int{x, y})
	return nil
}

func (r *fakeReadback) RequestMap() error {
	r.pending = true
	return nil
}

func (r *fakeReadback) TryReadMapped() ([]byte, bool, error) {
	if !r.pending {
		return nil, false, nil
	}
	r.pending = false
	return binary.LittleEndian.AppendUint32(nil, r.entity), true, nil
}

func (r *fakeReadback) Unmap() {}

type fakeRenderer struct {
	readback *fakeReadback
	textures int
	failNext error
	rendered int
	frames   int
	finishes int
	resized  [][2]int
	lights   int
	captures int
}

func (r *fakeRenderer) CreateHeightTexture(samples []float32, width, height int) (terrain.HeightTexture, error) {
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return nil, err
	}
	r.textures++
	return r.textures, nil
}

func (r *fakeRenderer) ReleaseHeightTexture(terrain.HeightTexture) { r.textures-- }

func (r *fakeRenderer) RenderTile(terrain.LOD, terrain.HeightTexture, terrain.Instance) {
	r.rendered++
}

func (r *fakeRenderer) BeginFrame(_ mgl32.Mat4, _ lighting.Environment, lights *lighting.PointLightBuffer) {
	r.frames++
	r.lights = lights.Count()
}

func (r *fakeRenderer) EndFrame()                       {}
func (r *fakeRenderer) Finish()                         { r.finishes++ }
func (r *fakeRenderer) Readback() picking.PixelReadback { return r.readback }

func (r *fakeRenderer) CaptureFrame() ([]byte, int, int) {
	r.captures++
	return make([]byte, 2*2*4), 2, 2
}

func (r *fakeRenderer) Resize(width, height int) {
	r.resized = append(r.resized, [2]int{width, height})
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Worker.Mode = config.WorkerInline
	cfg.Terrain.TileSide = 8
	cfg.Terrain.GridWidth = 2
	cfg.Terrain.GridHeight = 2
	cfg.Terrain.TileSize = 32
	cfg.Terrain.LODCount = 2
	cfg.Graphics.CaptureDir = ""
	return cfg
}

type harness struct {
	app      *App
	window   *fakeWindow
	input    *fakeInput
	renderer *fakeRenderer
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	h := &harness{
		window:   &fakeWindow{width: 200, height: 100, drawW: 400, drawH: 200},
		input:    &fakeInput{controls: camera.Controls{CursorX: 100, CursorY: 50}},
		renderer: &fakeRenderer{readback: &fakeReadback{}},
	}
	a, err := New(cfg, Deps{Window: h.window, Input: h.input, Renderer: h.renderer})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	h.app = a
	return h
}

func (h *harness) frames(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.True(t, h.app.Frame(1.0/60))
	}
}

func TestNewRejectsUnknownWorkerMode(t *testing.T) {
	cfg := testConfig()
	cfg.Worker.Mode = "forked"
	_, err := New(cfg, Deps{Window: &fakeWindow{}, Input: &fakeInput{}, Renderer: &fakeRenderer{}})
	assert.Error(t, err)
}

func TestFrameStreamsTiles(t *testing.T) {
	h := newHarness(t, testConfig())

	// One frame sends every request; the inline worker serves one per frame.
	h.frames(t, 10)

	st := h.app.Cache().Stats()
	assert.Equal(t, 4, st.Available)
	assert.Equal(t, 0, st.Requested)
	assert.Equal(t, 4, h.app.Drawn())
	assert.Equal(t, 4, h.renderer.textures)

	assert.Equal(t, 10, h.renderer.frames)
	assert.Equal(t, 10, h.window.swaps)
	assert.Positive(t, h.renderer.lights)
	assert.Positive(t, h.app.Telemetry().Tick)
}

func TestFrameQuit(t *testing.T) {
	h := newHarness(t, testConfig())
	h.input.quitAfter = 2

	assert.True(t, h.app.Frame(0))
	assert.True(t, h.app.Frame(0))
	assert.False(t, h.app.Frame(0))
	assert.Equal(t, 2, h.window.swaps)
}

func TestPickSelectsTerrainUnderCursor(t *testing.T) {
	h := newHarness(t, testConfig())
	h.renderer.readback.entity = picking.TerrainEntity(0)

	// High above the west edge, looking almost straight down along +X so
	// the centre ray comes down inside tile 0.
	cam := h.app.Camera()
	cam.Eye = mgl32.Vec3{-20, 10, 500}
	cam.Yaw = 0
	cam.SetPitch(-1.5)

	h.frames(t, 12)

	require.NotEmpty(t, h.renderer.readback.copies)
	// Window cursor (100, 50) in a 2x high-DPI drawable.
	assert.Equal(t, [2]int{200, 100}, h.renderer.readback.copies[0])
	assert.Equal(t, picking.TerrainEntity(0), h.app.Entity())

	hit, ok := h.app.Selection()
	require.True(t, ok)
	// The ray is unprojected from 500 units up, so y drifts slightly in float32.
	assert.InDelta(t, 10, hit.P[1], 1e-2)
	// The point on the ray and the barycentric point on the terrain agree.
	onSurface := picking.PointFromTriangle(hit.Triangle, hit.U, hit.V)
	for i := range 3 {
		assert.InDelta(t, onSurface[i], hit.P[i], 5e-2)
	}
	assert.GreaterOrEqual(t, hit.P[0], float32(0))
	assert.LessOrEqual(t, hit.P[0], float32(32))
	assert.GreaterOrEqual(t, hit.P[2], float32(0))
}

func TestPickOtherTileHasNoSelection(t *testing.T) {
	h := newHarness(t, testConfig())
	// Tile 3 is the far corner; the cursor ray never crosses it.
	h.renderer.readback.entity = picking.TerrainEntity(3)

	cam := h.app.Camera()
	cam.Eye = mgl32.Vec3{-20, 10, 500}
	cam.Yaw = 0
	cam.SetPitch(-1.5)

	h.frames(t, 12)

	assert.Equal(t, picking.TerrainEntity(3), h.app.Entity())
	_, ok := h.app.Selection()
	assert.False(t, ok)
}

func TestPickReadbackDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Graphics.EnablePickReadback = false
	h := newHarness(t, cfg)
	h.renderer.readback.entity = picking.TerrainEntity(0)

	h.frames(t, 5)

	assert.Empty(t, h.renderer.readback.copies)
	assert.Zero(t, h.app.Entity())
}

func TestResizeUsesDrawableSize(t *testing.T) {
	h := newHarness(t, testConfig())
	h.window.drawW, h.window.drawH = 800, 600
	h.input.resized = true

	h.frames(t, 2)

	assert.Equal(t, [][2]int{{800, 600}}, h.renderer.resized)
}

func TestWaitForGPU(t *testing.T) {
	cfg := testConfig()
	cfg.Graphics.WaitForGPU = true
	h := newHarness(t, cfg)

	h.frames(t, 3)
	assert.Equal(t, 3, h.renderer.finishes)
}

func TestUploadFailureKeepsRunning(t *testing.T) {
	h := newHarness(t, testConfig())
	h.renderer.failNext = errors.New("out of memory")

	h.frames(t, 10)

	// The failed slot stays Requested; the rest load normally.
	st := h.app.Cache().Stats()
	assert.Equal(t, 3, st.Available)
	assert.Equal(t, 1, st.Requested)
	assert.Equal(t, 3, h.app.Drawn())
}

func TestCloseReleasesTextures(t *testing.T) {
	h := newHarness(t, testConfig())
	h.frames(t, 10)
	require.Equal(t, 4, h.renderer.textures)

	h.app.Close()
	assert.Zero(t, h.renderer.textures)
}

func TestCaptures(t *testing.T) {
	cfg := testConfig()
	cfg.Graphics.CaptureDir = t.TempDir()
	h := newHarness(t, cfg)
	h.renderer.readback.entity = picking.TerrainEntity(0)
	h.frames(t, 10)

	h.input.shot = true
	h.input.dump = true
	h.frames(t, 1)

	assert.Equal(t, 1, h.renderer.captures)
	frames, err := filepath.Glob(filepath.Join(cfg.Graphics.CaptureDir, "frame_*.png"))
	require.NoError(t, err)
	assert.Len(t, frames, 1)
	tiles, err := filepath.Glob(filepath.Join(cfg.Graphics.CaptureDir, "tile0_lod1_*.png"))
	require.NoError(t, err)
	assert.Len(t, tiles, 1)
}
