// Package app implements the viewer frame loop.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/heightstream/internal/config"
	"github.com/Faultbox/heightstream/internal/engine/camera"
	"github.com/Faultbox/heightstream/internal/engine/debug"
	"github.com/Faultbox/heightstream/internal/engine/lighting"
	"github.com/Faultbox/heightstream/internal/engine/picking"
	"github.com/Faultbox/heightstream/internal/engine/terrain"
	"github.com/Faultbox/heightstream/internal/heightfield"
	"github.com/Faultbox/heightstream/internal/logger"
	"github.com/Faultbox/heightstream/internal/stream"
)

// Window is the part of the OS window the frame loop uses.
type Window interface {
	Size() (int, int)
	DrawableSize() (int, int)
	SetTitle(title string)
	SwapBuffers()
}

// Input reports user input once per frame.
type Input interface {
	// Update polls pending events and reports whether the viewer should quit.
	Update() bool
	Controls() camera.Controls
	Resized() (width, height int, ok bool)
	ScreenshotRequested() bool
	DumpTileRequested() bool
}

// Renderer draws tiles for the cache and owns the pick target.
type Renderer interface {
	terrain.Backend
	BeginFrame(viewProj mgl32.Mat4, env lighting.Environment, lights *lighting.PointLightBuffer)
	EndFrame()
	Finish()
	Resize(width, height int)
	Readback() picking.PixelReadback
	CaptureFrame() (pixels []byte, width, height int)
}

// Deps are the platform pieces the app drives.
type Deps struct {
	Window   Window
	Input    Input
	Renderer Renderer
}

// App ties the tile cache, the terrain worker and picking to one window.
type App struct {
	cfg  *config.Config
	deps Deps
	log  *zap.Logger

	runner   *stream.Runner
	link     *stream.Link
	cache    *terrain.Cache
	lights   *lighting.PointLightBuffer
	env      lighting.Environment
	camera   *camera.FlyCamera
	proj     camera.Projection
	pick     *picking.PickBuffer // nil when pick readback is disabled
	selector *picking.Selector
	capture  *debug.Capturer

	details []picking.TileDetails
	heights [][]float32

	selection    picking.Intersection
	hasSelection bool
	telemetry    stream.Telemetry
	drawn        int
	frames       uint64
}

// New builds the terrain pipeline for cfg on top of deps.
func New(cfg *config.Config, deps Deps) (*App, error) {
	mode, err := stream.ParseMode(cfg.Worker.Mode)
	if err != nil {
		return nil, err
	}

	t := cfg.Terrain
	a := &App{
		cfg:      cfg,
		deps:     deps,
		log:      logger.Named("app"),
		lights:   lighting.NewPointLightBuffer(t.TileSize / float32(t.TileSide)),
		env:      lighting.DefaultEnvironment(),
		selector: picking.NewSelector(t.ClosestHit),
		capture:  debug.NewCapturer(cfg.Graphics.CaptureDir),
	}

	gen := heightfield.NewGenerator(t.Seed)
	a.link = stream.NewLink(cfg.Worker.RequestBuffer, cfg.Worker.ResponseBuffer)
	worker := stream.NewWorker(a.link, gen, stream.Options{
		AreaWidth:         t.GridWidth * t.TileSide,
		AreaHeight:        t.GridHeight * t.TileSide,
		MaxAnts:           cfg.Worker.MaxAnts,
		PointLightSpacing: cfg.Worker.PointLightSpacing,
		Seed:              t.Seed,
	})
	a.runner = stream.NewRunner(mode, worker, cfg.Worker.TickInterval)

	a.cache = terrain.NewCache(terrain.Config{
		TileSide:    t.TileSide,
		GridWidth:   t.GridWidth,
		GridHeight:  t.GridHeight,
		TileSize:    t.TileSize,
		LODCount:    t.LODCount,
		MaxResident: t.MaxResident,
	}, deps.Renderer, a.link, a.link)

	n := a.cache.Len()
	a.details = make([]picking.TileDetails, n)
	a.heights = make([][]float32, n)

	// Start above the grid's south-west corner looking across it.
	worldW := float32(t.GridWidth) * t.TileSize
	worldH := float32(t.GridHeight) * t.TileSize
	a.camera = camera.NewFlyCamera(mgl32.Vec3{-0.1 * worldW, -0.1 * worldH, 80}, mgl32.DegToRad(45), -0.35)

	dw, dh := deps.Window.DrawableSize()
	a.proj = camera.NewProjection(dw, dh, cfg.Graphics.FOV)

	if cfg.Graphics.EnablePickReadback {
		a.pick = picking.NewPickBuffer(deps.Renderer.Readback())
	}

	a.log.Info("viewer initialized",
		zap.Stringer("worker_mode", mode),
		zap.Int("tiles", n),
		zap.Bool("pick_readback", a.pick != nil),
		zap.String("session", worker.Session()),
	)
	return a, nil
}

// Camera returns the viewer camera.
func (a *App) Camera() *camera.FlyCamera {
	return a.camera
}

// Cache returns the tile cache.
func (a *App) Cache() *terrain.Cache {
	return a.cache
}

// Lights returns the point lights collected from the worker.
func (a *App) Lights() *lighting.PointLightBuffer {
	return a.lights
}

// Selection returns the terrain point under the cursor, if any.
func (a *App) Selection() (picking.Intersection, bool) {
	return a.selection, a.hasSelection
}

// Entity returns the entity id under the cursor from the last pick cycle.
func (a *App) Entity() uint32 {
	return a.selector.Entity()
}

// Drawn returns the number of tiles drawn in the last frame.
func (a *App) Drawn() int {
	return a.drawn
}

// Telemetry returns the latest worker timings.
func (a *App) Telemetry() stream.Telemetry {
	return a.telemetry
}

// Run drives frames until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.runner.Start(ctx)

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting frame loop")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if !a.Frame(float32(dt)) {
			return nil
		}

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.deps.Window.SetTitle(a.title(frameCount))
			a.log.Debug("fps", zap.Int("count", frameCount), zap.Int("drawn", a.drawn))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
}

// Frame runs one frame lasting dt seconds. It returns false once the user
// has asked to quit.
func (a *App) Frame(dt float32) bool {
	if a.deps.Input.Update() {
		return false
	}
	a.frames++

	if _, _, ok := a.deps.Input.Resized(); ok {
		dw, dh := a.deps.Window.DrawableSize()
		a.proj.Resize(dw, dh)
		a.deps.Renderer.Resize(dw, dh)
	}

	ctrl := a.deps.Input.Controls()
	a.camera.Apply(ctrl, dt)
	a.cache.UpdateViewPosition(a.camera.Position())

	// Inline mode ticks the worker here; this frame's drain sees its output.
	a.runner.Update()
	a.drainMessages()
	if err := a.cache.DrainResponses(); err != nil {
		a.log.Warn("tile upload failed", zap.Error(err))
	}

	viewProj := a.proj.ViewProjection(a.camera)
	a.deps.Renderer.BeginFrame(viewProj, a.env, a.lights)
	a.drawn = a.cache.Draw()
	a.deps.Renderer.EndFrame()

	px, py := a.drawablePoint(ctrl.CursorX, ctrl.CursorY)
	if a.pick != nil {
		a.pick.Poll()
		a.selector.UpdateEntity(a.pick.ReadPixel())
		a.pick.Copy(px, py)
	}
	a.selector.UpdateView(a.camera.Position(), viewProj.Inv(),
		float32(px), float32(py), float32(a.proj.Width), float32(a.proj.Height))
	a.updateSelection()
	a.handleCaptures()

	if a.cfg.Graphics.WaitForGPU {
		a.deps.Renderer.Finish()
	}
	a.deps.Window.SwapBuffers()
	return true
}

// Close stops the worker and frees the tile textures. The renderer must
// still be alive.
func (a *App) Close() {
	a.log.Info("closing viewer", zap.Uint64("frames", a.frames))
	a.runner.Stop()
	a.cache.Release()
}

// drainMessages empties the small message classes. Telemetry keeps only
// the latest sample.
func (a *App) drainMessages() {
	for {
		u, ok := a.link.PollLight()
		if !ok {
			break
		}
		a.lights.Apply(u)
	}
	for {
		t, ok := a.link.PollMedium()
		if !ok {
			break
		}
		a.telemetry = t
	}
	for {
		n, ok := a.link.PollCritical()
		if !ok {
			break
		}
		a.log.Error("terrain worker failure", zap.String("session", n.Session), zap.Error(n.Err))
	}
}

// updateSelection refreshes the resident tile data and intersects the
// cursor ray with the tile under the cursor.
func (a *App) updateSelection() {
	for i := range a.heights {
		view, ok := a.cache.Resident(i)
		if !ok {
			a.heights[i] = nil
			continue
		}
		a.details[i] = picking.TileDetails{Origin: view.Origin, Spacing: view.Spacing, Samples: view.Samples}
		a.heights[i] = view.Heights
	}
	a.selection, a.hasSelection = a.selector.FindSelection(a.details, a.heights)
}

// handleCaptures writes the frame or the tile under the cursor when asked.
// Failures are logged; the viewer keeps running.
func (a *App) handleCaptures() {
	if a.deps.Input.ScreenshotRequested() {
		pixels, w, h := a.deps.Renderer.CaptureFrame()
		if path, err := a.capture.SaveFrame(pixels, w, h); err != nil {
			a.log.Warn("screenshot failed", zap.Error(err))
		} else {
			a.log.Info("screenshot saved", zap.String("path", path))
		}
	}

	if a.deps.Input.DumpTileRequested() {
		idx, ok := picking.DecodeTerrainEntity(a.selector.Entity())
		if !ok || idx >= a.cache.Len() {
			a.log.Info("no terrain under the cursor to dump")
			return
		}
		view, ok := a.cache.Resident(idx)
		if !ok {
			a.log.Info("tile under the cursor is not loaded", zap.Int("tile", idx))
			return
		}
		path, err := a.capture.SaveTile(idx, int(view.LOD), view.Heights, view.Samples)
		if err != nil {
			a.log.Warn("tile dump failed", zap.Int("tile", idx), zap.Error(err))
			return
		}
		a.log.Info("tile heights saved", zap.Int("tile", idx), zap.Int("lod", int(view.LOD)), zap.String("path", path))
	}
}

// drawablePoint converts a cursor position in window coordinates to
// drawable pixels, which differ on high-DPI displays.
func (a *App) drawablePoint(x, y int) (int, int) {
	ww, wh := a.deps.Window.Size()
	if ww <= 0 || wh <= 0 {
		return x, y
	}
	return x * a.proj.Width / ww, y * a.proj.Height / wh
}

func (a *App) title(fps int) string {
	st := a.cache.Stats()
	title := fmt.Sprintf("heightstream | %d fps | tiles %d drawn, %d resident, %d loading",
		fps, a.drawn, st.Available, st.Requested)
	if a.hasSelection {
		p := a.selection.P
		title += fmt.Sprintf(" | cursor %.1f, %.1f, %.1f", p[0], p[1], p[2])
	}
	return title
}
