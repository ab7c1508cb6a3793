// Package gpu is the OpenGL backend for the terrain cache and the pick
// buffer. All calls must happen on the thread that owns the GL context.
package gpu

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/heightstream/internal/engine/gpu/shaders"
	"github.com/Faultbox/heightstream/internal/engine/lighting"
	"github.com/Faultbox/heightstream/internal/engine/picking"
	"github.com/Faultbox/heightstream/internal/engine/terrain"
	"github.com/Faultbox/heightstream/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width, Height int // Drawable size in pixels
	TileSide      int
	LODCount      int
	ShowLOD       bool // Tint tiles by LOD and outline them
}

// gridMesh is the uploaded lattice mesh for one LOD.
type gridMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

// heightTexture is the handle returned from CreateHeightTexture.
type heightTexture struct {
	id     uint32
	width  int
	height int
}

// Renderer draws terrain tiles into the scene target. It implements
// terrain.Backend.
type Renderer struct {
	config   Config
	program  *program
	meshes   []gridMesh
	target   *target
	readback *Readback
	log      *zap.Logger

	textures int // Live height textures
}

// New initializes OpenGL and creates the renderer.
// Must be called after the OpenGL context is current.
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r := &Renderer{config: cfg, log: logger.Named("gpu")}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	var err error
	r.program, err = compileProgram(shaders.TerrainVertexShader, shaders.TerrainFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("terrain shader: %w", err)
	}

	for lod := range cfg.LODCount {
		mesh := terrain.BuildGrid(terrain.SamplesPerSide(cfg.TileSide, terrain.LOD(lod)))
		r.meshes = append(r.meshes, uploadGrid(mesh))
	}

	r.target, err = newTarget(int32(cfg.Width), int32(cfg.Height))
	if err != nil {
		r.Close()
		return nil, err
	}
	r.readback = newReadback(r.target)

	return r, nil
}

func uploadGrid(mesh *terrain.Mesh) gridMesh {
	var m gridMesh
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	vertexSize := int(unsafe.Sizeof(terrain.Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*vertexSize, unsafe.Pointer(&mesh.Vertices[0]), gl.STATIC_DRAW)

	// Lattice position (location 0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)

	// TexCoord (location 1)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, int32(vertexSize), 2*4)
	gl.EnableVertexAttribArray(1)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, unsafe.Pointer(&mesh.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	m.indexCount = int32(len(mesh.Indices))
	return m
}

// Readback returns the pick pixel readback for the scene target.
func (r *Renderer) Readback() picking.PixelReadback {
	return r.readback
}

// CreateHeightTexture uploads a samples grid as a single channel float
// texture. Running out of GPU memory is reported as an error.
func (r *Renderer) CreateHeightTexture(samples []float32, width, height int) (terrain.HeightTexture, error) {
	if len(samples) != width*height {
		return nil, fmt.Errorf("gpu: %d samples for a %dx%d texture", len(samples), width, height)
	}
	// Clear stale errors so the check below only sees this upload.
	_ = glError("before height upload")

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R32F, int32(width), int32(height), 0, gl.RED, gl.FLOAT, gl.Ptr(samples))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := glError("height texture upload"); err != nil {
		gl.DeleteTextures(1, &id)
		return nil, err
	}

	r.textures++
	return &heightTexture{id: id, width: width, height: height}, nil
}

// ReleaseHeightTexture frees a texture made by CreateHeightTexture.
func (r *Renderer) ReleaseHeightTexture(tex terrain.HeightTexture) {
	ht, ok := tex.(*heightTexture)
	if !ok || ht.id == 0 {
		return
	}
	gl.DeleteTextures(1, &ht.id)
	ht.id = 0
	r.textures--
}

// Textures returns the number of live height textures.
func (r *Renderer) Textures() int {
	return r.textures
}

// BeginFrame binds the scene target and sets the per-frame uniforms. lights
// may be nil.
func (r *Renderer) BeginFrame(viewProj mgl32.Mat4, env lighting.Environment, lights *lighting.PointLightBuffer) {
	r.target.bind([4]float32{0.55, 0.7, 0.85, 1})

	p := r.program
	p.use()
	gl.UniformMatrix4fv(p.uniform("uViewProj"), 1, false, &viewProj[0])
	gl.Uniform3fv(p.uniform("uSunDir"), 1, &env.SunDir[0])
	gl.Uniform3fv(p.uniform("uAmbient"), 1, &env.Ambient[0])
	gl.Uniform1i(p.uniform("uHeights"), 0)
	showLOD := int32(0)
	if r.config.ShowLOD {
		showLOD = 1
	}
	gl.Uniform1i(p.uniform("uShowLOD"), showLOD)

	count := int32(0)
	if lights != nil {
		count = int32(lights.Count())
		if count > 0 {
			positions := lights.GetPositions()
			colors := lights.GetColors()
			ranges := lights.GetRanges()
			gl.Uniform3fv(p.uniform("uPointLightPositions"), lighting.MaxPointLights, &positions[0])
			gl.Uniform3fv(p.uniform("uPointLightColors"), lighting.MaxPointLights, &colors[0])
			gl.Uniform1fv(p.uniform("uPointLightRanges"), lighting.MaxPointLights, &ranges[0])
		}
	}
	gl.Uniform1i(p.uniform("uPointLightCount"), count)
}

// RenderTile draws the grid mesh for lod displaced by tex.
func (r *Renderer) RenderTile(lod terrain.LOD, tex terrain.HeightTexture, inst terrain.Instance) {
	ht, ok := tex.(*heightTexture)
	if !ok || ht.id == 0 || int(lod) >= len(r.meshes) {
		return
	}
	p := r.program
	gl.Uniform3fv(p.uniform("uOrigin"), 1, &inst.Position[0])
	gl.Uniform1f(p.uniform("uSpacing"), inst.Spacing)
	gl.Uniform1ui(p.uniform("uEntity"), picking.TerrainEntity(inst.TileIndex))
	gl.Uniform1i(p.uniform("uLOD"), int32(lod))

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, ht.id)

	mesh := r.meshes[lod]
	gl.BindVertexArray(mesh.vao)
	gl.DrawElements(gl.TRIANGLES, mesh.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// EndFrame copies the scene to the window.
func (r *Renderer) EndFrame() {
	r.target.present()
}

// CaptureFrame reads back the last rendered frame as RGBA rows, bottom row
// first. It stalls the pipeline.
func (r *Renderer) CaptureFrame() (pixels []byte, width, height int) {
	return r.target.readColor()
}

// Finish blocks until the GPU has executed every queued command.
func (r *Renderer) Finish() {
	gl.Finish()
}

// Resize handles a drawable size change.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	r.target.resize(int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Close releases every GL object the renderer owns. Height textures still
// held by the cache must be released first.
func (r *Renderer) Close() {
	r.log.Info("closing renderer", zap.Int("leaked_textures", r.textures))
	if r.readback != nil {
		r.readback.destroy()
	}
	if r.target != nil {
		r.target.destroy()
	}
	for i := range r.meshes {
		m := &r.meshes[i]
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ebo)
	}
	r.meshes = nil
	if r.program != nil {
		r.program.delete()
	}
}
