package batch

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// CompositorKind identifies one of the two compositor implementations.
type CompositorKind uint8

const (
	KindQuad CompositorKind = iota
	KindPrimitive
)

func (k CompositorKind) String() string {
	if k == KindQuad {
		return "quad"
	}
	return "primitive"
}

// RenderState is the renderer-owned drawing state that compositors read at
// submission time. Compositors keep a pointer and never copy it, so a change
// affects only vertices submitted afterwards.
type RenderState struct {
	Transform Transform
	Tint      Color   // Multiplied into textured quads
	Fill      Color   // Color of lines and filled primitives
	Alpha     float32 // Global alpha, multiplied into Tint and Fill alpha
}

// CompositorStats counts work done since the last ResetStats.
type CompositorStats struct {
	DrawCalls  int
	Vertices   int
	Quads      int
	Primitives int
}

// Compositor accumulates vertices for one program and draw mode and
// submits them in a single draw call. The set of implementations is closed:
// *QuadCompositor and *PrimitiveCompositor.
type Compositor interface {
	Kind() CompositorKind
	// Bind makes the compositor's program and vertex layout current.
	Bind() error
	// Flush draws every pending vertex with one draw call. It is a no-op
	// when nothing is pending.
	Flush() error
	// UseShader flushes, then switches to s (nil restores the default).
	UseShader(s *ShaderProgram) error
	Shader() *ShaderProgram
	DefaultShader() *ShaderProgram
	// SetProjection flushes, then sets the projection on the current program.
	SetProjection(m mgl32.Mat4) error
	// Pending returns the number of unflushed vertices.
	Pending() int
	Stats() CompositorStats
	ResetStats()
	// Destroy releases every device object the compositor owns.
	Destroy()

	base() *compositor
}

// compositor is the batching state shared by both implementations.
type compositor struct {
	state  *DeviceState
	render *RenderState

	layout        *Layout
	buffer        *VertexBuffer
	vbo           BufferHandle
	shader        *ShaderProgram
	defaultShader *ShaderProgram
	mode          DrawMode

	projection    mgl32.Mat4
	hasProjection bool

	stats CompositorStats

	// draw issues the draw call for count vertices.
	draw func(count int)
	// afterFlush runs after the buffer is cleared.
	afterFlush func()
	// prepareShader sets program-specific uniforms when a program becomes
	// current on this compositor.
	prepareShader func(s *ShaderProgram) error
}

func newCompositor(state *DeviceState, render *RenderState, layout *Layout, quadStride int, cfg Config) *compositor {
	vb := NewVertexBuffer(layout.Stride(), quadStride, cfg.VertexCapacity)
	vb.SetMaxVertices(cfg.MaxBatchVertices)
	return &compositor{
		state:  state,
		render: render,
		layout: layout,
		buffer: vb,
		vbo:    state.device.CreateBuffer(),
	}
}

func (c *compositor) base() *compositor { return c }

// Buffer exposes the vertex buffer for inspection.
func (c *compositor) Buffer() *VertexBuffer { return c.buffer }

// Layout returns the fixed attribute layout.
func (c *compositor) Layout() *Layout { return c.layout }

// Mode returns the current draw mode.
func (c *compositor) Mode() DrawMode { return c.mode }

func (c *compositor) Shader() *ShaderProgram        { return c.shader }
func (c *compositor) DefaultShader() *ShaderProgram { return c.defaultShader }
func (c *compositor) Pending() int                  { return c.buffer.Count() }
func (c *compositor) Stats() CompositorStats        { return c.stats }
func (c *compositor) ResetStats()                   { c.stats = CompositorStats{} }

func (c *compositor) Bind() error {
	if err := c.shader.Use(); err != nil {
		return err
	}
	c.state.device.BindVertexLayout(c.vbo, c.layout)
	return nil
}

func (c *compositor) Flush() error {
	n := c.buffer.Count()
	if n == 0 {
		return nil
	}
	defer c.clearBatch()

	dev := c.state.device
	if dev.ContextLost() {
		return ErrContextLost
	}
	if err := c.Bind(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	dev.UploadVertices(c.vbo, c.buffer.ByteView(0, n))
	c.draw(n)
	c.stats.DrawCalls++
	c.stats.Vertices += n
	return nil
}

// clearBatch empties the buffer and ends the batch, whether or not it was
// drawn.
func (c *compositor) clearBatch() {
	c.buffer.Clear()
	if c.afterFlush != nil {
		c.afterFlush()
	}
}

// setMode flushes before changing the draw mode.
func (c *compositor) setMode(mode DrawMode) error {
	if mode == c.mode {
		return nil
	}
	if err := c.Flush(); err != nil {
		return err
	}
	c.mode = mode
	return nil
}

func (c *compositor) UseShader(s *ShaderProgram) error {
	if s == nil {
		s = c.defaultShader
	}
	if s == c.shader {
		return s.Use()
	}
	if s.Destroyed() {
		return ErrProgramDestroyed
	}
	if err := c.Flush(); err != nil {
		return err
	}
	c.shader = s
	if err := s.Use(); err != nil {
		return err
	}
	return c.applyShaderState(s)
}

// applyShaderState pushes cached projection and program-specific uniforms
// into s.
func (c *compositor) applyShaderState(s *ShaderProgram) error {
	if c.hasProjection && s.HasUniform(UniformProjection) {
		if err := s.SetUniform(UniformProjection, c.projection); err != nil {
			return err
		}
	}
	if c.prepareShader != nil {
		return c.prepareShader(s)
	}
	return nil
}

func (c *compositor) SetProjection(m mgl32.Mat4) error {
	if c.hasProjection && c.projection == m {
		return nil
	}
	if err := c.Flush(); err != nil {
		return err
	}
	c.projection = m
	c.hasProjection = true
	if c.shader.HasUniform(UniformProjection) {
		return c.shader.SetUniform(UniformProjection, m)
	}
	return nil
}

// packColor returns the color to bake into vertices and whether anything
// would be visible at all.
func (c *compositor) packColor(col Color) (uint32, bool) {
	packed := col.Pack(c.render.Alpha)
	return packed, packed>>24 != 0
}

func (c *compositor) Destroy() {
	c.buffer.Clear()
	if c.vbo != 0 {
		c.state.device.DeleteBuffer(c.vbo)
		c.vbo = 0
	}
	c.defaultShader.Destroy()
}

// abandon drops device handles without touching the device.
func (c *compositor) abandon() {
	c.buffer.Clear()
	c.vbo = 0
	c.defaultShader.abandon()
	if c.shader != c.defaultShader {
		c.shader.abandon()
	}
}
