package batch

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// FrameStats summarizes the work submitted since BeginFrame.
type FrameStats struct {
	DrawCalls       int
	Vertices        int
	Quads           int
	Primitives      int
	ProgramSwitches int
	TextureBinds    int
	// Flushes counts batches the renderer forced out for a state change or
	// frame end, as opposed to flushes a compositor made on its own.
	Flushes int
}

type clipRect struct {
	enabled    bool
	x, y, w, h int
}

// savedState is one entry of the Save/Restore stack.
type savedState struct {
	transform Matrix2D
	custom    Transform
	tint      Color
	fill      Color
	alpha     float32
	blend     BlendMode
	clip      clipRect
}

// Renderer is the drawing facade over a Device. It owns one compositor of
// each kind, creates them on first use, and flushes the active one whenever
// device state changes underneath it.
//
// A Renderer must only be used from the goroutine that owns the device's
// context.
type Renderer struct {
	dev   Device
	cfg   Config
	state *DeviceState

	render    RenderState
	transform Matrix2D
	custom    Transform // set by SetTransform with a foreign implementation

	quad   *QuadCompositor
	prim   *PrimitiveCompositor
	active Compositor

	width, height int
	projection    mgl32.Mat4
	blend         BlendMode
	clip          clipRect
	stack         []savedState

	retired CompositorStats // stats of compositors torn down mid-frame
	flushes int

	lost   bool
	closed bool
}

// NewRenderer creates a renderer drawing into a width x height framebuffer.
// Compositors and their programs are created lazily on first draw.
func NewRenderer(dev Device, width, height int, opts ...Option) (*Renderer, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	SetVerbose(cfg.Verbose)

	r := &Renderer{
		dev:       dev,
		cfg:       cfg,
		state:     NewDeviceState(dev),
		transform: Identity(),
	}
	r.render = RenderState{Transform: &r.transform, Tint: White, Fill: White, Alpha: 1}
	r.state.SetBlendMode(BlendNormal)
	if err := r.Resize(width, height); err != nil {
		return nil, err
	}

	Logger().Info("renderer created", "width", width, "height", height,
		"precision", cfg.Precision, "maxTextureUnits", min(dev.MaxTextureUnits(), cfg.MaxTextureUnits))
	return r, nil
}

// Config returns the effective configuration.
func (r *Renderer) Config() Config { return r.cfg }

// DeviceState returns the shared binding tracker.
func (r *Renderer) DeviceState() *DeviceState { return r.state }

// Size returns the framebuffer size last passed to Resize.
func (r *Renderer) Size() (width, height int) { return r.width, r.height }

func (r *Renderer) usable() error {
	switch {
	case r.closed:
		return ErrClosed
	case r.lost:
		return ErrContextLost
	}
	return nil
}

// compositor returns the compositor of kind, creating it if needed.
func (r *Renderer) compositor(kind CompositorKind) (Compositor, error) {
	switch kind {
	case KindQuad:
		if r.quad == nil {
			q, err := NewQuadCompositor(r.state, &r.render, r.cfg)
			if err != nil {
				return nil, err
			}
			r.quad = q
			if err := q.SetProjection(r.projection); err != nil {
				return nil, err
			}
		}
		return r.quad, nil
	case KindPrimitive:
		if r.prim == nil {
			p, err := NewPrimitiveCompositor(r.state, &r.render, r.cfg)
			if err != nil {
				return nil, err
			}
			r.prim = p
			if err := p.SetProjection(r.projection); err != nil {
				return nil, err
			}
		}
		return r.prim, nil
	}
	return nil, fmt.Errorf("batch: unknown compositor kind %d", kind)
}

// SetCompositor makes kind the active compositor, flushing the outgoing one.
func (r *Renderer) SetCompositor(kind CompositorKind) error {
	_, err := r.activate(kind)
	return err
}

// Active returns the active compositor, or nil before the first draw.
func (r *Renderer) Active() Compositor { return r.active }

func (r *Renderer) activate(kind CompositorKind) (Compositor, error) {
	if err := r.usable(); err != nil {
		return nil, err
	}
	if r.active != nil && r.active.Kind() == kind {
		return r.active, nil
	}
	if err := r.flush(); err != nil {
		return nil, err
	}
	c, err := r.compositor(kind)
	if err != nil {
		return nil, err
	}
	if err := c.Bind(); err != nil {
		return nil, err
	}
	if debugEnabled() && r.active != nil {
		Logger().Debug("compositor switch", "from", r.active.Kind(), "to", kind)
	}
	r.active = c
	return c, nil
}

// flush submits the active compositor's pending vertices.
func (r *Renderer) flush() error {
	if r.active == nil || r.active.Pending() == 0 {
		return nil
	}
	r.flushes++
	return r.active.Flush()
}

// Flush submits every pending vertex. Calling it twice in a row issues no
// second draw call.
func (r *Renderer) Flush() error {
	if err := r.usable(); err != nil {
		return err
	}
	return r.flush()
}

// BeginFrame starts a frame: it detects context loss, reapplies device
// state after a restore, resets the frame statistics and clears to the
// configured clear color. While the context stays lost it returns
// ErrContextLost and the frame should be skipped.
func (r *Renderer) BeginFrame() error {
	if r.closed {
		return ErrClosed
	}
	if r.dev.ContextLost() {
		if !r.lost {
			r.HandleContextLost()
		}
		return ErrContextLost
	}
	if r.lost {
		r.lost = false
		r.restoreDevice()
		Logger().Info("graphics context restored, recreating on demand")
	}
	r.resetStats()
	c := r.cfg.ClearColor
	r.dev.Clear(Color{c[0], c[1], c[2], c[3]})
	return nil
}

// Clear flushes, then clears the framebuffer to c.
func (r *Renderer) Clear(c Color) error {
	if err := r.Flush(); err != nil {
		return err
	}
	r.dev.Clear(c)
	return nil
}

// EndFrame flushes and returns the statistics of the frame.
func (r *Renderer) EndFrame() (FrameStats, error) {
	err := r.Flush()
	return r.Stats(), err
}

// Stats returns the statistics accumulated since BeginFrame.
func (r *Renderer) Stats() FrameStats {
	cs := r.retired
	for _, c := range r.compositors() {
		s := c.Stats()
		cs.DrawCalls += s.DrawCalls
		cs.Vertices += s.Vertices
		cs.Quads += s.Quads
		cs.Primitives += s.Primitives
	}
	return FrameStats{
		DrawCalls:       cs.DrawCalls,
		Vertices:        cs.Vertices,
		Quads:           cs.Quads,
		Primitives:      cs.Primitives,
		ProgramSwitches: r.state.programSwitches,
		TextureBinds:    r.state.textureBinds,
		Flushes:         r.flushes,
	}
}

func (r *Renderer) resetStats() {
	for _, c := range r.compositors() {
		c.ResetStats()
	}
	r.retired = CompositorStats{}
	r.state.programSwitches = 0
	r.state.textureBinds = 0
	r.flushes = 0
}

// compositors returns the compositors created so far.
func (r *Renderer) compositors() []Compositor {
	cs := make([]Compositor, 0, 2)
	if r.quad != nil {
		cs = append(cs, r.quad)
	}
	if r.prim != nil {
		cs = append(cs, r.prim)
	}
	return cs
}

// Quads returns the quad compositor, creating it if needed.
func (r *Renderer) Quads() (*QuadCompositor, error) {
	if _, err := r.activate(KindQuad); err != nil {
		return nil, err
	}
	return r.quad, nil
}

// Primitives returns the primitive compositor, creating it if needed.
func (r *Renderer) Primitives() (*PrimitiveCompositor, error) {
	if _, err := r.activate(KindPrimitive); err != nil {
		return nil, err
	}
	return r.prim, nil
}

// DrawImage draws the whole texture at (x, y) at its pixel size.
func (r *Renderer) DrawImage(tex Texture, x, y float32) error {
	size := tex.Image().Bounds().Size()
	return r.AddQuad(tex, "", x, y, float32(size.X), float32(size.Y))
}

// AddQuad draws the named region of tex stretched over (x, y, w, h).
func (r *Renderer) AddQuad(tex Texture, regionKey string, x, y, w, h float32) error {
	q, err := r.Quads()
	if err != nil {
		return err
	}
	return q.AddQuad(tex, regionKey, x, y, w, h)
}

// ReleaseTexture frees the device texture uploaded for tex, if any.
func (r *Renderer) ReleaseTexture(tex Texture) error {
	if r.quad == nil {
		return nil
	}
	if err := r.usable(); err != nil {
		return err
	}
	return r.quad.ReleaseTexture(tex)
}

// DrawVertices draws points in mode with the current fill color.
func (r *Renderer) DrawVertices(mode DrawMode, points []Vec2) error {
	p, err := r.Primitives()
	if err != nil {
		return err
	}
	return p.DrawVertices(mode, points)
}

// FillRect fills a rectangle with the current fill color.
func (r *Renderer) FillRect(x, y, w, h float32) error {
	c := Rect{X: x, Y: y, W: w, H: h}.Corners()
	return r.DrawVertices(Triangles, []Vec2{c[0], c[1], c[2], c[2], c[1], c[3]})
}

// StrokeRect outlines a rectangle with the current fill color.
func (r *Renderer) StrokeRect(x, y, w, h float32) error {
	c := Rect{X: x, Y: y, W: w, H: h}.Corners()
	return r.DrawVertices(Lines, []Vec2{
		c[0], c[1],
		c[1], c[3],
		c[3], c[2],
		c[2], c[0],
	})
}

// StrokeLine draws a single line segment.
func (r *Renderer) StrokeLine(x0, y0, x1, y1 float32) error {
	return r.DrawVertices(Lines, []Vec2{{x0, y0}, {x1, y1}})
}

// FillPolygon fills a convex polygon. It is fanned into a triangle list so
// consecutive polygons share a draw call.
func (r *Renderer) FillPolygon(points []Vec2) error {
	if len(points) == 0 {
		return nil
	}
	if len(points) < 3 {
		return fmt.Errorf("%w: polygon with %d points", ErrIncompletePrimitive, len(points))
	}
	tris := make([]Vec2, 0, (len(points)-2)*3)
	for i := 1; i < len(points)-1; i++ {
		tris = append(tris, points[0], points[i], points[i+1])
	}
	return r.DrawVertices(Triangles, tris)
}

// StrokePolygon outlines a closed polygon.
func (r *Renderer) StrokePolygon(points []Vec2) error {
	return r.DrawVertices(LineLoop, points)
}

// NewShader compiles a program for the vertex layout of kind at the
// configured precision, for use with UseShader.
func (r *Renderer) NewShader(kind CompositorKind, vertexSrc, fragmentSrc string) (*ShaderProgram, error) {
	if err := r.usable(); err != nil {
		return nil, err
	}
	layout := QuadLayout
	if kind == KindPrimitive {
		layout = PrimitiveLayout
	}
	return NewShaderProgram(r.state, layout, vertexSrc, fragmentSrc, r.cfg.precision())
}

// UseShader replaces the active compositor's program; nil restores the
// default. s must consume the active compositor's vertex layout. With no
// active compositor the quad compositor is activated.
func (r *Renderer) UseShader(s *ShaderProgram) error {
	c := r.active
	if c == nil {
		var err error
		if c, err = r.activate(KindQuad); err != nil {
			return err
		}
	} else if err := r.usable(); err != nil {
		return err
	}
	target := s
	if target == nil {
		target = c.DefaultShader()
	}
	if c.Pending() > 0 && target != c.Shader() {
		r.flushes++
	}
	return c.UseShader(s)
}

// SetProjection sets the projection matrix on every compositor.
func (r *Renderer) SetProjection(m mgl32.Mat4) error {
	if err := r.usable(); err != nil {
		return err
	}
	if r.active != nil && r.projection != m && r.active.Pending() > 0 {
		r.flushes++
	}
	r.projection = m
	for _, c := range r.compositors() {
		if err := c.SetProjection(m); err != nil {
			return err
		}
	}
	return nil
}

// Projection returns the current projection matrix.
func (r *Renderer) Projection() mgl32.Mat4 { return r.projection }

// Resize sets the viewport and a y-down orthographic projection for a
// width x height framebuffer.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("batch: invalid framebuffer size %dx%d", width, height)
	}
	if err := r.Flush(); err != nil {
		return err
	}
	r.width, r.height = width, height
	r.dev.Viewport(0, 0, width, height)
	return r.SetProjection(mgl32.Ortho2D(0, float32(width), float32(height), 0))
}

// Transform returns the renderer's matrix. Mutating it affects subsequent
// submissions only.
func (r *Renderer) Transform() *Matrix2D { return &r.transform }

// SetTransform replaces the current transform. A *Matrix2D is copied; any
// other implementation is used as-is until the next SetTransform or
// Translate, Scale or Rotate, which compose onto the renderer's own matrix.
// Nil resets to the identity.
func (r *Renderer) SetTransform(t Transform) {
	switch m := t.(type) {
	case nil:
		r.transform.Reset()
		r.useOwnTransform()
	case *Matrix2D:
		r.transform = *m
		r.useOwnTransform()
	default:
		r.custom = t
		r.render.Transform = t
	}
}

func (r *Renderer) useOwnTransform() {
	r.custom = nil
	r.render.Transform = &r.transform
}

func (r *Renderer) Translate(x, y float32) {
	r.useOwnTransform()
	r.transform.Translate(x, y)
}

func (r *Renderer) Scale(x, y float32) {
	r.useOwnTransform()
	r.transform.Scale(x, y)
}

// Rotate appends a rotation in radians.
func (r *Renderer) Rotate(angle float32) {
	r.useOwnTransform()
	r.transform.Rotate(angle)
}

// SetTint sets the color multiplied into textured quads.
func (r *Renderer) SetTint(c Color) { r.render.Tint = c }

// Tint returns the current quad tint.
func (r *Renderer) Tint() Color { return r.render.Tint }

// SetColor sets the fill color of primitives.
func (r *Renderer) SetColor(c Color) { r.render.Fill = c }

// Color returns the current primitive fill color.
func (r *Renderer) Color() Color { return r.render.Fill }

// SetGlobalAlpha sets the alpha multiplied into every submission, clamped
// to [0, 1].
func (r *Renderer) SetGlobalAlpha(a float32) { r.render.Alpha = clampf(a, 0, 1) }

// GlobalAlpha returns the current global alpha.
func (r *Renderer) GlobalAlpha() float32 { return r.render.Alpha }

// SetBlendMode flushes pending vertices drawn under the old mode, then
// switches.
func (r *Renderer) SetBlendMode(mode BlendMode) error {
	if err := r.usable(); err != nil {
		return err
	}
	if mode == r.blend {
		return nil
	}
	if err := r.flush(); err != nil {
		return err
	}
	r.blend = mode
	r.state.SetBlendMode(mode)
	return nil
}

// BlendMode returns the current blend mode.
func (r *Renderer) BlendMode() BlendMode { return r.blend }

// ClipRect restricts drawing to a rectangle in framebuffer pixels, top-left
// origin.
func (r *Renderer) ClipRect(x, y, w, h int) error {
	return r.setClip(clipRect{enabled: true, x: x, y: y, w: max(w, 0), h: max(h, 0)})
}

// ResetClip removes the clip rectangle.
func (r *Renderer) ResetClip() error {
	return r.setClip(clipRect{})
}

func (r *Renderer) setClip(c clipRect) error {
	if err := r.usable(); err != nil {
		return err
	}
	if c == r.clip {
		return nil
	}
	if err := r.flush(); err != nil {
		return err
	}
	r.clip = c
	r.dev.SetScissor(c.enabled, c.x, c.y, c.w, c.h)
	return nil
}

// Save pushes transform, tint, fill color, global alpha, blend mode and
// clip onto a stack.
func (r *Renderer) Save() {
	r.stack = append(r.stack, savedState{
		transform: r.transform,
		custom:    r.custom,
		tint:      r.render.Tint,
		fill:      r.render.Fill,
		alpha:     r.render.Alpha,
		blend:     r.blend,
		clip:      r.clip,
	})
}

// Restore pops the state pushed by the matching Save. Restoring blend mode
// or clip flushes as if set directly. Restore with an empty stack is a
// no-op.
func (r *Renderer) Restore() error {
	n := len(r.stack)
	if n == 0 {
		return nil
	}
	s := r.stack[n-1]
	r.stack = r.stack[:n-1]

	r.transform = s.transform
	if s.custom != nil {
		r.custom = s.custom
		r.render.Transform = s.custom
	} else {
		r.useOwnTransform()
	}
	r.render.Tint = s.tint
	r.render.Fill = s.fill
	r.render.Alpha = s.alpha

	if r.closed || r.lost {
		r.blend = s.blend
		r.clip = s.clip
		return nil
	}
	if err := r.SetBlendMode(s.blend); err != nil {
		return err
	}
	return r.setClip(s.clip)
}

// HandleContextLost drops every program, buffer and texture without
// touching the device. Compositors are recreated on first use once the
// device reports the context is back.
func (r *Renderer) HandleContextLost() {
	if r.closed {
		return
	}
	Logger().Warn("graphics context lost, dropping device objects")
	for _, c := range r.compositors() {
		r.retire(c.Stats())
		switch c := c.(type) {
		case *QuadCompositor:
			c.abandon()
		case *PrimitiveCompositor:
			c.abandon()
		}
	}
	r.quad, r.prim, r.active = nil, nil, nil
	r.state.Lose()
	r.lost = true
}

func (r *Renderer) retire(s CompositorStats) {
	r.retired.DrawCalls += s.DrawCalls
	r.retired.Vertices += s.Vertices
	r.retired.Quads += s.Quads
	r.retired.Primitives += s.Primitives
}

// restoreDevice reapplies renderer-owned device state to a fresh context.
func (r *Renderer) restoreDevice() {
	r.dev.Viewport(0, 0, r.width, r.height)
	r.state.SetBlendMode(r.blend)
	if r.clip.enabled {
		r.dev.SetScissor(true, r.clip.x, r.clip.y, r.clip.w, r.clip.h)
	}
}

// Close destroys every device object. The renderer is unusable afterwards.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	var err error
	if !r.lost && !r.dev.ContextLost() {
		err = r.flush()
		for _, c := range r.compositors() {
			c.Destroy()
		}
	}
	r.quad, r.prim, r.active = nil, nil, nil
	r.closed = true
	Logger().Debug("renderer closed")
	return err
}
