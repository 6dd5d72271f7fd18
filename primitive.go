package batch

import "fmt"

// PrimitiveCompositor batches untextured geometry in the fill color. List
// modes (triangles, lines, points) coalesce across calls; connected modes
// are drawn as soon as they are submitted since consecutive strips cannot
// share one draw call.
type PrimitiveCompositor struct {
	*compositor
}

// NewPrimitiveCompositor builds the default primitive program and buffers.
func NewPrimitiveCompositor(state *DeviceState, render *RenderState, cfg Config) (*PrimitiveCompositor, error) {
	shader, err := NewShaderProgram(state, PrimitiveLayout,
		PrimitiveVertexSource, PrimitiveFragmentSource, cfg.precision())
	if err != nil {
		return nil, fmt.Errorf("primitive compositor: %w", err)
	}
	p := &PrimitiveCompositor{
		compositor: newCompositor(state, render, PrimitiveLayout, 1, cfg),
	}
	p.shader = shader
	p.defaultShader = shader
	p.mode = Triangles
	p.draw = func(count int) {
		state.device.DrawArrays(p.mode, 0, count)
	}
	return p, nil
}

func (p *PrimitiveCompositor) Kind() CompositorKind { return KindPrimitive }

// validVertexCount reports whether n vertices form whole primitives in mode.
func validVertexCount(mode DrawMode, n int) bool {
	switch mode {
	case Triangles:
		return n%3 == 0
	case Lines:
		return n%2 == 0
	case LineStrip, LineLoop:
		return n >= 2
	case TriangleStrip, TriangleFan:
		return n >= 3
	default:
		return n >= 1
	}
}

// DrawVertices appends points in mode using the current fill color, global
// alpha and transform. An empty slice is a no-op.
func (p *PrimitiveCompositor) DrawVertices(mode DrawMode, points []Vec2) error {
	n := len(points)
	if n == 0 {
		return nil
	}
	if !validVertexCount(mode, n) {
		return fmt.Errorf("%w: %d vertices for %s", ErrIncompletePrimitive, n, mode)
	}
	color, visible := p.packColor(p.render.Fill)
	if !visible {
		return nil
	}

	if err := p.setMode(mode); err != nil {
		return err
	}
	if p.buffer.IsFull(n) {
		if err := p.Flush(); err != nil {
			return err
		}
	}

	if t := p.render.Transform; t != nil && !t.IsIdentity() {
		for _, pt := range points {
			pt = t.Apply(pt)
			p.buffer.PushVertex(pt.X, pt.Y, color)
		}
	} else {
		for _, pt := range points {
			p.buffer.PushVertex(pt.X, pt.Y, color)
		}
	}
	p.stats.Primitives++

	if !mode.coalesces() {
		return p.Flush()
	}
	return nil
}
