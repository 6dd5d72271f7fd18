package batch

import "fmt"

// QuadCompositor batches textured quads. Each quad is 4 vertices drawn as
// two indexed triangles; the texture unit index is baked per vertex so one
// draw call can sample from every bound unit.
type QuadCompositor struct {
	*compositor

	textures   *TextureUnitTable
	indices    BufferHandle
	indexQuads int // quads covered by the uploaded index buffer
}

// NewQuadCompositor builds the default quad program for the table's unit
// count and allocates the vertex and index buffers.
func NewQuadCompositor(state *DeviceState, render *RenderState, cfg Config) (*QuadCompositor, error) {
	textures := NewTextureUnitTable(state, cfg.MaxTextureUnits)
	shader, err := NewShaderProgram(state, QuadLayout,
		QuadVertexSource, QuadFragmentSource(textures.Capacity()), cfg.precision())
	if err != nil {
		return nil, fmt.Errorf("quad compositor: %w", err)
	}

	q := &QuadCompositor{
		compositor: newCompositor(state, render, QuadLayout, 4, cfg),
		textures:   textures,
	}
	q.shader = shader
	q.defaultShader = shader
	q.mode = Triangles
	q.draw = q.drawQuads
	q.afterFlush = textures.EndBatch
	q.prepareShader = q.setSamplers
	q.indices = state.device.CreateBuffer()
	q.ensureIndices(q.buffer.MaxVertices() / 4)

	if err := q.setSamplers(shader); err != nil {
		q.Destroy()
		return nil, fmt.Errorf("quad compositor: %w", err)
	}
	return q, nil
}

func (q *QuadCompositor) Kind() CompositorKind { return KindQuad }

// Textures returns the texture unit table.
func (q *QuadCompositor) Textures() *TextureUnitTable { return q.textures }

// setSamplers points the sampler array at units 0..n-1 when s declares it.
func (q *QuadCompositor) setSamplers(s *ShaderProgram) error {
	if !s.HasUniform(UniformSamplers) {
		return nil
	}
	return s.SetUniform(UniformSamplers, q.textures.Samplers())
}

// quadIndices returns the index list for n quads: two triangles per quad,
// top-left/top-right/bottom-left then bottom-left/top-right/bottom-right.
func quadIndices(n int) []uint16 {
	idx := make([]uint16, 0, n*6)
	for i := 0; i < n; i++ {
		v := uint16(i * 4)
		idx = append(idx, v, v+1, v+2, v+2, v+1, v+3)
	}
	return idx
}

// ensureIndices grows the static index buffer to cover n quads.
func (q *QuadCompositor) ensureIndices(n int) {
	if n <= q.indexQuads {
		return
	}
	q.state.device.UploadIndices(q.indices, quadIndices(n))
	q.indexQuads = n
}

func (q *QuadCompositor) drawQuads(count int) {
	quads := count / 4
	q.ensureIndices(quads)
	q.state.device.DrawElements(Triangles, q.indices, quads*6)
}

// AddQuad appends the region regionKey of tex stretched over the rectangle
// (x, y, w, h), transformed by the current matrix and tinted by the current
// tint times global alpha. Nothing is written when that alpha is zero.
func (q *QuadCompositor) AddQuad(tex Texture, regionKey string, x, y, w, h float32) error {
	color, visible := q.packColor(q.render.Tint)
	if !visible {
		return nil
	}
	region, ok := tex.Region(regionKey)
	if !ok {
		return &UnknownRegionError{Texture: tex.ID(), Key: regionKey}
	}
	return q.addQuad(tex, region, color, x, y, w, h)
}

// AddQuadRegion is AddQuad with explicit normalized UVs.
func (q *QuadCompositor) AddQuadRegion(tex Texture, region Region, x, y, w, h float32) error {
	color, visible := q.packColor(q.render.Tint)
	if !visible {
		return nil
	}
	return q.addQuad(tex, region, color, x, y, w, h)
}

// addQuad writes one visible quad with an already packed color.
func (q *QuadCompositor) addQuad(tex Texture, region Region, color uint32, x, y, w, h float32) error {
	if q.buffer.IsFull(4) {
		if err := q.Flush(); err != nil {
			return err
		}
	}
	// A new texture needs a unit; if every unit backs pending vertices the
	// batch must go out first.
	if !q.textures.Resident(tex) && q.textures.Exhausted() {
		if err := q.Flush(); err != nil {
			return err
		}
	}
	unit, err := q.textures.Assign(tex)
	if err != nil {
		return err
	}

	corners := Rect{X: x, Y: y, W: w, H: h}.Corners()
	if t := q.render.Transform; t != nil && !t.IsIdentity() {
		for i := range corners {
			corners[i] = t.Apply(corners[i])
		}
	}

	u := float32(unit)
	q.buffer.PushVertex(corners[0].X, corners[0].Y, color, u, region.U0, region.V0)
	q.buffer.PushVertex(corners[1].X, corners[1].Y, color, u, region.U1, region.V0)
	q.buffer.PushVertex(corners[2].X, corners[2].Y, color, u, region.U0, region.V1)
	q.buffer.PushVertex(corners[3].X, corners[3].Y, color, u, region.U1, region.V1)
	q.stats.Quads++
	return nil
}

// ReleaseTexture flushes and frees the texture's unit and device object.
func (q *QuadCompositor) ReleaseTexture(tex Texture) error {
	if q.textures.Resident(tex) {
		if err := q.Flush(); err != nil {
			return err
		}
	}
	q.textures.Release(tex)
	return nil
}

func (q *QuadCompositor) Destroy() {
	q.textures.Destroy()
	if q.indices != 0 {
		q.state.device.DeleteBuffer(q.indices)
		q.indices = 0
	}
	q.compositor.Destroy()
}

func (q *QuadCompositor) abandon() {
	q.textures.Reset()
	q.indices = 0
	q.indexQuads = 0
	q.compositor.abandon()
}
