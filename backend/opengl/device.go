// Package opengl implements batch.Device on OpenGL 4.1 core.
package opengl

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/go-theft-auto/batch"
)

// Device implements batch.Device using OpenGL. gl.Init must have been
// called with the target context current.
type Device struct {
	vaos       map[batch.BufferHandle]uint32 // one VAO per vertex buffer
	units      []uint32                      // texture bound per unit
	activeUnit int
	maxUnits   int
	height     int // framebuffer height, for top-left scissor rects
	lost       bool
	objects    objectSet
}

// NewDevice prepares the context for 2D batching: blending on, depth test
// and face culling off.
func NewDevice() *Device {
	var maxUnits int32
	gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &maxUnits)

	d := &Device{
		vaos:     make(map[batch.BufferHandle]uint32),
		units:    make([]uint32, maxUnits),
		maxUnits: int(maxUnits),
		objects:  newObjectSet(),
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.DEPTH_TEST)

	batch.Logger().Info("opengl device ready",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		"textureUnits", maxUnits)
	return d
}

// CompileProgram compiles and links a program, binding attribute locations
// before the link.
func (d *Device) CompileProgram(vertexSrc, fragmentSrc string, attribs map[string]uint32) (batch.ProgramHandle, error) {
	vertexShader, err := compileShader(gl.VERTEX_SHADER, vertexSrc)
	if err != nil {
		return 0, &batch.CompileError{Stage: batch.StageVertex, Log: err.Error()}
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(gl.FRAGMENT_SHADER, fragmentSrc)
	if err != nil {
		return 0, &batch.CompileError{Stage: batch.StageFragment, Log: err.Error()}
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	for name, loc := range attribs {
		gl.BindAttribLocation(program, loc, gl.Str(name+"\x00"))
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetProgramInfoLog(program, logLength, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, &batch.CompileError{Stage: batch.StageLink, Log: gl.GoStr(&log[0])}
	}

	gl.DetachShader(program, vertexShader)
	gl.DetachShader(program, fragmentShader)
	d.objects.programs[program] = struct{}{}
	return batch.ProgramHandle(program), nil
}

// compileShader returns the info log as the error on failure.
func compileShader(kind uint32, source string) (uint32, error) {
	shader := gl.CreateShader(kind)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(shader, logLength, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s", gl.GoStr(&log[0]))
	}
	return shader, nil
}

func (d *Device) UniformLocation(p batch.ProgramHandle, name string) batch.UniformLocation {
	return batch.UniformLocation(gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00")))
}

// SetUniform uses the ProgramUniform family so p need not be bound.
func (d *Device) SetUniform(p batch.ProgramHandle, loc batch.UniformLocation, value any) error {
	if loc < 0 {
		return nil
	}
	prog, l := uint32(p), int32(loc)
	switch v := value.(type) {
	case float32:
		gl.ProgramUniform1f(prog, l, v)
	case int32:
		gl.ProgramUniform1i(prog, l, v)
	case []int32:
		if len(v) > 0 {
			gl.ProgramUniform1iv(prog, l, int32(len(v)), &v[0])
		}
	case [2]float32:
		gl.ProgramUniform2f(prog, l, v[0], v[1])
	case [3]float32:
		gl.ProgramUniform3f(prog, l, v[0], v[1], v[2])
	case [4]float32:
		gl.ProgramUniform4f(prog, l, v[0], v[1], v[2], v[3])
	case mgl32.Mat3:
		gl.ProgramUniformMatrix3fv(prog, l, 1, false, &v[0])
	case mgl32.Mat4:
		gl.ProgramUniformMatrix4fv(prog, l, 1, false, &v[0])
	default:
		return fmt.Errorf("%w: %T", batch.ErrUnsupportedUniform, value)
	}
	return nil
}

func (d *Device) UseProgram(p batch.ProgramHandle) {
	gl.UseProgram(uint32(p))
}

func (d *Device) DeleteProgram(p batch.ProgramHandle) {
	gl.DeleteProgram(uint32(p))
	delete(d.objects.programs, uint32(p))
}

func (d *Device) CreateBuffer() batch.BufferHandle {
	var b uint32
	gl.GenBuffers(1, &b)
	d.objects.buffers[b] = struct{}{}
	return batch.BufferHandle(b)
}

// BindVertexLayout binds the buffer's VAO, creating it and pointing every
// attribute at the buffer on first use.
func (d *Device) BindVertexLayout(b batch.BufferHandle, layout *batch.Layout) {
	if vao, ok := d.vaos[b]; ok {
		gl.BindVertexArray(vao)
		return
	}

	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))

	stride := int32(layout.Stride())
	for i, a := range layout.Attributes() {
		gl.VertexAttribPointerWithOffset(uint32(i), int32(a.Size), glType(a.Type), a.Normalized, stride, uintptr(a.Offset))
		gl.EnableVertexAttribArray(uint32(i))
	}
	d.vaos[b] = vao
}

func glType(t batch.AttribType) uint32 {
	switch t {
	case batch.AttribUint8:
		return gl.UNSIGNED_BYTE
	case batch.AttribInt16:
		return gl.SHORT
	case batch.AttribUint16:
		return gl.UNSIGNED_SHORT
	default:
		return gl.FLOAT
	}
}

func (d *Device) UploadVertices(b batch.BufferHandle, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	gl.BufferData(gl.ARRAY_BUFFER, len(data), gl.Ptr(data), gl.STREAM_DRAW)
}

// UploadIndices goes through the copy-write target so the element binding
// of whatever VAO is current stays untouched.
func (d *Device) UploadIndices(b batch.BufferHandle, indices []uint16) {
	if len(indices) == 0 {
		return
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, uint32(b))
	gl.BufferData(gl.COPY_WRITE_BUFFER, len(indices)*2, gl.Ptr(indices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
}

func (d *Device) DeleteBuffer(b batch.BufferHandle) {
	if vao, ok := d.vaos[b]; ok {
		gl.DeleteVertexArrays(1, &vao)
		delete(d.vaos, b)
	}
	buf := uint32(b)
	gl.DeleteBuffers(1, &buf)
	delete(d.objects.buffers, buf)
}

func (d *Device) DrawArrays(mode batch.DrawMode, first, count int) {
	gl.DrawArrays(glMode(mode), int32(first), int32(count))
}

func (d *Device) DrawElements(mode batch.DrawMode, indices batch.BufferHandle, count int) {
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(indices))
	gl.DrawElements(glMode(mode), int32(count), gl.UNSIGNED_SHORT, gl.PtrOffset(0))
}

func glMode(m batch.DrawMode) uint32 {
	switch m {
	case batch.TriangleStrip:
		return gl.TRIANGLE_STRIP
	case batch.TriangleFan:
		return gl.TRIANGLE_FAN
	case batch.Lines:
		return gl.LINES
	case batch.LineStrip:
		return gl.LINE_STRIP
	case batch.LineLoop:
		return gl.LINE_LOOP
	case batch.Points:
		return gl.POINTS
	default:
		return gl.TRIANGLES
	}
}

// CreateTexture uploads img with linear filtering and edge clamping. The
// texture previously bound to the active unit is rebound afterwards.
func (d *Device) CreateTexture(img *image.RGBA) batch.TextureHandle {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	size := img.Rect.Size()
	var pixels any
	if len(img.Pix) > 0 {
		pixels = img.Pix
	}
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(size.X), int32(size.Y), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))

	gl.BindTexture(gl.TEXTURE_2D, d.unit(d.activeUnit))
	d.objects.textures[tex] = struct{}{}
	return batch.TextureHandle(tex)
}

func (d *Device) unit(u int) uint32 {
	if u < len(d.units) {
		return d.units[u]
	}
	return 0
}

func (d *Device) BindTexture(unit int, tex batch.TextureHandle) {
	if unit != d.activeUnit {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
		d.activeUnit = unit
	}
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
	if unit < len(d.units) {
		d.units[unit] = uint32(tex)
	}
}

func (d *Device) DeleteTexture(tex batch.TextureHandle) {
	t := uint32(tex)
	gl.DeleteTextures(1, &t)
	delete(d.objects.textures, t)
	for i, bound := range d.units {
		if bound == t {
			d.units[i] = 0
		}
	}
}

func (d *Device) MaxTextureUnits() int { return d.maxUnits }

func (d *Device) Viewport(x, y, width, height int) {
	d.height = y + height
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (d *Device) Clear(c batch.Color) {
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *Device) SetBlendMode(mode batch.BlendMode) {
	switch mode {
	case batch.BlendAdditive:
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	case batch.BlendMultiply:
		gl.BlendFunc(gl.DST_COLOR, gl.ONE_MINUS_SRC_ALPHA)
	case batch.BlendScreen:
		gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_COLOR)
	default:
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	}
}

// SetScissor converts the top-left rectangle to GL's bottom-left origin.
func (d *Device) SetScissor(enabled bool, x, y, width, height int) {
	if !enabled {
		gl.Disable(gl.SCISSOR_TEST)
		return
	}
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(int32(x), int32(d.height-y-height), int32(width), int32(height))
}

// ContextLost reports whether MarkContextLost was called without a
// matching Restore.
func (d *Device) ContextLost() bool { return d.lost }

// MarkContextLost records that the context and every object in it is gone,
// e.g. because the window was recreated.
func (d *Device) MarkContextLost() {
	d.lost = true
	clear(d.vaos)
	clear(d.units)
	d.objects.forget()
	d.activeUnit = 0
	batch.Logger().Warn("opengl context marked lost")
}

// SimulateContextLoss deletes every object the device created on the still
// current context, then marks it lost. Renderers drop their handles without
// deleting them, so this is the only place they are freed.
func (d *Device) SimulateContextLoss() {
	n := d.objects.len()
	d.objects.drain(
		func(p uint32) { gl.DeleteProgram(p) },
		func(b uint32) { gl.DeleteBuffers(1, &b) },
		func(t uint32) { gl.DeleteTextures(1, &t) },
	)
	for _, vao := range d.vaos {
		gl.DeleteVertexArrays(1, &vao)
	}
	gl.BindVertexArray(0)
	batch.Logger().Debug("simulated context loss", "deleted", n+len(d.vaos))
	d.MarkContextLost()
}

// Restore reinitializes fixed state on a new current context.
func (d *Device) Restore() {
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.DEPTH_TEST)
	gl.ActiveTexture(gl.TEXTURE0)
	d.lost = false
}

// Delete releases the VAOs the device created. Buffers, programs and
// textures belong to the batch objects that created them.
func (d *Device) Delete() {
	for b, vao := range d.vaos {
		gl.DeleteVertexArrays(1, &vao)
		delete(d.vaos, b)
	}
	gl.BindVertexArray(0)
}

var _ batch.Device = (*Device)(nil)
