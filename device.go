package batch

import "image"

// ProgramHandle identifies a linked shader program on the device. Zero is
// never a valid program.
type ProgramHandle uint32

// BufferHandle identifies a device buffer object.
type BufferHandle uint32

// TextureHandle identifies a device texture object.
type TextureHandle uint32

// UniformLocation is a device uniform location; -1 means the driver
// optimized the uniform away and writes to it are ignored.
type UniformLocation int32

// DrawMode is the primitive topology of a draw call.
type DrawMode uint8

const (
	Triangles DrawMode = iota
	TriangleStrip
	TriangleFan
	Lines
	LineStrip
	LineLoop
	Points
)

var drawModeNames = [...]string{"triangles", "triangle-strip", "triangle-fan", "lines", "line-strip", "line-loop", "points"}

func (m DrawMode) String() string {
	if int(m) < len(drawModeNames) {
		return drawModeNames[m]
	}
	return "unknown"
}

// coalesces reports whether consecutive submissions in this mode can share
// one draw call. Strips, loops and fans connect every vertex in the call.
func (m DrawMode) coalesces() bool {
	switch m {
	case Triangles, Lines, Points:
		return true
	}
	return false
}

// BlendMode selects the blend equation used for subsequent draws.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota // src-alpha, one-minus-src-alpha
	BlendAdditive
	BlendMultiply
	BlendScreen
)

// Device is the GPU context consumed by the batching core. The OpenGL
// backend implements it over go-gl; tests implement it with a recorder.
// All methods are called from the goroutine that owns the context.
type Device interface {
	// CompileProgram compiles both stages, binds every attribute name to its
	// location before linking, and links. Failures are *CompileError.
	CompileProgram(vertexSrc, fragmentSrc string, attribs map[string]uint32) (ProgramHandle, error)
	UniformLocation(p ProgramHandle, name string) UniformLocation
	// SetUniform writes a uniform without requiring p to be bound.
	SetUniform(p ProgramHandle, loc UniformLocation, value any) error
	UseProgram(p ProgramHandle)
	DeleteProgram(p ProgramHandle)

	CreateBuffer() BufferHandle
	// BindVertexLayout binds b and points every layout attribute at it.
	BindVertexLayout(b BufferHandle, layout *Layout)
	UploadVertices(b BufferHandle, data []byte)
	UploadIndices(b BufferHandle, indices []uint16)
	DeleteBuffer(b BufferHandle)
	DrawArrays(mode DrawMode, first, count int)
	// DrawElements draws count uint16 indices from the index buffer bound
	// with the current vertex layout.
	DrawElements(mode DrawMode, indices BufferHandle, count int)

	CreateTexture(img *image.RGBA) TextureHandle
	BindTexture(unit int, tex TextureHandle)
	DeleteTexture(tex TextureHandle)
	MaxTextureUnits() int

	Viewport(x, y, width, height int)
	Clear(c Color)
	SetBlendMode(mode BlendMode)
	// SetScissor enables clipping to the rectangle (top-left origin), or
	// disables it when enabled is false.
	SetScissor(enabled bool, x, y, width, height int)

	// ContextLost reports whether every object created so far is invalid.
	ContextLost() bool
}

// DeviceState mirrors the device's global binding state so callers can skip
// redundant state changes. One DeviceState is shared by every shader,
// compositor and texture table that talks to the same Device.
type DeviceState struct {
	device Device

	program  ProgramHandle
	textures []TextureHandle
	blend    BlendMode
	blendSet bool

	// generation counts context losses; programs created under an older
	// generation are dead.
	generation uint64

	// Counters for FrameStats.
	programSwitches int
	textureBinds    int
}

// NewDeviceState returns a state tracker with nothing bound.
func NewDeviceState(dev Device) *DeviceState {
	return &DeviceState{device: dev}
}

// Device returns the tracked device.
func (s *DeviceState) Device() Device {
	return s.device
}

// Program returns the program currently bound on the device.
func (s *DeviceState) Program() ProgramHandle {
	return s.program
}

// UseProgram binds p unless it is already bound. It reports whether the
// device was called.
func (s *DeviceState) UseProgram(p ProgramHandle) bool {
	if s.program == p {
		return false
	}
	s.device.UseProgram(p)
	s.program = p
	s.programSwitches++
	return true
}

// BoundTexture returns the texture bound to unit, or zero.
func (s *DeviceState) BoundTexture(unit int) TextureHandle {
	if unit < len(s.textures) {
		return s.textures[unit]
	}
	return 0
}

// BindTexture binds tex to unit unless it is already bound there. It
// reports whether the device was called.
func (s *DeviceState) BindTexture(unit int, tex TextureHandle) bool {
	if unit >= len(s.textures) {
		grown := make([]TextureHandle, unit+1)
		copy(grown, s.textures)
		s.textures = grown
	}
	if s.textures[unit] == tex {
		return false
	}
	s.device.BindTexture(unit, tex)
	s.textures[unit] = tex
	s.textureBinds++
	return true
}

// SetBlendMode changes the blend mode unless it is already active.
func (s *DeviceState) SetBlendMode(mode BlendMode) bool {
	if s.blendSet && s.blend == mode {
		return false
	}
	s.device.SetBlendMode(mode)
	s.blend = mode
	s.blendSet = true
	return true
}

// forgetProgram clears the binding record when p is deleted.
func (s *DeviceState) forgetProgram(p ProgramHandle) {
	if s.program == p {
		s.program = 0
	}
}

// forgetTexture clears every unit record that refers to tex.
func (s *DeviceState) forgetTexture(tex TextureHandle) {
	for i, t := range s.textures {
		if t == tex {
			s.textures[i] = 0
		}
	}
}

// Invalidate drops every binding record, e.g. when foreign code has
// touched the device.
func (s *DeviceState) Invalidate() {
	s.program = 0
	s.textures = s.textures[:0]
	s.blendSet = false
}

// Lose records that the context and every object in it is gone. Binding
// records are dropped and every ShaderProgram created before the call
// reports Destroyed.
func (s *DeviceState) Lose() {
	s.Invalidate()
	s.generation++
}
