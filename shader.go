package batch

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Precision is the default float precision declared in fragment shaders.
type Precision uint8

const (
	PrecisionLow Precision = iota
	PrecisionMedium
	PrecisionHigh
)

func (p Precision) String() string {
	switch p {
	case PrecisionLow:
		return "lowp"
	case PrecisionHigh:
		return "highp"
	default:
		return "mediump"
	}
}

// ParsePrecision accepts the GLSL qualifiers and their short names.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lowp", "low":
		return PrecisionLow, nil
	case "mediump", "medium", "":
		return PrecisionMedium, nil
	case "highp", "high":
		return PrecisionHigh, nil
	}
	return PrecisionMedium, fmt.Errorf("%w: unknown precision %q", ErrInvalidConfig, s)
}

var (
	precisionRe = regexp.MustCompile(`(?m)^\s*precision\s+(lowp|mediump|highp)\s+float\s*;`)
	versionRe   = regexp.MustCompile(`(?m)^\s*#version[^\n]*\n`)
	attributeRe = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?(?:attribute|in)\s+(?:(?:lowp|mediump|highp)\s+)?\w+\s+(\w+)\s*;`)
	uniformRe   = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*(?:\[\s*(\w+)\s*\])?\s*;`)
)

// SetPrecision declares a default float precision in src unless it already
// declares one. The declaration goes after a #version line when present.
func SetPrecision(src string, p Precision) string {
	if precisionRe.MatchString(src) {
		return src
	}
	decl := "precision " + p.String() + " float;\n"
	if loc := versionRe.FindStringIndex(src); loc != nil {
		return src[:loc[1]] + decl + src[loc[1]:]
	}
	return decl + src
}

// extractAttributes lists vertex inputs in declaration order.
func extractAttributes(vertexSrc string) []string {
	var names []string
	for _, m := range attributeRe.FindAllStringSubmatch(vertexSrc, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}

// extractUniforms maps uniform names to their GLSL type across sources.
func extractUniforms(sources ...string) map[string]string {
	uniforms := make(map[string]string)
	for _, src := range sources {
		for _, m := range uniformRe.FindAllStringSubmatch(src, -1) {
			typ := m[1]
			if m[3] != "" {
				typ += "[]"
			}
			uniforms[m[2]] = typ
		}
	}
	return uniforms
}

type uniform struct {
	typ      string
	location UniformLocation
	value    any
	set      bool
}

// ShaderProgram is a linked vertex+fragment program whose attribute
// locations are fixed by a Layout and whose uniforms were discovered from
// the sources at link time.
type ShaderProgram struct {
	state      *DeviceState
	handle     ProgramHandle
	generation uint64 // DeviceState generation the program was linked in

	vertexSrc   string
	fragmentSrc string
	attributes  map[string]uint32
	uniforms    map[string]*uniform
}

// NewShaderProgram compiles and links a program for layout. The fragment
// source gets a default precision declaration if it lacks one. Attributes
// named in layout are bound to their layout index; any other vertex input
// is bound to the next free index.
func NewShaderProgram(state *DeviceState, layout *Layout, vertexSrc, fragmentSrc string, precision Precision) (*ShaderProgram, error) {
	fragmentSrc = SetPrecision(fragmentSrc, precision)

	attribs := layout.Locations()
	next := uint32(len(attribs))
	for _, name := range extractAttributes(vertexSrc) {
		if _, ok := attribs[name]; !ok {
			attribs[name] = next
			next++
		}
	}

	handle, err := state.device.CompileProgram(vertexSrc, fragmentSrc, attribs)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader: %w", err)
	}

	s := &ShaderProgram{
		state:       state,
		handle:      handle,
		generation:  state.generation,
		vertexSrc:   vertexSrc,
		fragmentSrc: fragmentSrc,
		attributes:  attribs,
		uniforms:    make(map[string]*uniform),
	}
	for name, typ := range extractUniforms(vertexSrc, fragmentSrc) {
		s.uniforms[name] = &uniform{
			typ:      typ,
			location: state.device.UniformLocation(handle, name),
		}
	}

	if debugEnabled() {
		Logger().Debug("shader program linked", "program", handle,
			"attributes", len(attribs), "uniforms", slices.Sorted(maps.Keys(s.uniforms)))
	}
	return s, nil
}

// Handle returns the device program, or zero once destroyed.
func (s *ShaderProgram) Handle() ProgramHandle {
	if s.Destroyed() {
		return 0
	}
	return s.handle
}

// VertexSource returns the vertex stage source as compiled.
func (s *ShaderProgram) VertexSource() string { return s.vertexSrc }

// FragmentSource returns the fragment stage source as compiled, including
// any injected precision declaration.
func (s *ShaderProgram) FragmentSource() string { return s.fragmentSrc }

// Attributes returns a copy of the attribute location bindings.
func (s *ShaderProgram) Attributes() map[string]uint32 {
	return maps.Clone(s.attributes)
}

// AttributeLocation returns the bound location of an attribute.
func (s *ShaderProgram) AttributeLocation(name string) (uint32, bool) {
	loc, ok := s.attributes[name]
	return loc, ok
}

// HasUniform reports whether the sources declare the uniform.
func (s *ShaderProgram) HasUniform(name string) bool {
	_, ok := s.uniforms[name]
	return ok
}

// Uniform returns the last value set for a uniform.
func (s *ShaderProgram) Uniform(name string) (any, bool) {
	u, ok := s.uniforms[name]
	if !ok || !u.set {
		return nil, false
	}
	return u.value, true
}

// Destroyed reports whether Destroy has been called or the program was
// lost with its context.
func (s *ShaderProgram) Destroyed() bool {
	return s.handle == 0 || s.generation != s.state.generation
}

// Use makes the program current. Binding the current program again does not
// reach the device.
func (s *ShaderProgram) Use() error {
	if s.Destroyed() {
		return ErrProgramDestroyed
	}
	if s.state.UseProgram(s.handle) && debugEnabled() {
		Logger().Debug("program switch", "program", s.handle)
	}
	return nil
}

// SetUniform writes a uniform declared by the program. Values equal to the
// cached one are not re-sent.
func (s *ShaderProgram) SetUniform(name string, value any) error {
	if s.Destroyed() {
		return ErrProgramDestroyed
	}
	u, ok := s.uniforms[name]
	if !ok {
		return &UnknownUniformError{Name: name}
	}
	value, err := normalizeUniform(value)
	if err != nil {
		return fmt.Errorf("uniform %q: %w", name, err)
	}
	if u.set && uniformEqual(u.value, value) {
		return nil
	}
	if err := s.state.device.SetUniform(s.handle, u.location, value); err != nil {
		return fmt.Errorf("uniform %q: %w", name, err)
	}
	u.value = value
	u.set = true
	return nil
}

// Destroy deletes the device program. Later Use and SetUniform calls fail
// with ErrProgramDestroyed. A program lost with its context is only
// forgotten.
func (s *ShaderProgram) Destroy() {
	if s.handle == 0 {
		return
	}
	if s.generation != s.state.generation {
		s.handle = 0
		return
	}
	s.state.device.DeleteProgram(s.handle)
	s.state.forgetProgram(s.handle)
	s.handle = 0
}

// abandon forgets the program without touching the device, for context loss.
func (s *ShaderProgram) abandon() {
	s.handle = 0
}

// normalizeUniform maps accepted Go values onto the set devices handle:
// float32, int32, []int32, [2]/[3]/[4]float32, mgl32.Mat3, mgl32.Mat4.
func normalizeUniform(v any) (any, error) {
	switch x := v.(type) {
	case float32, int32, [2]float32, [3]float32, [4]float32, mgl32.Mat3, mgl32.Mat4:
		return x, nil
	case float64:
		return float32(x), nil
	case int:
		return int32(x), nil
	case bool:
		if x {
			return int32(1), nil
		}
		return int32(0), nil
	case []int32:
		return slices.Clone(x), nil
	case mgl32.Vec2:
		return [2]float32(x), nil
	case mgl32.Vec3:
		return [3]float32(x), nil
	case mgl32.Vec4:
		return [4]float32(x), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedUniform, v)
}

func uniformEqual(a, b any) bool {
	if as, ok := a.([]int32); ok {
		bs, ok := b.([]int32)
		return ok && slices.Equal(as, bs)
	}
	return a == b
}
