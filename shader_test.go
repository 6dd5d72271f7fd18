package batch_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/go-theft-auto/batch"
)

func TestSetPrecision(t *testing.T) {
	tests := []struct {
		name string
		src  string
		p    batch.Precision
		want string
	}{
		{
			name: "after version",
			src:  "#version 410 core\nvoid main() {}\n",
			p:    batch.PrecisionHigh,
			want: "#version 410 core\nprecision highp float;\nvoid main() {}\n",
		},
		{
			name: "no version",
			src:  "void main() {}\n",
			p:    batch.PrecisionLow,
			want: "precision lowp float;\nvoid main() {}\n",
		},
		{
			name: "already declared",
			src:  "precision highp float;\nvoid main() {}\n",
			p:    batch.PrecisionLow,
			want: "precision highp float;\nvoid main() {}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := batch.SetPrecision(tt.src, tt.p); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePrecision(t *testing.T) {
	for in, want := range map[string]batch.Precision{
		"lowp": batch.PrecisionLow, "medium": batch.PrecisionMedium,
		"": batch.PrecisionMedium, "HIGHP": batch.PrecisionHigh,
	} {
		got, err := batch.ParsePrecision(in)
		if err != nil || got != want {
			t.Errorf("ParsePrecision(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := batch.ParsePrecision("ultra"); !errors.Is(err, batch.ErrInvalidConfig) {
		t.Errorf("ParsePrecision(ultra) error = %v", err)
	}
}

const customVertex = `#version 410 core
in vec2 aVertex;
in vec4 aColor;
in float aTextureId;
in vec2 aRegion;
in float aWobble;

uniform mat4 uProjectionMatrix;
uniform float uTime;

flat out int vTextureId;
out vec2 vRegion;
out vec4 vColor;

void main() {
    gl_Position = uProjectionMatrix * vec4(aVertex + vec2(sin(uTime) * aWobble, 0.0), 0.0, 1.0);
    vRegion = aRegion;
    vColor = aColor;
    vTextureId = int(aTextureId + 0.5);
}
`

func TestShaderProgramAttributeLocations(t *testing.T) {
	dev := newMockDevice()
	state := batch.NewDeviceState(dev)

	s, err := batch.NewShaderProgram(state, batch.QuadLayout, customVertex, batch.QuadFragmentSource(2), batch.PrecisionMedium)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]uint32{"aVertex": 0, "aColor": 1, "aTextureId": 2, "aRegion": 3, "aWobble": 4}
	bound := dev.programs[s.Handle()].attribs
	for name, loc := range want {
		if bound[name] != loc {
			t.Errorf("%s bound to %d, want %d", name, bound[name], loc)
		}
		if got, _ := s.AttributeLocation(name); got != loc {
			t.Errorf("AttributeLocation(%s) = %d, want %d", name, got, loc)
		}
	}
	if !strings.Contains(s.FragmentSource(), "precision mediump float;") {
		t.Error("fragment source lacks injected precision")
	}
}

func TestShaderProgramUniforms(t *testing.T) {
	dev := newMockDevice()
	state := batch.NewDeviceState(dev)
	s, err := batch.NewShaderProgram(state, batch.QuadLayout, customVertex, batch.QuadFragmentSource(4), batch.PrecisionMedium)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"uProjectionMatrix", "uTime", "uSampler"} {
		if !s.HasUniform(name) {
			t.Errorf("uniform %s not discovered", name)
		}
	}

	var unknown *batch.UnknownUniformError
	if err := s.SetUniform("uMissing", float32(1)); !errors.As(err, &unknown) || unknown.Name != "uMissing" {
		t.Errorf("unknown uniform error = %v", err)
	}

	if err := s.SetUniform("uTime", 0.25); err != nil {
		t.Fatal(err)
	}
	if got := dev.uniform(s.Handle(), "uTime"); got != float32(0.25) {
		t.Errorf("device uTime = %#v, want float32(0.25)", got)
	}
	sets := dev.calls["SetUniform"]
	if err := s.SetUniform("uTime", float32(0.25)); err != nil {
		t.Fatal(err)
	}
	if dev.calls["SetUniform"] != sets {
		t.Error("unchanged value was re-sent to the device")
	}

	proj := mgl32.Ortho2D(0, 800, 600, 0)
	if err := s.SetUniform("uProjectionMatrix", proj); err != nil {
		t.Fatal(err)
	}
	if v, ok := s.Uniform("uProjectionMatrix"); !ok || v != proj {
		t.Errorf("cached projection = %v", v)
	}

	if err := s.SetUniform("uTime", "soon"); !errors.Is(err, batch.ErrUnsupportedUniform) {
		t.Errorf("unsupported value error = %v", err)
	}
}

func TestShaderProgramCompileError(t *testing.T) {
	tests := []struct {
		stage batch.ShaderStage
		msg   string
	}{
		{batch.StageVertex, "vertex shader compilation failed"},
		{batch.StageFragment, "fragment shader compilation failed"},
		{batch.StageLink, "shader program linking failed"},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			dev := newMockDevice()
			dev.failStage = tt.stage
			_, err := batch.NewShaderProgram(batch.NewDeviceState(dev), batch.PrimitiveLayout,
				batch.PrimitiveVertexSource, batch.PrimitiveFragmentSource, batch.PrecisionMedium)

			var ce *batch.CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("error %v is not a *CompileError", err)
			}
			if ce.Stage != tt.stage {
				t.Errorf("stage = %s, want %s", ce.Stage, tt.stage)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q lacks %q", err, tt.msg)
			}
		})
	}
}

func TestShaderProgramUseSkipsRedundantBinds(t *testing.T) {
	dev := newMockDevice()
	state := batch.NewDeviceState(dev)
	newPrim := func() *batch.ShaderProgram {
		s, err := batch.NewShaderProgram(state, batch.PrimitiveLayout,
			batch.PrimitiveVertexSource, batch.PrimitiveFragmentSource, batch.PrecisionMedium)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	a, b := newPrim(), newPrim()

	for _, s := range []*batch.ShaderProgram{a, a, b, b, a} {
		if err := s.Use(); err != nil {
			t.Fatal(err)
		}
	}
	if got := dev.calls["UseProgram"]; got != 3 {
		t.Errorf("UseProgram calls = %d, want 3", got)
	}
	if state.Program() != a.Handle() {
		t.Errorf("bound program = %d, want %d", state.Program(), a.Handle())
	}
}

func TestShaderProgramDestroy(t *testing.T) {
	dev := newMockDevice()
	state := batch.NewDeviceState(dev)
	s, err := batch.NewShaderProgram(state, batch.PrimitiveLayout,
		batch.PrimitiveVertexSource, batch.PrimitiveFragmentSource, batch.PrecisionMedium)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Use(); err != nil {
		t.Fatal(err)
	}

	s.Destroy()
	s.Destroy()

	if dev.calls["DeleteProgram"] != 1 {
		t.Errorf("DeleteProgram calls = %d, want 1", dev.calls["DeleteProgram"])
	}
	if !s.Destroyed() || state.Program() != 0 {
		t.Error("destroyed program still tracked as bound")
	}
	if err := s.Use(); !errors.Is(err, batch.ErrProgramDestroyed) {
		t.Errorf("Use after Destroy = %v", err)
	}
	if err := s.SetUniform(batch.UniformProjection, mgl32.Ident4()); !errors.Is(err, batch.ErrProgramDestroyed) {
		t.Errorf("SetUniform after Destroy = %v", err)
	}
}

func TestQuadFragmentSourceChain(t *testing.T) {
	src := batch.QuadFragmentSource(3)
	for _, want := range []string{
		"uniform sampler2D uSampler[3];",
		"if (vTextureId == 0)",
		"else if (vTextureId == 1)",
		"texture(uSampler[2], vRegion)",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("generated source lacks %q:\n%s", want, src)
		}
	}
	if strings.Count(src, "{") != strings.Count(src, "}") {
		t.Errorf("unbalanced braces:\n%s", src)
	}

	single := batch.QuadFragmentSource(1)
	if strings.Contains(single, "if (") {
		t.Errorf("single unit source should not branch:\n%s", single)
	}
}
