package batch

import (
	"fmt"
	"strings"
)

// Uniform names shared by the built-in programs. Custom programs passed to
// UseShader should declare uProjectionMatrix; quad programs also declare
// the uSampler array.
const (
	UniformProjection = "uProjectionMatrix"
	UniformSamplers   = "uSampler"
)

// QuadVertexSource is the vertex stage of the textured-quad program.
const QuadVertexSource = `#version 410 core
in vec2 aVertex;
in vec4 aColor;
in float aTextureId;
in vec2 aRegion;

uniform mat4 uProjectionMatrix;

out vec2 vRegion;
out vec4 vColor;
flat out int vTextureId;

void main() {
    gl_Position = uProjectionMatrix * vec4(aVertex, 0.0, 1.0);
    vRegion = aRegion;
    vColor = aColor;
    vTextureId = int(aTextureId + 0.5);
}
`

// QuadFragmentSource generates the fragment stage of the textured-quad
// program for units samplers. GLSL cannot index a sampler array with a
// varying, so the unit is selected with an if/else chain.
func QuadFragmentSource(units int) string {
	if units < 1 {
		panic(fmt.Sprintf("batch: quad shader needs at least one texture unit, got %d", units))
	}
	var b strings.Builder
	b.WriteString("#version 410 core\n")
	fmt.Fprintf(&b, "uniform sampler2D uSampler[%d];\n", units)
	b.WriteString(`
in vec2 vRegion;
in vec4 vColor;
flat in int vTextureId;

out vec4 fragColor;

void main() {
    vec4 texColor;
`)
	for i := 0; i < units; i++ {
		switch {
		case units == 1:
			b.WriteString("    texColor = texture(uSampler[0], vRegion);\n")
		case i == 0:
			b.WriteString("    if (vTextureId == 0) {\n        texColor = texture(uSampler[0], vRegion);\n")
		case i == units-1:
			fmt.Fprintf(&b, "    } else {\n        texColor = texture(uSampler[%d], vRegion);\n    }\n", i)
		default:
			fmt.Fprintf(&b, "    } else if (vTextureId == %d) {\n        texColor = texture(uSampler[%d], vRegion);\n", i, i)
		}
	}
	b.WriteString("    fragColor = texColor * vColor;\n}\n")
	return b.String()
}

// PrimitiveVertexSource is the vertex stage of the flat-color program.
const PrimitiveVertexSource = `#version 410 core
in vec2 aVertex;
in vec4 aColor;

uniform mat4 uProjectionMatrix;

out vec4 vColor;

void main() {
    gl_Position = uProjectionMatrix * vec4(aVertex, 0.0, 1.0);
    vColor = aColor;
}
`

// PrimitiveFragmentSource is the fragment stage of the flat-color program.
const PrimitiveFragmentSource = `#version 410 core
in vec4 vColor;

out vec4 fragColor;

void main() {
    fragColor = vColor;
}
`
