package batch

import "github.com/go-gl/mathgl/mgl32"

// Transform is the view of the scene graph's current matrix that the
// compositors consume.
type Transform interface {
	// IsIdentity reports whether Apply would return its input unchanged.
	IsIdentity() bool
	// Apply transforms a point.
	Apply(p Vec2) Vec2
}

// Matrix2D is a 3x3 affine transform. Element access is row-major:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0  1  |
//
// Storage is an mgl32.Mat3, which is column-major.
type Matrix2D struct {
	m mgl32.Mat3
}

// Identity returns the identity matrix.
func Identity() Matrix2D {
	return Matrix2D{m: mgl32.Ident3()}
}

// NewMatrix2D builds a matrix from its affine components.
func NewMatrix2D(a, b, c, d, tx, ty float32) Matrix2D {
	return Matrix2D{m: mgl32.Mat3{a, b, 0, c, d, 0, tx, ty, 1}}
}

// Reset sets m to the identity.
func (m *Matrix2D) Reset() {
	m.m = mgl32.Ident3()
}

// At returns the element at row, col.
func (m *Matrix2D) At(row, col int) float32 {
	return m.m.At(row, col)
}

// Mat3 returns the underlying column-major matrix, e.g. for a uniform.
func (m *Matrix2D) Mat3() mgl32.Mat3 {
	return m.m
}

// IsIdentity reports whether m is exactly the identity.
func (m *Matrix2D) IsIdentity() bool {
	return m.m == mgl32.Ident3()
}

// Apply transforms p by m.
func (m *Matrix2D) Apply(p Vec2) Vec2 {
	v := m.m.Mul3x1(mgl32.Vec3{p.X, p.Y, 1})
	return Vec2{v[0], v[1]}
}

// Multiply post-multiplies m by other (other is applied first).
func (m *Matrix2D) Multiply(other Matrix2D) {
	m.m = m.m.Mul3(other.m)
}

// Translate appends a translation.
func (m *Matrix2D) Translate(x, y float32) {
	m.m = m.m.Mul3(mgl32.Translate2D(x, y))
}

// Scale appends a scale.
func (m *Matrix2D) Scale(x, y float32) {
	m.m = m.m.Mul3(mgl32.Scale2D(x, y))
}

// Rotate appends a rotation (radians, clockwise in y-down screen space).
func (m *Matrix2D) Rotate(angle float32) {
	m.m = m.m.Mul3(mgl32.HomogRotate2D(angle))
}

// Invert replaces m with its inverse. A singular matrix becomes all zeros,
// matching mgl32.
func (m *Matrix2D) Invert() {
	m.m = m.m.Inv()
}
