package batch

import "image/color"

// Vec2 represents a 2D point or size.
type Vec2 struct {
	X, Y float32
}

// Add returns the sum of two vectors.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns the difference of two vectors.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Rect represents a rectangle with position and size.
type Rect struct {
	X, Y float32 // Top-left position
	W, H float32 // Width and height
}

// Corners returns the four corners in quad order: top-left, top-right,
// bottom-left, bottom-right.
func (r Rect) Corners() [4]Vec2 {
	return [4]Vec2{
		{r.X, r.Y},
		{r.X + r.W, r.Y},
		{r.X, r.Y + r.H},
		{r.X + r.W, r.Y + r.H},
	}
}

// Color is a straight (non-premultiplied) RGBA color with float components
// in the 0.0-1.0 range.
type Color struct {
	R, G, B, A float32
}

// Common colors.
var (
	White       = Color{1, 1, 1, 1}
	Black       = Color{0, 0, 0, 1}
	Red         = Color{1, 0, 0, 1}
	Green       = Color{0, 1, 0, 1}
	Blue        = Color{0, 0, 1, 1}
	Transparent = Color{}
)

// Pack returns the color as 0xAABBGGRR with alpha multiplied by the given
// global alpha. Byte order in memory is R, G, B, A, which is what a
// normalized UNSIGNED_BYTE x4 vertex attribute expects.
func (c Color) Pack(alpha float32) uint32 {
	return RGBAf(c.R, c.G, c.B, c.A*alpha)
}

// WithAlpha returns a copy of c with the alpha component replaced.
func (c Color) WithAlpha(a float32) Color {
	c.A = a
	return c
}

// ColorFromPacked unpacks a 0xAABBGGRR color.
func ColorFromPacked(p uint32) Color {
	r, g, b, a := UnpackRGBA(p)
	return Color{float32(r) / 255, float32(g) / 255, float32(b) / 255, float32(a) / 255}
}

// ColorFromStd converts a standard library color.
func ColorFromStd(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{float32(n.R) / 255, float32(n.G) / 255, float32(n.B) / 255, float32(n.A) / 255}
}

// RGBA creates a packed color from individual components (0-255).
func RGBA(r, g, b, a uint8) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}

// RGBAf creates a packed color from float components (0.0-1.0).
func RGBAf(r, g, b, a float32) uint32 {
	return RGBA(
		unitToByte(r),
		unitToByte(g),
		unitToByte(b),
		unitToByte(a),
	)
}

// UnpackRGBA extracts RGBA components from a packed color.
func UnpackRGBA(c uint32) (r, g, b, a uint8) {
	return uint8(c), uint8(c >> 8), uint8(c >> 16), uint8(c >> 24)
}

// unitToByte maps 0.0-1.0 to 0-255 with rounding, so 0.5 encodes as 128
// and 1.0 as 255.
func unitToByte(v float32) uint8 {
	return uint8(clampf(v, 0, 1)*255 + 0.5)
}

// clampf clamps a float32 value to a range.
func clampf(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
