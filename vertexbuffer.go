package batch

import (
	"encoding/binary"
	"fmt"
	"math"
)

// VertexBuffer is a growable arena of interleaved vertices. Positions and
// other float fields are stored as little-endian float32, packed colors as
// four raw bytes, all in the same []byte. Typed access goes through
// bounds-checked accessors; ByteView hands the same bytes to the device
// without copying.
type VertexBuffer struct {
	data []byte

	vertexByteSize int
	quadStride     int
	capacity       int // vertices
	count          int // vertices written
	maxVertices    int // single-draw-call limit checked by IsFull
}

// NewVertexBuffer allocates room for capacity vertices of vertexByteSize
// bytes each. quadStride is the vertex count of one primitive unit (4 for
// quads); it is the default for IsFull checks made by callers.
func NewVertexBuffer(vertexByteSize, quadStride, capacity int) *VertexBuffer {
	if vertexByteSize <= 0 || vertexByteSize%4 != 0 {
		panic(fmt.Sprintf("batch: vertex size %d is not a positive multiple of 4", vertexByteSize))
	}
	if quadStride < 1 {
		quadStride = 1
	}
	if capacity < quadStride {
		capacity = quadStride
	}
	return &VertexBuffer{
		data:           make([]byte, capacity*vertexByteSize),
		vertexByteSize: vertexByteSize,
		quadStride:     quadStride,
		capacity:       capacity,
		maxVertices:    math.MaxInt32,
	}
}

// SetMaxVertices sets the per-draw-call vertex limit used by IsFull. It does
// not bound growth: a single primitive larger than the limit still fits.
func (vb *VertexBuffer) SetMaxVertices(n int) {
	if n < vb.quadStride {
		n = vb.quadStride
	}
	vb.maxVertices = n
}

// MaxVertices returns the per-draw-call vertex limit.
func (vb *VertexBuffer) MaxVertices() int { return vb.maxVertices }

// Count returns the number of vertices written since the last Clear.
func (vb *VertexBuffer) Count() int { return vb.count }

// Capacity returns the number of vertices the arena holds before growing.
func (vb *VertexBuffer) Capacity() int { return vb.capacity }

// VertexByteSize returns the byte size of one vertex.
func (vb *VertexBuffer) VertexByteSize() int { return vb.vertexByteSize }

// VertexSize returns the number of 32-bit words per vertex.
func (vb *VertexBuffer) VertexSize() int { return vb.vertexByteSize / 4 }

// QuadStride returns the vertex count of one primitive unit.
func (vb *VertexBuffer) QuadStride() int { return vb.quadStride }

// IsFull reports whether writing additional more vertices would exceed the
// per-draw-call limit. Callers check before producing a primitive so a
// primitive is never split across two draw calls.
func (vb *VertexBuffer) IsFull(additional int) bool {
	return vb.count+additional > vb.maxVertices
}

// Clear forgets every written vertex. Capacity and bytes are kept; the next
// push overwrites them.
func (vb *VertexBuffer) Clear() {
	vb.count = 0
}

// grow doubles capacity until n more vertices fit, preserving contents.
func (vb *VertexBuffer) grow(n int) {
	need := vb.count + n
	if need <= vb.capacity {
		return
	}
	newCap := vb.capacity * 2
	for newCap < need {
		newCap *= 2
	}
	data := make([]byte, newCap*vb.vertexByteSize)
	copy(data, vb.data[:vb.count*vb.vertexByteSize])
	if debugEnabled() {
		Logger().Debug("vertex buffer grown", "from", vb.capacity, "to", newCap, "vertexBytes", vb.vertexByteSize)
	}
	vb.data = data
	vb.capacity = newCap
}

// Push appends one vertex made only of float32 fields. len(values) must be
// VertexSize().
func (vb *VertexBuffer) Push(values ...float32) {
	if len(values) != vb.VertexSize() {
		panic(fmt.Sprintf("batch: Push got %d values, vertex holds %d", len(values), vb.VertexSize()))
	}
	vb.grow(1)
	off := vb.count * vb.vertexByteSize
	for _, v := range values {
		binary.LittleEndian.PutUint32(vb.data[off:], math.Float32bits(v))
		off += 4
	}
	vb.count++
}

// PushVertex appends one vertex laid out as position (2 x float32), packed
// RGBA color (4 bytes) and then extra float32 fields, which is how both
// built-in layouts begin. 3+len(extra) must be VertexSize().
func (vb *VertexBuffer) PushVertex(x, y float32, color uint32, extra ...float32) {
	if 3+len(extra) != vb.VertexSize() {
		panic(fmt.Sprintf("batch: PushVertex got %d words, vertex holds %d", 3+len(extra), vb.VertexSize()))
	}
	vb.grow(1)
	b := vb.data[vb.count*vb.vertexByteSize : (vb.count+1)*vb.vertexByteSize]
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(x))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(y))
	binary.LittleEndian.PutUint32(b[8:], color)
	off := 12
	for _, v := range extra {
		binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
		off += 4
	}
	vb.count++
}

// vertexBytes returns the bytes of written vertex i.
func (vb *VertexBuffer) vertexBytes(i int) []byte {
	if i < 0 || i >= vb.count {
		panic(fmt.Sprintf("batch: vertex %d out of range [0,%d)", i, vb.count))
	}
	return vb.data[i*vb.vertexByteSize : (i+1)*vb.vertexByteSize]
}

// Float32At reads the float32 at byteOffset within written vertex i.
func (vb *VertexBuffer) Float32At(i, byteOffset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(vb.vertexBytes(i)[byteOffset:]))
}

// Uint32At reads the 4 bytes at byteOffset within written vertex i as a
// little-endian uint32 (a packed color reads back as 0xAABBGGRR).
func (vb *VertexBuffer) Uint32At(i, byteOffset int) uint32 {
	return binary.LittleEndian.Uint32(vb.vertexBytes(i)[byteOffset:])
}

// ByteView returns the bytes of vertices [start, end) without copying. The
// slice aliases the arena and is invalidated by the next push that grows it.
func (vb *VertexBuffer) ByteView(start, end int) []byte {
	if start < 0 || end > vb.count || start > end {
		panic(fmt.Sprintf("batch: byte view [%d,%d) out of range [0,%d)", start, end, vb.count))
	}
	return vb.data[start*vb.vertexByteSize : end*vb.vertexByteSize]
}

// Float32View decodes vertices [start, end) as float32 words. Packed color
// words decode as whatever float their bits spell; use Uint32At for those.
func (vb *VertexBuffer) Float32View(start, end int) []float32 {
	b := vb.ByteView(start, end)
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
