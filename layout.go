package batch

import "fmt"

// AttribType is the component type of a vertex attribute.
type AttribType uint8

const (
	AttribFloat32 AttribType = iota
	AttribUint8
	AttribInt16
	AttribUint16
)

// Size returns the byte size of one component.
func (t AttribType) Size() int {
	switch t {
	case AttribUint8:
		return 1
	case AttribInt16, AttribUint16:
		return 2
	default:
		return 4
	}
}

// Attribute describes one interleaved vertex attribute. Its location on
// every program built for the layout is its index in the layout.
type Attribute struct {
	Name       string
	Size       int // Component count
	Type       AttribType
	Normalized bool
	Offset     int // Byte offset within a vertex
}

// Layout is the fixed, ordered attribute layout of a vertex buffer.
type Layout struct {
	attributes []Attribute
	stride     int
}

// NewLayout computes offsets and stride for the given attributes, in order.
// Offset fields of the arguments are ignored. Every attribute must end on
// a 4-byte boundary so float fields stay aligned.
func NewLayout(attrs ...Attribute) (*Layout, error) {
	l := &Layout{attributes: make([]Attribute, 0, len(attrs))}
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		if a.Name == "" || a.Size < 1 || a.Size > 4 {
			return nil, fmt.Errorf("batch: invalid attribute %q (size %d)", a.Name, a.Size)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("batch: duplicate attribute %q", a.Name)
		}
		seen[a.Name] = true
		a.Offset = l.stride
		l.stride += a.Size * a.Type.Size()
		if l.stride%4 != 0 {
			return nil, fmt.Errorf("batch: attribute %q leaves stride %d unaligned", a.Name, l.stride)
		}
		l.attributes = append(l.attributes, a)
	}
	return l, nil
}

// mustLayout is NewLayout for the package's built-in layouts.
func mustLayout(attrs ...Attribute) *Layout {
	l, err := NewLayout(attrs...)
	if err != nil {
		panic(err)
	}
	return l
}

// Stride returns the byte size of one vertex.
func (l *Layout) Stride() int { return l.stride }

// Attributes returns the attributes in location order.
func (l *Layout) Attributes() []Attribute { return l.attributes }

// Locations maps attribute names to their fixed locations.
func (l *Layout) Locations() map[string]uint32 {
	locs := make(map[string]uint32, len(l.attributes))
	for i, a := range l.attributes {
		locs[a.Name] = uint32(i)
	}
	return locs
}

// Attribute looks up an attribute by name.
func (l *Layout) Attribute(name string) (Attribute, bool) {
	for _, a := range l.attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Built-in layouts. Position and packed color lead every layout so
// VertexBuffer.PushVertex can write both.
var (
	// QuadLayout: position, tint, texture unit, UV.
	QuadLayout = mustLayout(
		Attribute{Name: "aVertex", Size: 2, Type: AttribFloat32},
		Attribute{Name: "aColor", Size: 4, Type: AttribUint8, Normalized: true},
		Attribute{Name: "aTextureId", Size: 1, Type: AttribFloat32},
		Attribute{Name: "aRegion", Size: 2, Type: AttribFloat32},
	)
	// PrimitiveLayout: position, fill color.
	PrimitiveLayout = mustLayout(
		Attribute{Name: "aVertex", Size: 2, Type: AttribFloat32},
		Attribute{Name: "aColor", Size: 4, Type: AttribUint8, Normalized: true},
	)
)
