package batch

import (
	"fmt"
	"image"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// TextureID is the stable identity of a texture source.
type TextureID uint64

var nextTextureID atomic.Uint64

// NewTextureID allocates a process-unique texture identity. Safe for use
// from loader goroutines.
func NewTextureID() TextureID {
	return TextureID(nextTextureID.Add(1))
}

// Region is a normalized UV rectangle within a texture.
type Region struct {
	U0, V0 float32 // Top-left
	U1, V1 float32 // Bottom-right
}

// Texture is a texture source as handed over by asset loading.
type Texture interface {
	// ID is stable for the lifetime of the texture.
	ID() TextureID
	// Image returns the pixels to upload.
	Image() image.Image
	// Region looks up a named sub-rectangle.
	Region(key string) (Region, bool)
}

// Atlas is an image with named regions. The whole image is always
// available under the empty key.
type Atlas struct {
	id      TextureID
	img     image.Image
	regions map[string]Region
}

// NewAtlas wraps img.
func NewAtlas(img image.Image) *Atlas {
	return &Atlas{
		id:      NewTextureID(),
		img:     img,
		regions: map[string]Region{"": {0, 0, 1, 1}},
	}
}

// ID implements Texture.
func (a *Atlas) ID() TextureID { return a.id }

// Image implements Texture.
func (a *Atlas) Image() image.Image { return a.img }

// Region implements Texture.
func (a *Atlas) Region(key string) (Region, bool) {
	r, ok := a.regions[key]
	return r, ok
}

// AddRegion names a pixel rectangle of the image.
func (a *Atlas) AddRegion(key string, rect image.Rectangle) error {
	b := a.img.Bounds()
	if rect.Empty() || !rect.In(b) {
		return fmt.Errorf("batch: region %q %v outside atlas bounds %v", key, rect, b)
	}
	w, h := float32(b.Dx()), float32(b.Dy())
	a.regions[key] = Region{
		U0: float32(rect.Min.X-b.Min.X) / w,
		V0: float32(rect.Min.Y-b.Min.Y) / h,
		U1: float32(rect.Max.X-b.Min.X) / w,
		V1: float32(rect.Max.Y-b.Min.Y) / h,
	}
	return nil
}

// AddGrid names every cell of a uniform grid "prefix<index>", row-major,
// the usual sprite-sheet layout.
func (a *Atlas) AddGrid(prefix string, cellW, cellH int) error {
	b := a.img.Bounds()
	if cellW <= 0 || cellH <= 0 {
		return fmt.Errorf("batch: invalid grid cell %dx%d", cellW, cellH)
	}
	i := 0
	for y := b.Min.Y; y+cellH <= b.Max.Y; y += cellH {
		for x := b.Min.X; x+cellW <= b.Max.X; x += cellW {
			if err := a.AddRegion(fmt.Sprintf("%s%d", prefix, i), image.Rect(x, y, x+cellW, y+cellH)); err != nil {
				return err
			}
			i++
		}
	}
	return nil
}

// toRGBA converts any image to a tightly packed *image.RGBA with a zero
// origin, the format devices upload.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
	return dst
}

// RGBA returns the atlas pixels as upload-ready RGBA.
func (a *Atlas) RGBA() *image.RGBA {
	return toRGBA(a.img)
}
