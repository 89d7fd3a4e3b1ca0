package scene

import (
	"image"
	"image/color"
	"sync/atomic"

	"github.com/ivlev/photoshow/internal/geom"
)

// TwipsPerPixel is the scene graph's sub-pixel unit.
const TwipsPerPixel = 20

// ShapeBounds is the side of every library shape, in twips.
const ShapeBounds = 100 * TwipsPerPixel

// MaxRatio is the morph ratio of a fully morphed shape.
const MaxRatio = 65535

// NoRatio marks an instance without a morph ratio.
const NoRatio = -1

// Def is placeable content.
type Def interface {
	DefName() string
	Bounds() geom.Rect
}

// Shape is a filled outline, or a bitmap fill when Bitmap is set.
type Shape struct {
	Name    string         `yaml:"name"`
	Box     geom.Rect      `yaml:"box"`
	Outline [][]geom.Point `yaml:"outline,omitempty"`
	Fill    color.RGBA     `yaml:"-"`
	Bitmap  *Bitmap        `yaml:"-"`
}

func (s *Shape) DefName() string   { return s.Name }
func (s *Shape) Bounds() geom.Rect { return s.Box }

// Morph interpolates Start into End as its ratio goes 0..MaxRatio.
// Both shapes must have the same outline topology.
type Morph struct {
	Name  string `yaml:"name"`
	Start Shape  `yaml:"start"`
	End   Shape  `yaml:"end"`
}

func (m *Morph) DefName() string      { return m.Name }
func (m *Morph) Bounds() geom.Rect    { return m.Start.Box }
func (m *Morph) BoundsEnd() geom.Rect { return m.End.Box }

// Bitmap is a pixel resource. Image may be dropped once Path holds the
// encoded pixels.
type Bitmap struct {
	ID     int64
	Path   string
	Width  int
	Height int
	Image  *image.RGBA
}

var bitmapSeq atomic.Int64

// NewBitmap registers a bitmap under a fresh id.
func NewBitmap(img *image.RGBA, path string) *Bitmap {
	b := &Bitmap{ID: bitmapSeq.Add(1), Path: path, Image: img}
	if img != nil {
		b.Width, b.Height = img.Rect.Dx(), img.Rect.Dy()
	}
	return b
}

// BitmapShape wraps b into a shape of its pixel size, in twips, with the
// given top-left corner.
func BitmapShape(name string, b *Bitmap, x, y float64) *Shape {
	return &Shape{
		Name:   name,
		Box:    geom.Rect{X: x, Y: y, W: float64(b.Width * TwipsPerPixel), H: float64(b.Height * TwipsPerPixel)},
		Bitmap: b,
	}
}

// CenteredBitmapShape wraps b so that its center sits on the origin.
func CenteredBitmapShape(name string, b *Bitmap) *Shape {
	w := float64(b.Width * TwipsPerPixel)
	h := float64(b.Height * TwipsPerPixel)
	return BitmapShape(name, b, -w/2, -h/2)
}

// EmptyShape has no area.
func EmptyShape() *Shape {
	return &Shape{Name: "empty"}
}

// Clip is a nested timeline played from the frame it is placed at.
type Clip struct {
	Name     string
	Timeline *Timeline
}

func (c *Clip) DefName() string   { return c.Name }
func (c *Clip) Bounds() geom.Rect { return c.Timeline.Stage() }

// BitmapStore owns the pixels of per-frame rasterized bitmaps.
type BitmapStore interface {
	// Store takes ownership of img.
	Store(img *image.RGBA) (*Bitmap, error)
	// Release discards a bitmap that will never be shown.
	Release(b *Bitmap) error
}
