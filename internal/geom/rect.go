package geom

import (
	"fmt"
	"image"
	"math"
)

// Point is a 2D point.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Centered returns a w x h rectangle centered on the origin.
func Centered(w, h float64) Rect {
	return Rect{X: -w / 2, Y: -h / 2, W: w, H: h}
}

func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Intersects reports whether r and o share a non-empty area.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.X, r.Y, r.W, r.H)
}

// Bounds returns the smallest integer rectangle covering r.
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.W)), int(math.Ceil(r.Y+r.H)),
	)
}
