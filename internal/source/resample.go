package source

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/ivlev/photoshow/internal/geom"
)

// Transform resamples src into dst through the source-to-destination
// transform s2d. Pixels of dst outside the transformed source are left
// as they are. Integer translations are copied verbatim.
func Transform(dst *image.RGBA, src *image.RGBA, s2d geom.Affine) {
	if s2d.IsTranslation() && isInt(s2d.C) && isInt(s2d.F) {
		dp := image.Pt(int(s2d.C), int(s2d.F))
		r := src.Bounds().Add(dp).Intersect(dst.Bounds())
		if r.Empty() {
			return
		}
		draw.Draw(dst, r, src, r.Min.Sub(dp), draw.Src)
		return
	}
	draw.BiLinear.Transform(dst, s2d.Aff3(), src, src.Bounds(), draw.Src, nil)
}

// TransformedBounds returns the bounds of a w x h image under m.
func TransformedBounds(w, h int, m geom.Affine) geom.Rect {
	return m.TransformRect(geom.Rect{W: float64(w), H: float64(h)})
}

func isInt(v float64) bool {
	return v == math.Trunc(v)
}
