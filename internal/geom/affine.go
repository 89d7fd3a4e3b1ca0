package geom

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Affine is a 2D affine transform stored as a 2x3 row-major matrix:
//
//	| a  b  c |
//	| d  e  f |
//
// x' = a*x + b*y + c
// y' = d*x + e*y + f
//
// The builder methods (Translate, Scale, Rotate, Skew, Concat) post-concatenate:
// m.Translate(tx, ty) returns m * T, so the translation is applied to points
// before m is.
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// Translation returns a pure translation.
func Translation(tx, ty float64) Affine {
	return Affine{A: 1, C: tx, E: 1, F: ty}
}

// Scaling returns a pure scale.
func Scaling(sx, sy float64) Affine {
	return Affine{A: sx, E: sy}
}

// Rotation returns a rotation by theta radians.
func Rotation(theta float64) Affine {
	sin, cos := math.Sincos(theta)
	return Affine{A: cos, B: -sin, D: sin, E: cos}
}

// Skewing returns the skew used by the scene graph: the x axis is rotated
// by skewY and the y axis by skewX.
func Skewing(skewX, skewY float64) Affine {
	return Affine{
		A: math.Cos(skewY), B: -math.Sin(skewX),
		D: math.Sin(skewY), E: math.Cos(skewX),
	}
}

// Concat returns m * n.
func (m Affine) Concat(n Affine) Affine {
	return Affine{
		A: m.A*n.A + m.B*n.D,
		B: m.A*n.B + m.B*n.E,
		C: m.A*n.C + m.B*n.F + m.C,
		D: m.D*n.A + m.E*n.D,
		E: m.D*n.B + m.E*n.E,
		F: m.D*n.C + m.E*n.F + m.F,
	}
}

// PreConcat returns n * m.
func (m Affine) PreConcat(n Affine) Affine {
	return n.Concat(m)
}

func (m Affine) Translate(tx, ty float64) Affine {
	return m.Concat(Translation(tx, ty))
}

func (m Affine) Scale(sx, sy float64) Affine {
	return m.Concat(Scaling(sx, sy))
}

func (m Affine) Rotate(theta float64) Affine {
	return m.Concat(Rotation(theta))
}

func (m Affine) Skew(skewX, skewY float64) Affine {
	return m.Concat(Skewing(skewX, skewY))
}

// Compose applies skew and then rotation on top of m. Zero angles leave m
// untouched so that pure scale/translate transforms stay bit-exact.
func (m Affine) Compose(rotation, skewX, skewY float64) Affine {
	if skewX != 0 || skewY != 0 {
		m = m.Skew(skewX, skewY)
	}
	if rotation != 0 {
		m = m.Rotate(rotation)
	}
	return m
}

// Apply transforms a point.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.B*y + m.C, m.D*x + m.E*y + m.F
}

// Determinant of the linear part.
func (m Affine) Determinant() float64 {
	return m.A*m.E - m.B*m.D
}

// Invert returns the inverse transform. ok is false when the transform
// collapses the plane (scale to zero and the like).
func (m Affine) Invert() (inv Affine, ok bool) {
	det := m.Determinant()
	if math.Abs(det) < 1e-10 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Identity(), false
	}
	inv = Affine{
		A: m.E / det,
		B: -m.B / det,
		D: -m.D / det,
		E: m.A / det,
	}
	inv.C = -(inv.A*m.C + inv.B*m.F)
	inv.F = -(inv.D*m.C + inv.E*m.F)
	return inv, true
}

func (m Affine) IsIdentity() bool {
	return m == Identity()
}

// IsTranslation reports whether m only translates.
func (m Affine) IsTranslation() bool {
	return m.A == 1 && m.B == 0 && m.D == 0 && m.E == 1
}

// TransformRect returns the axis-aligned bounds of r under m.
func (m Affine) TransformRect(r Rect) Rect {
	xs := [4]float64{}
	ys := [4]float64{}
	xs[0], ys[0] = m.Apply(r.X, r.Y)
	xs[1], ys[1] = m.Apply(r.X+r.W, r.Y)
	xs[2], ys[2] = m.Apply(r.X, r.Y+r.H)
	xs[3], ys[3] = m.Apply(r.X+r.W, r.Y+r.H)

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < 4; i++ {
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Aff3 converts m to the layout used by golang.org/x/image/draw.
func (m Affine) Aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
}

// ScaleSourceToDest post-concatenates onto m the scale that fits a sw x sh
// source into a dw x dh destination. With keepAspect both axes use the
// larger ratio, so the destination is covered. expandRadius first grows the
// destination to the square circumscribing its diagonal, which keeps a
// rotated source covering the corners.
func ScaleSourceToDest(m Affine, sw, sh, dw, dh float64, keepAspect, expandRadius bool) Affine {
	if expandRadius {
		r := 2 * math.Sqrt((dw/2)*(dw/2)+(dh/2)*(dh/2))
		dw, dh = r, r
	}
	var sx, sy float64
	if keepAspect {
		sx = math.Max(dw, dh) / math.Max(sw, sh)
		sy = sx
	} else {
		sx = dw / sw
		sy = dh / sh
	}
	return m.Scale(sx, sy)
}

// Lerp returns a + (b-a)*t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// CatmullRom evaluates the uniform Catmull-Rom spline through p2 and p3 at t.
func CatmullRom(p1, p2, p3, p4, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((-p1+3*p2-3*p3+p4)*t3 +
		(2*p1-5*p2+4*p3-p4)*t2 +
		(-p1+p3)*t +
		2*p2)
}

// Radians converts degrees.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}
