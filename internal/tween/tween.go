// Package tween materializes a two-point interpolation as one scene
// instance per frame.
package tween

import (
	"math"

	"github.com/ivlev/photoshow/internal/geom"
	"github.com/ivlev/photoshow/internal/scene"
)

// Endpoint is one end of a tween. A nil Transform or Color means the
// other endpoint's value holds for the whole tween.
type Endpoint struct {
	Transform *geom.Affine
	Color     *geom.ColorTransform
	Rotation  float64
	SkewX     float64
	SkewY     float64
}

// Params describes one tween. P1 and P4 are optional outer control points
// bending the translation into a Catmull-Rom curve; both must be set for
// the curve to apply.
type Params struct {
	Frame    int
	Duration int
	P1       *geom.Affine
	Begin    Endpoint
	End      Endpoint
	P4       *geom.Affine
	Easing   bool
}

// Builder turns per-frame values into scene instances.
type Builder interface {
	// Morph reports whether instances need a morph ratio.
	Morph() bool
	// CreateInitial handles the first frame of a tween.
	CreateInitial(frame int, m geom.Affine, c *geom.ColorTransform) (*scene.Instance, error)
	// Create handles every following frame.
	Create(frame int, m geom.Affine, c *geom.ColorTransform) (*scene.Instance, error)
}

// Run emits p.Duration frames starting at p.Frame and returns the
// instance created on the first frame, which may be nil.
func Run(b Builder, p Params) (*scene.Instance, error) {
	if p.Duration <= 1 {
		inst, err := b.CreateInitial(p.Frame, endTransform(p), endColor(p))
		if err != nil {
			return nil, err
		}
		setRatio(b, inst, scene.MaxRatio)
		return inst, nil
	}

	first, err := b.CreateInitial(p.Frame, beginTransform(p), beginColor(p))
	if err != nil {
		return nil, err
	}
	setRatio(b, first, 0)

	last := p.Duration - 1
	for i := 1; i < last; i++ {
		t := float64(i) / float64(last)
		if p.Easing {
			t = Ease(t)
		}
		inst, err := b.Create(p.Frame+i, transformAt(p, t), colorAt(p, t))
		if err != nil {
			return first, err
		}
		setRatio(b, inst, i*scene.MaxRatio/last)
	}

	inst, err := b.Create(p.Frame+last, endTransform(p), endColor(p))
	if err != nil {
		return first, err
	}
	setRatio(b, inst, scene.MaxRatio)
	return first, nil
}

// Ease is the single supported ease-in-out curve.
func Ease(t float64) float64 {
	return 0.5 - 0.5*math.Cos(math.Pi*t)
}

func setRatio(b Builder, inst *scene.Instance, ratio int) {
	if inst != nil && b.Morph() {
		inst.Ratio = ratio
	}
}

func beginTransform(p Params) geom.Affine {
	m := p.Begin.Transform
	if m == nil {
		m = p.End.Transform
	}
	return orIdentity(m).Compose(p.Begin.Rotation, p.Begin.SkewX, p.Begin.SkewY)
}

func endTransform(p Params) geom.Affine {
	m := p.End.Transform
	if m == nil {
		m = p.Begin.Transform
	}
	return orIdentity(m).Compose(p.End.Rotation, p.End.SkewX, p.End.SkewY)
}

func beginColor(p Params) *geom.ColorTransform {
	if p.Begin.Color != nil {
		return p.Begin.Color
	}
	return p.End.Color
}

func endColor(p Params) *geom.ColorTransform {
	if p.End.Color != nil {
		return p.End.Color
	}
	return p.Begin.Color
}

func orIdentity(m *geom.Affine) geom.Affine {
	if m == nil {
		return geom.Identity()
	}
	return *m
}

func transformAt(p Params, t float64) geom.Affine {
	var m geom.Affine
	switch {
	case p.Begin.Transform != nil && p.End.Transform != nil:
		m = interpolate(p.P1, *p.Begin.Transform, *p.End.Transform, p.P4, t)
	case p.Begin.Transform != nil:
		m = *p.Begin.Transform
	default:
		m = orIdentity(p.End.Transform)
	}
	return m.Compose(
		geom.Lerp(p.Begin.Rotation, p.End.Rotation, t),
		geom.Lerp(p.Begin.SkewX, p.End.SkewX, t),
		geom.Lerp(p.Begin.SkewY, p.End.SkewY, t),
	)
}

// interpolate blends the linear part of a and b and moves the translation
// along a Catmull-Rom curve when both outer points are known.
func interpolate(p1 *geom.Affine, a, b geom.Affine, p4 *geom.Affine, t float64) geom.Affine {
	m := geom.Affine{
		A: geom.Lerp(a.A, b.A, t),
		B: geom.Lerp(a.B, b.B, t),
		D: geom.Lerp(a.D, b.D, t),
		E: geom.Lerp(a.E, b.E, t),
	}
	if p1 != nil && p4 != nil {
		m.C = geom.CatmullRom(p1.C, a.C, b.C, p4.C, t)
		m.F = geom.CatmullRom(p1.F, a.F, b.F, p4.F, t)
	} else {
		m.C = geom.Lerp(a.C, b.C, t)
		m.F = geom.Lerp(a.F, b.F, t)
	}
	return m
}

func colorAt(p Params, t float64) *geom.ColorTransform {
	if p.Begin.Color != nil && p.End.Color != nil {
		c := geom.LerpColor(*p.Begin.Color, *p.End.Color, t)
		return &c
	}
	return beginColor(p)
}
