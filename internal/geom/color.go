package geom

import (
	"image/color"
	"math"
)

// ColorTransform multiplies and then offsets each channel:
// c' = c*Mul + Add, with channels in 0..255.
type ColorTransform struct {
	RMul float64 `yaml:"r_mul"`
	GMul float64 `yaml:"g_mul"`
	BMul float64 `yaml:"b_mul"`
	AMul float64 `yaml:"a_mul"`
	RAdd float64 `yaml:"r_add"`
	GAdd float64 `yaml:"g_add"`
	BAdd float64 `yaml:"b_add"`
	AAdd float64 `yaml:"a_add"`
}

func IdentityColor() ColorTransform {
	return ColorTransform{RMul: 1, GMul: 1, BMul: 1, AMul: 1}
}

// Transparent fades alpha to zero.
func Transparent() ColorTransform {
	c := IdentityColor()
	c.AMul = 0
	return c
}

// Black drives every color channel to zero and keeps alpha.
func Black() ColorTransform {
	return ColorTransform{AMul: 1}
}

// White saturates every color channel and keeps alpha.
func White() ColorTransform {
	c := IdentityColor()
	c.RAdd, c.GAdd, c.BAdd = 255, 255, 255
	return c
}

func (c ColorTransform) IsIdentity() bool {
	return c == IdentityColor()
}

// LerpColor interpolates every term of a and b.
func LerpColor(a, b ColorTransform, t float64) ColorTransform {
	return ColorTransform{
		RMul: Lerp(a.RMul, b.RMul, t),
		GMul: Lerp(a.GMul, b.GMul, t),
		BMul: Lerp(a.BMul, b.BMul, t),
		AMul: Lerp(a.AMul, b.AMul, t),
		RAdd: Lerp(a.RAdd, b.RAdd, t),
		GAdd: Lerp(a.GAdd, b.GAdd, t),
		BAdd: Lerp(a.BAdd, b.BAdd, t),
		AAdd: Lerp(a.AAdd, b.AAdd, t),
	}
}

// Apply transforms a non-premultiplied color.
func (c ColorTransform) Apply(in color.NRGBA) color.NRGBA {
	return color.NRGBA{
		R: clamp8(float64(in.R)*c.RMul + c.RAdd),
		G: clamp8(float64(in.G)*c.GMul + c.GAdd),
		B: clamp8(float64(in.B)*c.BMul + c.BAdd),
		A: clamp8(float64(in.A)*c.AMul + c.AAdd),
	}
}

func clamp8(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
