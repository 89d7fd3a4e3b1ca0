// Package keyframe is the authored pan/zoom keyframe model. Positions are
// normalized to the stage so a show survives a change of output size.
package keyframe

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/photoshow/internal/geom"
	"github.com/ivlev/photoshow/internal/motion"
)

// Unscaled keeps the photo at its native size.
const Unscaled = -1.0

var ErrInvalidKeyframes = errors.New("invalid keyframes")

// Keyframe is one authored waypoint.
type Keyframe struct {
	// Start is the position on the effect's timeline, 0..1.
	Start  float64 `yaml:"start"`
	Linear bool    `yaml:"linear,omitempty"`
	Easing bool    `yaml:"easing,omitempty"`
	// TranslateX and TranslateY move the photo center, in half-stage
	// units: 1 puts it on the right (bottom) edge.
	TranslateX float64 `yaml:"x"`
	TranslateY float64 `yaml:"y"`
	// Scale is the fraction of the stage the photo is fitted into, or
	// Unscaled.
	Scale float64 `yaml:"scale"`
	// Rotation in degrees, clockwise.
	Rotation float64 `yaml:"rotation,omitempty"`
}

// Default is the single keyframe of a fresh pan/zoom: centered and fitted.
func Default() Keyframe {
	return Keyframe{Scale: 1}
}

// Size is a width and height in pixels.
type Size struct {
	W, H float64
}

// Validate checks that start times begin at 0 and never decrease within
// 0..1.
func Validate(kfs []Keyframe) error {
	if len(kfs) == 0 {
		return fmt.Errorf("%w: no keyframes", ErrInvalidKeyframes)
	}
	if kfs[0].Start != 0 {
		return fmt.Errorf("%w: first keyframe starts at %g", ErrInvalidKeyframes, kfs[0].Start)
	}
	prev := 0.0
	for i, kf := range kfs {
		if kf.Start < prev || kf.Start > 1 {
			return fmt.Errorf("%w: keyframe %d starts at %g", ErrInvalidKeyframes, i, kf.Start)
		}
		if kf.Scale <= 0 && kf.Scale != Unscaled {
			return fmt.Errorf("%w: keyframe %d has scale %g", ErrInvalidKeyframes, i, kf.Scale)
		}
		prev = kf.Start
	}
	return nil
}

// ScaleFactor returns the factor that fits a sw x sh source into dw x dh.
func ScaleFactor(sw, sh, dw, dh float64) float64 {
	return math.Min(dw/sw, dh/sh)
}

// Compile converts authored keyframes for a photo of the given size,
// already multiplied by imageScale, into motion keyframes in pixels.
// Keyframes with no time before the next one are skipped, except the
// last.
func Compile(kfs []Keyframe, photo, stage Size, imageScale float64) ([]motion.Keyframe, error) {
	if err := Validate(kfs); err != nil {
		return nil, err
	}
	out := make([]motion.Keyframe, 0, len(kfs))
	for i, kf := range kfs {
		var duration float64
		if i+1 < len(kfs) {
			duration = kfs[i+1].Start - kf.Start
			if duration == 0 {
				continue
			}
		} else {
			duration = 1 - kf.Start
		}

		x, y := kf.Pixels(stage)
		out = append(out, motion.Keyframe{
			Duration:   duration,
			TranslateX: x,
			TranslateY: y,
			Scale:      kf.Factor(photo, stage, imageScale),
			Rotation:   geom.Radians(kf.Rotation),
			Linear:     kf.Linear,
			Easing:     kf.Easing,
		})
	}
	return out, nil
}

// Pixels returns the translation in stage pixels.
func (k Keyframe) Pixels(stage Size) (float64, float64) {
	return k.TranslateX * stage.W / 2, k.TranslateY * stage.H / 2
}

// SetPixels sets the translation from stage pixels.
func (k *Keyframe) SetPixels(x, y float64, stage Size) {
	k.TranslateX = x / (stage.W / 2)
	k.TranslateY = y / (stage.H / 2)
}

// Factor returns the scale applied to the photo at this keyframe.
func (k Keyframe) Factor(photo, stage Size, imageScale float64) float64 {
	if k.Scale == Unscaled {
		return 1
	}
	return ScaleFactor(photo.W*imageScale, photo.H*imageScale, stage.W*k.Scale, stage.H*k.Scale)
}

// SetFactor sets Scale so that Factor returns factor.
func (k *Keyframe) SetFactor(factor float64, photo, stage Size, imageScale float64) {
	k.Scale = math.Max(photo.W*imageScale*factor/stage.W, photo.H*imageScale*factor/stage.H)
}
