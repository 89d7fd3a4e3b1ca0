// Package motion turns a keyframed pan/zoom path into overlapping tween
// segments.
package motion

import (
	"math"

	"github.com/ivlev/photoshow/internal/geom"
	"github.com/ivlev/photoshow/internal/scene"
	"github.com/ivlev/photoshow/internal/tween"
)

// Keyframe is one waypoint of a motion path. Duration is the fraction of
// the effect spent travelling to the next keyframe; the last keyframe's
// duration is unused. Translation is in pixels, rotation in radians.
type Keyframe struct {
	Duration   float64
	TranslateX float64
	TranslateY float64
	Scale      float64
	Rotation   float64
	Linear     bool
	Easing     bool
}

// Step is a keyframe that survived frame resolution.
type Step struct {
	Keyframe
	Frames int
}

// Path is a resolved keyframe sequence.
type Path struct {
	Steps []Step
	// HighQuality is set when the path scales or rotates the photo, which
	// the native instance transform renders poorly.
	HighQuality bool
}

// Resolve converts fractional durations to frames over totalFrames.
// A keyframe that resolves to zero frames is dropped unless it is the
// last one.
func Resolve(kfs []Keyframe, totalFrames int) Path {
	var p Path
	for i, kf := range kfs {
		frames := int(math.Floor(kf.Duration*float64(totalFrames) + 1e-9))
		if frames <= 0 {
			frames = 0
			if i != len(kfs)-1 {
				continue
			}
		}
		p.Steps = append(p.Steps, Step{Keyframe: kf, Frames: frames})
	}

	if len(p.Steps) > 1 {
		first := p.Steps[0]
		for _, s := range p.Steps[1:] {
			if s.Scale != first.Scale || s.Rotation != first.Rotation {
				p.HighQuality = true
				break
			}
		}
	}
	return p
}

// Frames returns the number of frames the path animates over.
func (p Path) Frames() int {
	n := 0
	for i := 0; i < len(p.Steps)-1; i++ {
		n += p.Steps[i].Frames
	}
	return n
}

// Transforms builds one transform per step: base, then the translation in
// the given unit, then the scale.
func (p Path) Transforms(base geom.Affine, unit float64) []geom.Affine {
	out := make([]geom.Affine, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = base.Translate(unit*s.TranslateX, unit*s.TranslateY).Scale(s.Scale, s.Scale)
	}
	return out
}

// Segment tweens from P2 to P3. P1 and P4 are the neighbours used for
// curvature, nil at the ends of the path or around a linear keyframe.
// Duration includes the frame shared with the next segment.
type Segment struct {
	Start     int
	Duration  int
	P1        *geom.Affine
	P2        geom.Affine
	P3        geom.Affine
	P4        *geom.Affine
	Rotation2 float64
	Rotation3 float64
	Easing    bool
}

// Segments returns one segment per consecutive pair of steps.
func (p Path) Segments(base geom.Affine, unit float64) []Segment {
	n := len(p.Steps)
	if n < 2 {
		return nil
	}
	atx := p.Transforms(base, unit)
	segs := make([]Segment, 0, n-1)
	start := 0
	for i := 0; i < n-1; i++ {
		s := p.Steps[i]
		seg := Segment{
			Start:     start,
			Duration:  s.Frames + 1,
			P2:        atx[i],
			P3:        atx[i+1],
			Rotation2: s.Rotation,
			Rotation3: p.Steps[i+1].Rotation,
			Easing:    s.Easing,
		}
		if !s.Linear {
			if i > 0 {
				seg.P1 = &atx[i-1]
			}
			if i+2 < n {
				seg.P4 = &atx[i+2]
			}
		}
		segs = append(segs, seg)
		start += s.Frames
	}
	return segs
}

// BuildSegments resolves kfs over totalFrames and segments the result in
// twips around the identity.
func BuildSegments(kfs []Keyframe, totalFrames int) []Segment {
	return Resolve(kfs, totalFrames).Segments(geom.Identity(), scene.TwipsPerPixel)
}

// Run plays the path through b starting at frame. A single step is
// applied as a static transform.
func Run(b tween.Builder, frame int, p Path, base geom.Affine, unit float64) error {
	segs := p.Segments(base, unit)
	if len(segs) == 0 {
		if len(p.Steps) == 1 {
			s := p.Steps[0]
			m := p.Transforms(base, unit)[0].Compose(s.Rotation, 0, 0)
			_, err := b.CreateInitial(frame, m, nil)
			return err
		}
		return nil
	}
	for _, seg := range segs {
		_, err := tween.Run(b, tween.Params{
			Frame:    frame + seg.Start,
			Duration: seg.Duration,
			P1:       seg.P1,
			Begin:    tween.Endpoint{Transform: &seg.P2, Rotation: seg.Rotation2},
			End:      tween.Endpoint{Transform: &seg.P3, Rotation: seg.Rotation3},
			P4:       seg.P4,
			Easing:   seg.Easing,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
