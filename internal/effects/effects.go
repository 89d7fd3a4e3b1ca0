// Package effects holds the named effects a photo plays between its
// transitions and the catalog of begin and end transitions.
package effects

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ivlev/photoshow/internal/keyframe"
	"github.com/ivlev/photoshow/internal/motion"
)

// Params is what an effect knows about the photo it animates. Sizes are
// in pixels; Photo is the loaded bitmap size.
type Params struct {
	Keyframes  []keyframe.Keyframe
	Direction  string
	Photo      keyframe.Size
	Stage      keyframe.Size
	ImageScale float64
}

type Effect interface {
	// Keyframes returns the motion of the photo across its whole clip.
	Keyframes(p Params) ([]motion.Keyframe, error)
}

// Validator is implemented by effects whose settings can be checked
// before anything is compiled.
type Validator interface {
	Validate(p Params) error
}

// NoneEffect shows the photo fitted to the stage.
type NoneEffect struct{}

func (e *NoneEffect) Keyframes(p Params) ([]motion.Keyframe, error) {
	return keyframe.Compile([]keyframe.Keyframe{keyframe.Default()}, p.Photo, p.Stage, imageScale(p))
}

// PanZoomEffect follows authored keyframes. A photo without any is
// shown like NoneEffect.
type PanZoomEffect struct{}

func (e *PanZoomEffect) Keyframes(p Params) ([]motion.Keyframe, error) {
	kfs := p.Keyframes
	if len(kfs) == 0 {
		kfs = []keyframe.Keyframe{keyframe.Default()}
	}
	return keyframe.Compile(kfs, p.Photo, p.Stage, imageScale(p))
}

func (e *PanZoomEffect) Validate(p Params) error {
	if len(p.Keyframes) == 0 {
		return nil
	}
	return keyframe.Validate(p.Keyframes)
}

// PanoramaEffect scales the photo to cover the stage and pans it from
// one edge to the other at constant speed.
type PanoramaEffect struct{}

func (e *PanoramaEffect) Keyframes(p Params) ([]motion.Keyframe, error) {
	dir, err := direction(p.Direction)
	if err != nil {
		return nil, err
	}
	is := imageScale(p)
	pw, ph := p.Photo.W*is, p.Photo.H*is
	f := math.Max(p.Stage.W/pw, p.Stage.H/ph)
	dx := (pw*f - p.Stage.W) / 2
	dy := (ph*f - p.Stage.H) / 2

	from := motion.Keyframe{Duration: 1, Scale: f, Linear: true}
	to := motion.Keyframe{Scale: f, Linear: true}
	switch dir {
	case "left":
		from.TranslateX, to.TranslateX = dx, -dx
	case "right":
		from.TranslateX, to.TranslateX = -dx, dx
	case "up":
		from.TranslateY, to.TranslateY = dy, -dy
	case "down":
		from.TranslateY, to.TranslateY = -dy, dy
	}
	return []motion.Keyframe{from, to}, nil
}

func (e *PanoramaEffect) Validate(p Params) error {
	_, err := direction(p.Direction)
	return err
}

func direction(s string) (string, error) {
	d := strings.ToLower(s)
	switch d {
	case "":
		return "left", nil
	case "left", "right", "up", "down":
		return d, nil
	}
	return "", &ConfigError{Kind: "panorama direction", Name: s, Err: ErrUnknownEffect}
}

func imageScale(p Params) float64 {
	if p.ImageScale <= 0 {
		return 1
	}
	return p.ImageScale
}

var registry = map[string]Effect{
	"None":     &NoneEffect{},
	"PanZoom":  &PanZoomEffect{},
	"Panorama": &PanoramaEffect{},
}

// LookupEffect returns the effect called name.
func LookupEffect(name string) (Effect, error) {
	e, ok := registry[name]
	if !ok {
		return nil, &ConfigError{Kind: "effect", Name: name, Err: ErrUnknownEffect}
	}
	return e, nil
}

// EffectNames lists the registered effects.
func EffectNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe is a one-line summary of an effect's settings for logs.
func Describe(name string, p Params) string {
	switch name {
	case "PanZoom":
		return fmt.Sprintf("%s (%d keyframes)", name, len(p.Keyframes))
	case "Panorama":
		d, _ := direction(p.Direction)
		return fmt.Sprintf("%s (%s)", name, d)
	}
	return name
}
