// Package show is the YAML show document: the ordered photos with their
// transitions and effects.
package show

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ivlev/photoshow/internal/keyframe"
)

var ErrInvalidShow = errors.New("invalid show")

// Show is a complete slideshow description
type Show struct {
	Version string `yaml:"version"`
	// Stage, FPS, HighQuality and EventHandler override the command line
	// when set.
	Stage        Stage   `yaml:"stage,omitempty"`
	FPS          float64 `yaml:"fps,omitempty"`
	HighQuality  *bool   `yaml:"high_quality,omitempty"`
	EventHandler string  `yaml:"event_handler,omitempty"`
	Photos       []Photo `yaml:"photos"`
}

// Stage is the output size in pixels
type Stage struct {
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`
}

// Photo is one photo with everything that happens to it. Durations are
// in seconds.
type Photo struct {
	Image string `yaml:"image"`
	// Crop is "x,y,w,h" in source pixels.
	Crop  string `yaml:"crop,omitempty"`
	Scale string `yaml:"scale,omitempty"`
	// Flash marks vector content (PDF, SVG, XPS).
	Flash bool `yaml:"flash,omitempty"`

	BeginTransition string  `yaml:"begin_transition,omitempty"`
	BeginDuration   float64 `yaml:"begin_duration,omitempty"`
	Effect          string  `yaml:"effect,omitempty"`
	EffectDuration  float64 `yaml:"effect_duration,omitempty"`
	EndTransition   string  `yaml:"end_transition,omitempty"`
	EndDuration     float64 `yaml:"end_duration,omitempty"`
	// EndLayer is "bottom" (the next photo enters above this one) or
	// "top".
	EndLayer string `yaml:"end_layer,omitempty"`
	EventArg string `yaml:"event_arg,omitempty"`

	// Direction of a Panorama effect.
	Direction string              `yaml:"direction,omitempty"`
	Keyframes []keyframe.Keyframe `yaml:"keyframes,omitempty"`
}

const none = "None"

func orNone(name string) string {
	if name == "" {
		return none
	}
	return name
}

func (p Photo) Begin() string      { return orNone(p.BeginTransition) }
func (p Photo) EffectName() string { return orNone(p.Effect) }
func (p Photo) End() string        { return orNone(p.EndTransition) }

// NextAbove reports whether the following photo is layered above this
// one.
func (p Photo) NextAbove() bool {
	return !strings.EqualFold(p.EndLayer, "top")
}

// Validate checks what can be checked without the effect catalog.
func (s *Show) Validate() error {
	if len(s.Photos) == 0 {
		return fmt.Errorf("%w: no photos", ErrInvalidShow)
	}
	if s.Stage.Width < 0 || s.Stage.Height < 0 || s.FPS < 0 {
		return fmt.Errorf("%w: negative stage size or frame rate", ErrInvalidShow)
	}
	for i, p := range s.Photos {
		if p.Image == "" {
			return fmt.Errorf("%w: photo %d has no image", ErrInvalidShow, i+1)
		}
		if p.BeginDuration < 0 || p.EffectDuration < 0 || p.EndDuration < 0 {
			return fmt.Errorf("%w: photo %d has a negative duration", ErrInvalidShow, i+1)
		}
		switch strings.ToLower(p.EndLayer) {
		case "", "top", "bottom":
		default:
			return fmt.Errorf("%w: photo %d has end layer %q", ErrInvalidShow, i+1, p.EndLayer)
		}
	}
	return nil
}

// Duration returns the nominal running time in seconds, counting each
// photo's transitions and effect back to back.
func (s *Show) Duration() float64 {
	var d float64
	for _, p := range s.Photos {
		d += p.BeginDuration + p.EffectDuration + p.EndDuration
	}
	return d
}
