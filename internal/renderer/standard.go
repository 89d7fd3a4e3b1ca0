// Package renderer holds the two per-frame instance builders a motion
// path can be played through.
package renderer

import (
	"github.com/ivlev/photoshow/internal/geom"
	"github.com/ivlev/photoshow/internal/scene"
)

// claimState tracks the one-shot claim of the pre-placed content
// instance. Later segment starts repeat the previous segment's last frame
// and are dropped.
type claimState int

const (
	awaitingClaim claimState = iota
	claimed
)

// Standard moves the content instance with the scene graph's own
// transform. No pixels are produced.
type Standard struct {
	sink    scene.Sink
	depth   int
	initial *scene.Instance
	state   claimState
}

func NewStandard(sink scene.Sink, depth int, initial *scene.Instance) *Standard {
	return &Standard{sink: sink, depth: depth, initial: initial}
}

func (s *Standard) Morph() bool { return false }

func (s *Standard) CreateInitial(frame int, m geom.Affine, c *geom.ColorTransform) (*scene.Instance, error) {
	if s.state == claimed {
		return nil, nil
	}
	s.state = claimed
	s.initial.Matrix = m
	if c != nil {
		s.initial.Color = c
	}
	return s.initial, nil
}

func (s *Standard) Create(frame int, m geom.Affine, c *geom.ColorTransform) (*scene.Instance, error) {
	return s.sink.Modify(frame, s.depth, m, c), nil
}
