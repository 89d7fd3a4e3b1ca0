package tween

import (
	"github.com/ivlev/photoshow/internal/geom"
	"github.com/ivlev/photoshow/internal/scene"
)

// Mode selects what the first frame of a tween does with the instance.
type Mode int

const (
	// Add places a new instance.
	Add Mode = iota
	// Modify moves an instance that is already on the display list.
	Modify
	// Ignore leaves the first frame untouched.
	Ignore
)

// InstanceBuilder tweens one def at a fixed depth through a sink.
type InstanceBuilder struct {
	Sink  scene.Sink
	Def   scene.Def
	Depth int
	Mode  Mode
}

func (b *InstanceBuilder) Morph() bool {
	_, ok := b.Def.(*scene.Morph)
	return ok
}

func (b *InstanceBuilder) CreateInitial(frame int, m geom.Affine, c *geom.ColorTransform) (*scene.Instance, error) {
	switch b.Mode {
	case Add:
		return b.Sink.Place(frame, b.Depth, scene.Instance{Def: b.Def, Matrix: m, Color: c}), nil
	case Modify:
		return b.Sink.Modify(frame, b.Depth, m, c), nil
	}
	return nil, nil
}

func (b *InstanceBuilder) Create(frame int, m geom.Affine, c *geom.ColorTransform) (*scene.Instance, error) {
	return b.Sink.Modify(frame, b.Depth, m, c), nil
}
