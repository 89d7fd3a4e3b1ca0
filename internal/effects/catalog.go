package effects

import (
	"github.com/ivlev/photoshow/internal/geom"
	"github.com/ivlev/photoshow/internal/scene"
	"github.com/ivlev/photoshow/internal/tween"
)

// stageClipShape is stretched over the stage to hide content moving off
// it.
const stageClipShape = "Square"

// Catalog materializes transitions into a sink. Masks go on the slot's
// mask depth and clip the slot's content depth.
type Catalog struct {
	sink scene.Sink
	lib  *scene.Library
	env  Env
}

func NewCatalog(sink scene.Sink, lib *scene.Library, placeholder geom.Affine) *Catalog {
	return &Catalog{
		sink: sink,
		lib:  lib,
		env:  Env{Placeholder: placeholder, Stage: sink.Stage()},
	}
}

// ApplyBegin brings content onto the stage over duration frames starting
// at frame and returns its instance. A zero duration just places it.
func (c *Catalog) ApplyBegin(name string, frame, duration int, slot scene.Slot, content scene.Def) (*scene.Instance, error) {
	r, err := LookupBegin(name)
	if err != nil {
		return nil, err
	}
	if duration == 0 {
		r = beginRecipes["None"]
	}
	return c.apply(r, true, frame, duration, slot, content)
}

// ApplyEnd takes the content at slot off the stage over duration frames
// starting at frame. The content is removed once the transition is over.
func (c *Catalog) ApplyEnd(name string, frame, duration int, slot scene.Slot) error {
	r, err := LookupEnd(name)
	if err != nil {
		return err
	}
	if duration == 0 {
		r = endRecipes["None"]
	}
	if _, err := c.apply(r, false, frame, duration, slot, nil); err != nil {
		return err
	}
	c.sink.Remove(frame+duration, slot.Content)
	return nil
}

// Check verifies that the library has everything r draws with.
func (c *Catalog) Check(r *Recipe) error {
	mask, err := c.mask(r)
	if err != nil {
		return err
	}
	if r.Plan(c.env, mask).StageClip {
		_, err = c.stageClip(r)
	}
	return err
}

func (c *Catalog) mask(r *Recipe) (scene.Def, error) {
	var (
		def scene.Def
		err error
	)
	switch {
	case r.Mask == "":
		return nil, nil
	case r.Family == FamilyMorphMask:
		def, err = c.lib.Morph(r.Mask)
	default:
		def, err = c.lib.Shape(r.Mask)
	}
	if err != nil {
		return nil, &ConfigError{Kind: "library content", Name: r.Name, Err: err}
	}
	return def, nil
}

func (c *Catalog) stageClip(r *Recipe) (*scene.Shape, error) {
	s, err := c.lib.Shape(stageClipShape)
	if err != nil {
		return nil, &ConfigError{Kind: "library content", Name: r.Name, Err: err}
	}
	return s, nil
}

func (c *Catalog) apply(r *Recipe, add bool, frame, duration int, slot scene.Slot, content scene.Def) (*scene.Instance, error) {
	mask, err := c.mask(r)
	if err != nil {
		return nil, err
	}
	plan := r.Plan(c.env, mask)

	if plan.StageClip {
		clip, err := c.stageClip(r)
		if err != nil {
			return nil, err
		}
		m := c.env.toStage(c.env.Placeholder, clip.Bounds(), false)
		c.sink.Place(frame, slot.Mask, scene.Instance{Def: clip, Matrix: m, ClipDepth: slot.Content})
		c.sink.Remove(frame+duration, slot.Mask)
	}

	if plan.Mask != nil {
		b := &tween.InstanceBuilder{Sink: c.sink, Def: mask, Depth: slot.Mask, Mode: tween.Add}
		inst, err := tween.Run(b, params(frame, duration, plan.Mask))
		if err != nil {
			return nil, err
		}
		if inst != nil {
			inst.ClipDepth = slot.Content
		}
		c.sink.Remove(frame+duration, slot.Mask)
	}

	if plan.Content == nil {
		if !add {
			return nil, nil
		}
		return c.sink.Place(frame, slot.Content, scene.Instance{Def: content, Matrix: c.env.Placeholder}), nil
	}

	mode := tween.Modify
	if add {
		mode = tween.Add
	}
	b := &tween.InstanceBuilder{Sink: c.sink, Def: content, Depth: slot.Content, Mode: mode}
	return tween.Run(b, params(frame, duration, plan.Content))
}

func params(frame, duration int, m *Motion) tween.Params {
	return tween.Params{Frame: frame, Duration: duration, Begin: m.Begin, End: m.End}
}
