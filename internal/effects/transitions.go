package effects

import (
	"math"
	"sort"

	"github.com/ivlev/photoshow/internal/geom"
	"github.com/ivlev/photoshow/internal/scene"
	"github.com/ivlev/photoshow/internal/tween"
)

// Family groups recipes by how they reveal the photo.
type Family int

const (
	FamilyNone Family = iota
	FamilyFade
	FamilyGeometric
	FamilyShapeMask
	FamilyMorphMask
	FamilyWipe
)

func (f Family) String() string {
	switch f {
	case FamilyFade:
		return "fade"
	case FamilyGeometric:
		return "geometric"
	case FamilyShapeMask:
		return "shape mask"
	case FamilyMorphMask:
		return "morph mask"
	case FamilyWipe:
		return "wipe"
	}
	return "none"
}

// Env is what every recipe is parametrized by. Stage is in twips.
type Env struct {
	Placeholder geom.Affine
	Stage       geom.Rect
}

// toStage scales m so a box fills the stage.
func (e Env) toStage(m geom.Affine, box geom.Rect, keepAspect bool) geom.Affine {
	return geom.ScaleSourceToDest(m, box.W, box.H, e.Stage.W, e.Stage.H, keepAspect, false)
}

// Motion is one tween of a recipe.
type Motion struct {
	Begin tween.Endpoint
	End   tween.Endpoint
}

// Plan is a materialized recipe. A nil Content places the photo at the
// placeholder without motion.
type Plan struct {
	Content   *Motion
	Mask      *Motion
	StageClip bool
}

type planFunc func(e Env, mask scene.Def) Plan

// Recipe is one named transition.
type Recipe struct {
	Name   string
	Family Family
	// Mask is the library shape, or morph for FamilyMorphMask, the
	// recipe clips the photo with.
	Mask string
	plan planFunc
}

// Plan materializes r. mask must be the library def named by r.Mask.
func (r *Recipe) Plan(e Env, mask scene.Def) Plan {
	return r.plan(e, mask)
}

type recipeRegistry map[string]*Recipe

func newRegistry(recipes ...*Recipe) recipeRegistry {
	reg := make(recipeRegistry, len(recipes))
	for _, r := range recipes {
		reg[r.Name] = r
	}
	return reg
}

func (reg recipeRegistry) names() []string {
	names := make([]string, 0, len(reg))
	for name := range reg {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func affine(m geom.Affine) *geom.Affine                { return &m }
func color(c geom.ColorTransform) *geom.ColorTransform { return &c }

func move(from, to geom.Affine) *Motion {
	return &Motion{
		Begin: tween.Endpoint{Transform: affine(from)},
		End:   tween.Endpoint{Transform: affine(to)},
	}
}

// out turns a begin recipe into the end recipe playing it backwards.
func out(f planFunc) planFunc {
	return func(e Env, mask scene.Def) Plan {
		p := f(e, mask)
		for _, m := range []*Motion{p.Content, p.Mask} {
			if m != nil {
				m.Begin, m.End = m.End, m.Begin
			}
		}
		return p
	}
}

func none(Env, scene.Def) Plan { return Plan{} }

func fade(c geom.ColorTransform) planFunc {
	return func(e Env, _ scene.Def) Plan {
		return Plan{Content: &Motion{
			Begin: tween.Endpoint{Transform: affine(e.Placeholder), Color: color(c)},
			End:   tween.Endpoint{Color: color(geom.IdentityColor())},
		}}
	}
}

func flip(skewX, skewY float64) planFunc {
	return func(e Env, _ scene.Def) Plan {
		m := move(e.Placeholder.Scale(0, 0), e.Placeholder)
		m.Begin.SkewX, m.Begin.SkewY = skewX, skewY
		return Plan{Content: m, StageClip: true}
	}
}

func skew(skewX float64) planFunc {
	return func(e Env, _ scene.Def) Plan {
		m := move(e.Placeholder, e.Placeholder)
		m.Begin.SkewX = skewX
		return Plan{Content: m, StageClip: true}
	}
}

// slide enters from a whole stage away, in stage widths and heights.
func slide(dx, dy float64) planFunc {
	return func(e Env, _ scene.Def) Plan {
		return Plan{
			Content:   move(e.Placeholder.Translate(dx*e.Stage.W, dy*e.Stage.H), e.Placeholder),
			StageClip: true,
		}
	}
}

func spin(e Env, _ scene.Def) Plan {
	m := move(e.Placeholder.Scale(0, 0), e.Placeholder)
	m.Begin.Rotation = geom.Radians(-720)
	return Plan{Content: m, StageClip: true}
}

func stretch(sx, sy float64) planFunc {
	return func(e Env, _ scene.Def) Plan {
		return Plan{Content: move(e.Placeholder.Scale(sx, sy), e.Placeholder), StageClip: true}
	}
}

func zoom(sx, sy float64) planFunc {
	return func(e Env, _ scene.Def) Plan {
		return Plan{Content: move(e.Placeholder.Scale(sx, sy), e.Placeholder)}
	}
}

// shapeMask grows a library shape from nothing to its standard size on
// the stage.
func shapeMask(e Env, _ scene.Def) Plan {
	std := geom.Rect{W: scene.ShapeBounds, H: scene.ShapeBounds}
	return Plan{Mask: move(e.Placeholder.Scale(0, 0), e.toStage(e.Placeholder, std, true))}
}

// morphMask fits the morph to the stage; the morph itself animates.
func morphMask(rotation float64, endBounds bool) planFunc {
	return func(e Env, mask scene.Def) Plan {
		box := mask.Bounds()
		if m, ok := mask.(*scene.Morph); ok && endBounds {
			box = m.BoundsEnd()
		}
		m := e.Placeholder
		if rotation != 0 {
			m = m.Rotate(rotation)
		}
		return Plan{Mask: &Motion{Begin: tween.Endpoint{Transform: affine(e.toStage(m, box, true))}}}
	}
}

func wipeCenter(e Env, mask scene.Def) Plan {
	return Plan{Mask: move(e.Placeholder.Scale(0, 0), e.toStage(e.Placeholder, mask.Bounds(), false))}
}

// wipe slides a stage-sized mask in from a whole stage away.
func wipe(dx, dy float64) planFunc {
	return func(e Env, mask scene.Def) Plan {
		from := e.toStage(e.Placeholder.Translate(dx*e.Stage.W, dy*e.Stage.H), mask.Bounds(), false)
		return Plan{Mask: move(from, e.toStage(e.Placeholder, mask.Bounds(), false))}
	}
}

// wipeAxis opens a stage-sized mask along one axis.
func wipeAxis(sx, sy float64) planFunc {
	return func(e Env, mask scene.Def) Plan {
		full := e.toStage(e.Placeholder, mask.Bounds(), false)
		return Plan{Mask: move(full.Scale(sx, sy), full)}
	}
}

// wipeDiagonal grows a triangle from a stage corner to twice the stage so
// its hypotenuse clears the opposite corner. dx and dy are in half stages.
func wipeDiagonal(dx, dy float64) planFunc {
	return func(e Env, mask scene.Def) Plan {
		corner := e.Placeholder.Translate(dx*e.Stage.W/2, dy*e.Stage.H/2)
		box := mask.Bounds()
		to := geom.ScaleSourceToDest(corner, box.W, box.H, 2*e.Stage.W, 2*e.Stage.H, false, false)
		return Plan{Mask: move(corner.Scale(0, 0), to)}
	}
}

var (
	deg90  = math.Pi / 2
	deg180 = math.Pi
)

var beginRecipes = newRegistry(
	&Recipe{Name: "None", Family: FamilyNone, plan: none},
	&Recipe{Name: "Fade", Family: FamilyFade, plan: fade(geom.Transparent())},
	&Recipe{Name: "FadeBlack", Family: FamilyFade, plan: fade(geom.Black())},
	&Recipe{Name: "FadeWhite", Family: FamilyFade, plan: fade(geom.White())},
	&Recipe{Name: "FlipHorizontal", Family: FamilyGeometric, plan: flip(0, deg180)},
	&Recipe{Name: "FlipVertical", Family: FamilyGeometric, plan: flip(deg180, 0)},
	&Recipe{Name: "SkewLeft", Family: FamilyGeometric, plan: skew(deg90)},
	&Recipe{Name: "SkewRight", Family: FamilyGeometric, plan: skew(-deg90)},
	&Recipe{Name: "SlideDown", Family: FamilyGeometric, plan: slide(0, -1)},
	&Recipe{Name: "SlideLeft", Family: FamilyGeometric, plan: slide(1, 0)},
	&Recipe{Name: "SlideRight", Family: FamilyGeometric, plan: slide(-1, 0)},
	&Recipe{Name: "SlideUp", Family: FamilyGeometric, plan: slide(0, 1)},
	&Recipe{Name: "Spin", Family: FamilyGeometric, plan: spin},
	&Recipe{Name: "StretchHorizontal", Family: FamilyGeometric, plan: stretch(2, 0)},
	&Recipe{Name: "StretchVertical", Family: FamilyGeometric, plan: stretch(0, 2)},
	&Recipe{Name: "ZoomBoth", Family: FamilyGeometric, plan: zoom(0, 0)},
	&Recipe{Name: "ZoomHorizontal", Family: FamilyGeometric, plan: zoom(0, 1)},
	&Recipe{Name: "ZoomVertical", Family: FamilyGeometric, plan: zoom(1, 0)},
	&Recipe{Name: "Heart", Family: FamilyShapeMask, Mask: "Heart", plan: shapeMask},
	&Recipe{Name: "Iris", Family: FamilyShapeMask, Mask: "Circle", plan: shapeMask},
	&Recipe{Name: "LawBadge", Family: FamilyShapeMask, Mask: "LawBadge", plan: shapeMask},
	&Recipe{Name: "Star", Family: FamilyShapeMask, Mask: "Star", plan: shapeMask},
	&Recipe{Name: "StarBurst", Family: FamilyShapeMask, Mask: "StarBurst", plan: shapeMask},
	&Recipe{Name: "Melt", Family: FamilyMorphMask, Mask: "MeltOn", plan: morphMask(0, true)},
	&Recipe{Name: "Plus", Family: FamilyMorphMask, Mask: "PlusSquare", plan: morphMask(0, false)},
	&Recipe{Name: "VenetianHorizontal", Family: FamilyMorphMask, Mask: "VenetianOpen", plan: morphMask(deg90, true)},
	&Recipe{Name: "VenetianVertical", Family: FamilyMorphMask, Mask: "VenetianOpen", plan: morphMask(0, true)},
	&Recipe{Name: "WipeCenter", Family: FamilyWipe, Mask: "Square", plan: wipeCenter},
	&Recipe{Name: "WipeDiagonalBottomLeft", Family: FamilyWipe, Mask: "TriangleTopRight", plan: wipeDiagonal(1, -1)},
	&Recipe{Name: "WipeDiagonalBottomRight", Family: FamilyWipe, Mask: "TriangleTopLeft", plan: wipeDiagonal(-1, -1)},
	&Recipe{Name: "WipeDiagonalTopLeft", Family: FamilyWipe, Mask: "TriangleBottomRight", plan: wipeDiagonal(1, 1)},
	&Recipe{Name: "WipeDiagonalTopRight", Family: FamilyWipe, Mask: "TriangleBottomLeft", plan: wipeDiagonal(-1, 1)},
	&Recipe{Name: "WipeDown", Family: FamilyWipe, Mask: "Square", plan: wipe(0, -1)},
	&Recipe{Name: "WipeLeft", Family: FamilyWipe, Mask: "Square", plan: wipe(1, 0)},
	&Recipe{Name: "WipeRight", Family: FamilyWipe, Mask: "Square", plan: wipe(-1, 0)},
	&Recipe{Name: "WipeUp", Family: FamilyWipe, Mask: "Square", plan: wipe(0, 1)},
	&Recipe{Name: "WipeHorizontal", Family: FamilyWipe, Mask: "Square", plan: wipeAxis(0, 1)},
	&Recipe{Name: "WipeVertical", Family: FamilyWipe, Mask: "Square", plan: wipeAxis(1, 0)},
)

// End transitions name the direction the photo leaves towards, so a
// directional end plays the opposite begin backwards.
var endRecipes = newRegistry(
	&Recipe{Name: "None", Family: FamilyNone, plan: none},
	&Recipe{Name: "Fade", Family: FamilyFade, plan: out(fade(geom.Transparent()))},
	&Recipe{Name: "FadeBlack", Family: FamilyFade, plan: out(fade(geom.Black()))},
	&Recipe{Name: "FadeWhite", Family: FamilyFade, plan: out(fade(geom.White()))},
	&Recipe{Name: "FlipHorizontal", Family: FamilyGeometric, plan: out(flip(0, deg180))},
	&Recipe{Name: "FlipVertical", Family: FamilyGeometric, plan: out(flip(deg180, 0))},
	&Recipe{Name: "SkewLeft", Family: FamilyGeometric, plan: out(skew(-deg90))},
	&Recipe{Name: "SkewRight", Family: FamilyGeometric, plan: out(skew(deg90))},
	&Recipe{Name: "SlideDown", Family: FamilyGeometric, plan: out(slide(0, 1))},
	&Recipe{Name: "SlideLeft", Family: FamilyGeometric, plan: out(slide(-1, 0))},
	&Recipe{Name: "SlideRight", Family: FamilyGeometric, plan: out(slide(1, 0))},
	&Recipe{Name: "SlideUp", Family: FamilyGeometric, plan: out(slide(0, -1))},
	&Recipe{Name: "Spin", Family: FamilyGeometric, plan: out(spin)},
	&Recipe{Name: "StretchHorizontal", Family: FamilyGeometric, plan: out(stretch(2, 0))},
	&Recipe{Name: "StretchVertical", Family: FamilyGeometric, plan: out(stretch(0, 2))},
	&Recipe{Name: "ZoomBoth", Family: FamilyGeometric, plan: out(zoom(0, 0))},
	&Recipe{Name: "ZoomHorizontal", Family: FamilyGeometric, plan: out(zoom(0, 1))},
	&Recipe{Name: "ZoomVertical", Family: FamilyGeometric, plan: out(zoom(1, 0))},
	&Recipe{Name: "Heart", Family: FamilyShapeMask, Mask: "Heart", plan: out(shapeMask)},
	&Recipe{Name: "Iris", Family: FamilyShapeMask, Mask: "Circle", plan: out(shapeMask)},
	&Recipe{Name: "LawBadge", Family: FamilyShapeMask, Mask: "LawBadge", plan: out(shapeMask)},
	&Recipe{Name: "Star", Family: FamilyShapeMask, Mask: "Star", plan: out(shapeMask)},
	&Recipe{Name: "StarBurst", Family: FamilyShapeMask, Mask: "StarBurst", plan: out(shapeMask)},
	&Recipe{Name: "Melt", Family: FamilyMorphMask, Mask: "MeltOff", plan: morphMask(0, true)},
	&Recipe{Name: "Plus", Family: FamilyMorphMask, Mask: "SquarePlus", plan: morphMask(0, false)},
	&Recipe{Name: "VenetianHorizontal", Family: FamilyMorphMask, Mask: "VenetianClose", plan: morphMask(deg90, false)},
	&Recipe{Name: "VenetianVertical", Family: FamilyMorphMask, Mask: "VenetianClose", plan: morphMask(0, false)},
	&Recipe{Name: "WipeCenter", Family: FamilyWipe, Mask: "Square", plan: out(wipeCenter)},
	&Recipe{Name: "WipeDiagonalBottomLeft", Family: FamilyWipe, Mask: "TriangleBottomLeft", plan: out(wipeDiagonal(-1, 1))},
	&Recipe{Name: "WipeDiagonalBottomRight", Family: FamilyWipe, Mask: "TriangleBottomRight", plan: out(wipeDiagonal(1, 1))},
	&Recipe{Name: "WipeDiagonalTopLeft", Family: FamilyWipe, Mask: "TriangleTopLeft", plan: out(wipeDiagonal(-1, -1))},
	&Recipe{Name: "WipeDiagonalTopRight", Family: FamilyWipe, Mask: "TriangleTopRight", plan: out(wipeDiagonal(1, -1))},
	&Recipe{Name: "WipeDown", Family: FamilyWipe, Mask: "Square", plan: out(wipe(0, 1))},
	&Recipe{Name: "WipeLeft", Family: FamilyWipe, Mask: "Square", plan: out(wipe(-1, 0))},
	&Recipe{Name: "WipeRight", Family: FamilyWipe, Mask: "Square", plan: out(wipe(1, 0))},
	&Recipe{Name: "WipeUp", Family: FamilyWipe, Mask: "Square", plan: out(wipe(0, -1))},
	&Recipe{Name: "WipeHorizontal", Family: FamilyWipe, Mask: "Square", plan: out(wipeAxis(0, 1))},
	&Recipe{Name: "WipeVertical", Family: FamilyWipe, Mask: "Square", plan: out(wipeAxis(1, 0))},
)

// LookupBegin returns the begin transition called name.
func LookupBegin(name string) (*Recipe, error) {
	r, ok := beginRecipes[name]
	if !ok {
		return nil, &ConfigError{Kind: "begin transition", Name: name, Err: ErrUnknownTransition}
	}
	return r, nil
}

// LookupEnd returns the end transition called name.
func LookupEnd(name string) (*Recipe, error) {
	r, ok := endRecipes[name]
	if !ok {
		return nil, &ConfigError{Kind: "end transition", Name: name, Err: ErrUnknownTransition}
	}
	return r, nil
}

func BeginTransitions() []string { return beginRecipes.names() }
func EndTransitions() []string   { return endRecipes.names() }
