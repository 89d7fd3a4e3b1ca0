package scene

import (
	"errors"
	"fmt"
	"math"
	"os"

	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/photoshow/internal/geom"
)

// ErrMissingContent is returned when a named shape is not in the library.
var ErrMissingContent = errors.New("missing library content")

// Library holds the named mask shapes and morphs transitions draw with.
type Library struct {
	shapes map[string]*Shape
	morphs map[string]*Morph
}

type libraryFile struct {
	Shapes []Shape `yaml:"shapes"`
	Morphs []Morph `yaml:"morphs"`
}

// DefaultLibrary returns the built-in shapes, all centered on the origin
// inside a ShapeBounds square.
func DefaultLibrary() *Library {
	l := &Library{
		shapes: make(map[string]*Shape),
		morphs: make(map[string]*Morph),
	}

	const r = ShapeBounds / 2
	l.addShape("Square", [][]geom.Point{rectOutline(-r, -r, r, r)})
	l.addShape("Circle", [][]geom.Point{starOutline(32, r, r, 0)})
	l.addShape("Heart", [][]geom.Point{heartOutline(r)})
	l.addShape("Star", [][]geom.Point{starOutline(5, r, r*0.382, -math.Pi/2)})
	l.addShape("StarBurst", [][]geom.Point{starOutline(12, r, r*0.7, -math.Pi/2)})
	l.addShape("LawBadge", [][]geom.Point{starOutline(7, r, r*0.6, -math.Pi/2)})
	l.addShape("TriangleTopLeft", [][]geom.Point{{{X: -r, Y: -r}, {X: r, Y: -r}, {X: -r, Y: r}}})
	l.addShape("TriangleTopRight", [][]geom.Point{{{X: -r, Y: -r}, {X: r, Y: -r}, {X: r, Y: r}}})
	l.addShape("TriangleBottomLeft", [][]geom.Point{{{X: -r, Y: -r}, {X: r, Y: r}, {X: -r, Y: r}}})
	l.addShape("TriangleBottomRight", [][]geom.Point{{{X: r, Y: -r}, {X: r, Y: r}, {X: -r, Y: r}}})

	square, plus := squarePlusOutlines(r)
	l.addMorph("SquarePlus", square, plus)
	l.addMorph("PlusSquare", plus, square)

	top, full, bottom := meltOutlines(r, 16)
	l.addMorph("MeltOn", top, full)
	l.addMorph("MeltOff", full, bottom)

	closed, open := venetianOutlines(r, 10)
	l.addMorph("VenetianOpen", closed, open)
	l.addMorph("VenetianClose", open, closed)

	return l
}

// LoadLibrary reads shape overrides from a YAML file on top of the
// built-in library.
func LoadLibrary(path string) (*Library, error) {
	l := DefaultLibrary()
	if path == "" {
		return l, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library: %w", err)
	}
	var f libraryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse library %s: %w", path, err)
	}
	for i := range f.Shapes {
		s := f.Shapes[i]
		if s.Name == "" {
			return nil, fmt.Errorf("library %s: shape %d has no name", path, i)
		}
		s.Fill = colornames.Black
		l.shapes[s.Name] = &s
	}
	for i := range f.Morphs {
		m := f.Morphs[i]
		if m.Name == "" {
			return nil, fmt.Errorf("library %s: morph %d has no name", path, i)
		}
		if len(m.Start.Outline) != len(m.End.Outline) {
			return nil, fmt.Errorf("library %s: morph %q start and end outlines differ", path, m.Name)
		}
		l.morphs[m.Name] = &m
	}
	return l, nil
}

func (l *Library) Shape(name string) (*Shape, error) {
	s, ok := l.shapes[name]
	if !ok {
		return nil, fmt.Errorf("%w: shape %q", ErrMissingContent, name)
	}
	return s, nil
}

func (l *Library) Morph(name string) (*Morph, error) {
	m, ok := l.morphs[name]
	if !ok {
		return nil, fmt.Errorf("%w: morph %q", ErrMissingContent, name)
	}
	return m, nil
}

// ErrorShape is drawn in place of a photo that could not be loaded.
func (l *Library) ErrorShape(stage geom.Rect) *Shape {
	return &Shape{
		Name:    "error",
		Box:     stage,
		Outline: [][]geom.Point{rectOutline(stage.X, stage.Y, stage.X+stage.W, stage.Y+stage.H)},
		Fill:    colornames.Blue,
	}
}

func (l *Library) addShape(name string, outline [][]geom.Point) {
	l.shapes[name] = &Shape{
		Name:    name,
		Box:     geom.Centered(ShapeBounds, ShapeBounds),
		Outline: outline,
		Fill:    colornames.Black,
	}
}

func (l *Library) addMorph(name string, start, end [][]geom.Point) {
	l.morphs[name] = &Morph{
		Name:  name,
		Start: Shape{Name: name, Box: outlineBounds(start), Outline: start, Fill: colornames.Black},
		End:   Shape{Name: name, Box: outlineBounds(end), Outline: end, Fill: colornames.Black},
	}
}

func rectOutline(x0, y0, x1, y1 float64) []geom.Point {
	return []geom.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

// starOutline alternates n outer and n inner vertices. With inner == outer
// it is a regular 2n-gon.
func starOutline(n int, outer, inner, phase float64) []geom.Point {
	pts := make([]geom.Point, 0, 2*n)
	step := math.Pi / float64(n)
	for i := 0; i < 2*n; i++ {
		radius := outer
		if i%2 == 1 {
			radius = inner
		}
		sin, cos := math.Sincos(phase + float64(i)*step)
		pts = append(pts, geom.Point{X: radius * cos, Y: radius * sin})
	}
	return pts
}

func heartOutline(r float64) []geom.Point {
	const n = 48
	pts := make([]geom.Point, 0, n)
	for i := 0; i < n; i++ {
		t := 2 * math.Pi * float64(i) / n
		s := math.Sin(t)
		x := 16 * s * s * s
		y := -(13*math.Cos(t) - 5*math.Cos(2*t) - 2*math.Cos(3*t) - math.Cos(4*t))
		pts = append(pts, geom.Point{X: x, Y: y})
	}
	// fit into the shape box
	b := outlineBounds([][]geom.Point{pts})
	k := 2 * r / math.Max(b.W, b.H)
	cx, cy := b.X+b.W/2, b.Y+b.H/2
	for i := range pts {
		pts[i].X = (pts[i].X - cx) * k
		pts[i].Y = (pts[i].Y - cy) * k
	}
	return pts
}

// squarePlusOutlines returns a square and a plus with matching 12-vertex
// outlines.
func squarePlusOutlines(r float64) ([][]geom.Point, [][]geom.Point) {
	a := r / 3
	square := []geom.Point{
		{X: -a, Y: -r}, {X: a, Y: -r}, {X: r, Y: -r},
		{X: r, Y: -a}, {X: r, Y: a}, {X: r, Y: r},
		{X: a, Y: r}, {X: -a, Y: r}, {X: -r, Y: r},
		{X: -r, Y: a}, {X: -r, Y: -a}, {X: -r, Y: -r},
	}
	plus := []geom.Point{
		{X: -a, Y: -r}, {X: a, Y: -r}, {X: a, Y: -a},
		{X: r, Y: -a}, {X: r, Y: a}, {X: a, Y: a},
		{X: a, Y: r}, {X: -a, Y: r}, {X: -a, Y: a},
		{X: -r, Y: a}, {X: -r, Y: -a}, {X: -a, Y: -a},
	}
	return [][]geom.Point{square}, [][]geom.Point{plus}
}

// meltOutlines returns a zero-height strip on the top edge, the full
// square, and a zero-height strip on the bottom edge. The lower edge is
// sampled at n points so the drip can be reshaped by overrides.
func meltOutlines(r float64, n int) (top, full, bottom [][]geom.Point) {
	edge := func(upper, lower float64) []geom.Point {
		pts := []geom.Point{{X: -r, Y: upper}, {X: r, Y: upper}}
		for i := n; i >= 0; i-- {
			x := -r + 2*r*float64(i)/float64(n)
			pts = append(pts, geom.Point{X: x, Y: lower})
		}
		return pts
	}
	return [][]geom.Point{edge(-r, -r)}, [][]geom.Point{edge(-r, r)}, [][]geom.Point{edge(r, r)}
}

// venetianOutlines returns n slats collapsed onto their top edges and the
// same slats fully open.
func venetianOutlines(r float64, n int) (closed, open [][]geom.Point) {
	h := 2 * r / float64(n)
	for i := 0; i < n; i++ {
		y := -r + float64(i)*h
		closed = append(closed, rectOutline(-r, y, r, y))
		open = append(open, rectOutline(-r, y, r, y+h))
	}
	return closed, open
}

func outlineBounds(outline [][]geom.Point) geom.Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, path := range outline {
		for _, p := range path {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 0) {
		return geom.Rect{}
	}
	return geom.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
