package show

import (
	"context"
	"fmt"
	"image"
	"math"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/photoshow/internal/analyzer"
	"github.com/ivlev/photoshow/internal/keyframe"
	"github.com/ivlev/photoshow/internal/source"
)

// Director generates a show from a set of photos, zooming each one
// towards the region its detector finds most interesting.
type Director struct {
	Stage    keyframe.Size
	Detector analyzer.Detector
	// Transitions are used in turn, one per photo.
	Transitions    []string
	EndTransition  string
	BeginDuration  float64 // seconds
	EffectDuration float64 // seconds
	EndDuration    float64 // seconds
	MaxZoom        float64
	Workers        int
}

// NewDirector creates a new Director with default settings
func NewDirector(width, height int, detector analyzer.Detector) *Director {
	return &Director{
		Stage:          keyframe.Size{W: float64(width), H: float64(height)},
		Detector:       detector,
		Transitions:    []string{"Fade", "WipeLeft", "Iris", "SlideUp", "VenetianVertical", "ZoomBoth"},
		EndTransition:  "Fade",
		BeginDuration:  1.0,
		EffectDuration: 4.0,
		EndDuration:    1.0,
		MaxZoom:        2.0,
		Workers:        4,
	}
}

// GenerateShow analyzes the photos concurrently and returns a show that
// plays them in the given order.
func (d *Director) GenerateShow(ctx context.Context, paths []string) (*Show, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no photos", ErrInvalidShow)
	}

	photos := make([]Photo, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, d.Workers))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := d.photo(i, path)
			if err != nil {
				return err
			}
			photos[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Show{
		Version: "1.0",
		Stage:   Stage{Width: int(d.Stage.W), Height: int(d.Stage.H)},
		Photos:  photos,
	}, nil
}

func (d *Director) photo(i int, path string) (Photo, error) {
	img, err := source.Decode(path)
	if err != nil {
		return Photo{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Photo{}, err
	}

	regions, err := d.Detector.Detect(img)
	if err != nil {
		return Photo{}, fmt.Errorf("analyze %s: %w", path, err)
	}

	var kfs []keyframe.Keyframe
	if len(regions) == 0 {
		kfs = []keyframe.Keyframe{{Start: 0, Scale: 1, Easing: true}, {Start: 1, Scale: 1.1}}
	} else {
		kfs = d.generateKeyframes(regions[0].Rect, img.Bounds())
	}
	// every other photo zooms out
	if i%2 == 1 {
		kfs[0], kfs[1] = kfs[1], kfs[0]
		kfs[0].Start, kfs[1].Start = 0, 1
		kfs[0].Easing, kfs[1].Easing = true, false
	}

	return Photo{
		Image:           abs,
		BeginTransition: d.Transitions[i%len(d.Transitions)],
		BeginDuration:   d.BeginDuration,
		Effect:          "PanZoom",
		EffectDuration:  d.EffectDuration,
		EndTransition:   d.EndTransition,
		EndDuration:     d.EndDuration,
		Keyframes:       kfs,
	}, nil
}

// generateKeyframes moves from the fitted photo to the focus region
func (d *Director) generateKeyframes(focus, bounds image.Rectangle) []keyframe.Keyframe {
	size := keyframe.Size{W: float64(bounds.Dx()), H: float64(bounds.Dy())}
	fit := keyframe.ScaleFactor(size.W, size.H, d.Stage.W, d.Stage.H)
	factor := fit * d.calculateZoom(focus, fit)

	// focus center relative to the photo center
	cx := float64(focus.Min.X-bounds.Min.X) + float64(focus.Dx())/2 - size.W/2
	cy := float64(focus.Min.Y-bounds.Min.Y) + float64(focus.Dy())/2 - size.H/2

	// never pull the photo edge into the stage
	tx := clampAbs(-cx*factor, (size.W*factor-d.Stage.W)/2)
	ty := clampAbs(-cy*factor, (size.H*factor-d.Stage.H)/2)

	from := keyframe.Keyframe{Start: 0, Scale: 1, Easing: true}
	to := keyframe.Keyframe{Start: 1}
	to.SetFactor(factor, size, d.Stage, 1)
	to.SetPixels(tx, ty, d.Stage)
	return []keyframe.Keyframe{from, to}
}

// calculateZoom determines the zoom that fits the region in 90% of the
// stage, on top of the fitted scale
func (d *Director) calculateZoom(focus image.Rectangle, fit float64) float64 {
	padding := 0.9

	w := float64(focus.Dx()) * fit
	h := float64(focus.Dy()) * fit
	if w == 0 || h == 0 {
		return 1.0
	}

	zoom := math.Min(d.Stage.W*padding/w, d.Stage.H*padding/h)
	return math.Max(1.0, math.Min(zoom, d.MaxZoom))
}

func clampAbs(v, limit float64) float64 {
	limit = math.Max(limit, 0)
	return math.Max(-limit, math.Min(limit, v))
}
