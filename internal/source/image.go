package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Ref names one photo as the show describes it.
type Ref struct {
	Path  string
	Crop  string
	Scale string
	// Vector marks document content rendered through MuPDF.
	Vector bool
}

// Key identifies the decoded pixels: the same file with the same crop and
// scale decodes once.
func (r Ref) Key() string {
	return fmt.Sprintf("%s|%s|%s|%t", r.Path, r.Crop, r.Scale, r.Vector)
}

// ParseRect parses "x,y,w,h". ok is false for anything else.
func ParseRect(s string) (r image.Rectangle, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, false
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, false
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), true
}

// ParseScale parses a positive scale factor, defaulting to 1.
func ParseScale(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 1
	}
	return f
}

// Decode reads an image file in any registered format.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Load decodes ref and applies its crop and scale. Vector content is
// rasterized to fit a stageW x stageH box first.
func Load(ref Ref, stageW, stageH int) (*image.RGBA, error) {
	var img image.Image
	if ref.Vector {
		doc, err := OpenDocument(ref.Path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", ref.Path, err)
		}
		defer doc.Close()
		img, err = doc.RenderToFit(0, stageW, stageH)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", ref.Path, err)
		}
	} else {
		var err error
		img, err = Decode(ref.Path)
		if err != nil {
			return nil, err
		}
	}

	sr := img.Bounds()
	if crop, ok := ParseRect(ref.Crop); ok {
		sr = crop.Add(sr.Min).Intersect(sr)
		if sr.Empty() {
			return nil, fmt.Errorf("crop %q lies outside %s", ref.Crop, ref.Path)
		}
	}

	scale := ParseScale(ref.Scale)
	w := int(math.Round(float64(sr.Dx()) * scale))
	h := int(math.Round(float64(sr.Dy()) * scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("scale %q collapses %s", ref.Scale, ref.Path)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if scale == 1 {
		draw.Draw(dst, dst.Bounds(), img, sr.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, dst.Bounds(), img, sr, draw.Src, nil)
	}
	return dst, nil
}
