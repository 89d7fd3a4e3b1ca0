package analyzer

import (
	"errors"
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"
)

var ErrEmptyImage = errors.New("empty image")

// EdgeDetector scores a grid of cells by Sobel gradient energy and
// returns the windows of cells that hold the most detail.
type EdgeDetector struct {
	MaxSide       int     // Analysis resolution, longest side in pixels
	Grid          int     // Cells along each side
	Window        int     // Window size in cells
	Regions       int     // Maximum regions returned
	EdgeThreshold float64 // Gradient magnitude threshold
}

// NewEdgeDetector creates an edge-based detector with default settings
func NewEdgeDetector() *EdgeDetector {
	return &EdgeDetector{
		MaxSide:       256,
		Grid:          8,
		Window:        4,
		Regions:       3,
		EdgeThreshold: 30.0,
	}
}

type window struct {
	x, y  int
	score float64
}

// Detect returns non-overlapping regions, best first. A photo without
// any edges yields no regions.
func (d *EdgeDetector) Detect(img image.Image) ([]Region, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}

	gray := downsample(img, d.MaxSide)
	cells, total := d.cellEnergy(gray)
	if total == 0 {
		return nil, nil
	}

	g := d.Grid
	win := min(d.Window, g)
	var windows []window
	for wy := 0; wy+win <= g; wy++ {
		for wx := 0; wx+win <= g; wx++ {
			var sum float64
			for y := wy; y < wy+win; y++ {
				for x := wx; x < wx+win; x++ {
					sum += cells[y*g+x]
				}
			}
			windows = append(windows, window{x: wx, y: wy, score: sum})
		}
	}
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].score > windows[j].score
	})

	gw, gh := gray.Bounds().Dx(), gray.Bounds().Dy()
	toSource := func(cx, cy int) image.Point {
		return image.Point{
			X: bounds.Min.X + cx*gw/g*bounds.Dx()/gw,
			Y: bounds.Min.Y + cy*gh/g*bounds.Dy()/gh,
		}
	}

	var picked []window
	var regions []Region
	for _, w := range windows {
		if len(regions) >= d.Regions || w.score == 0 {
			break
		}
		if overlaps(picked, w, win) {
			continue
		}
		picked = append(picked, w)
		regions = append(regions, Region{
			Rect:  image.Rectangle{Min: toSource(w.x, w.y), Max: toSource(w.x+win, w.y+win)},
			Score: w.score / total,
		})
	}
	return regions, nil
}

func overlaps(picked []window, w window, size int) bool {
	for _, p := range picked {
		if abs(p.x-w.x) < size && abs(p.y-w.y) < size {
			return true
		}
	}
	return false
}

// downsample converts img to grayscale no larger than maxSide
func downsample(img image.Image, maxSide int) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if m := max(w, h); m > maxSide {
		w = max(1, w*maxSide/m)
		h = max(1, h*maxSide/m)
	}
	gray := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, b, draw.Src, nil)
	return gray
}

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// cellEnergy sums the thresholded gradient magnitude per grid cell
func (d *EdgeDetector) cellEnergy(gray *image.Gray) ([]float64, float64) {
	g := d.Grid
	cells := make([]float64, g*g)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()

	var total float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var sumX, sumY float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := float64(gray.GrayAt(x+kx, y+ky).Y)
					sumX += v * sobelX[ky+1][kx+1]
					sumY += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude := math.Hypot(sumX, sumY)
			if magnitude <= d.EdgeThreshold {
				continue
			}
			cells[(y*g/h)*g+x*g/w] += magnitude
			total += magnitude
		}
	}
	return cells, total
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// CenterDetector always picks the middle of the photo.
type CenterDetector struct {
	Fraction float64
}

func NewCenterDetector() *CenterDetector {
	return &CenterDetector{Fraction: 0.5}
}

func (d *CenterDetector) Detect(img image.Image) ([]Region, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	w := int(float64(b.Dx()) * d.Fraction)
	h := int(float64(b.Dy()) * d.Fraction)
	origin := b.Min.Add(image.Pt((b.Dx()-w)/2, (b.Dy()-h)/2))
	return []Region{{Rect: image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}, Score: 1}}, nil
}
