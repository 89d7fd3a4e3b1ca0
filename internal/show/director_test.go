package show

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/photoshow/internal/analyzer"
)

// writePhoto saves a black square photo with a checkerboard in detail
func writePhoto(t *testing.T, dir, name string, size int, detail image.Rectangle) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := detail.Min.Y; y < detail.Max.Y; y++ {
		for x := detail.Min.X; x < detail.Max.X; x++ {
			if (x/10+y/10)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestDirectorZoomsToDetail(t *testing.T) {
	dir := t.TempDir()
	path := writePhoto(t, dir, "a.png", 400, image.Rect(0, 0, 150, 150))

	director := NewDirector(640, 480, analyzer.NewEdgeDetector())
	s, err := director.GenerateShow(context.Background(), []string{path, path})
	require.NoError(t, err)

	assert.Equal(t, "1.0", s.Version)
	assert.Equal(t, Stage{Width: 640, Height: 480}, s.Stage)
	require.Len(t, s.Photos, 2)
	require.NoError(t, s.Validate())

	p := s.Photos[0]
	assert.True(t, filepath.IsAbs(p.Image))
	assert.Equal(t, "Fade", p.BeginTransition)
	assert.Equal(t, "PanZoom", p.Effect)
	require.Len(t, p.Keyframes, 2)

	// fitted at 1.2, the 200px focus fits the stage height at 1.8x
	from, to := p.Keyframes[0], p.Keyframes[1]
	assert.Equal(t, 1.0, from.Scale)
	assert.Equal(t, 1.0, to.Start)
	assert.InDelta(t, 1.8, to.Scale, 1e-9)
	// top-left focus moves the photo right and down, up to its edges
	assert.InDelta(t, 112.0/320, to.TranslateX, 1e-9)
	assert.InDelta(t, 192.0/240, to.TranslateY, 1e-9)

	second := s.Photos[1]
	assert.Equal(t, "WipeLeft", second.BeginTransition)
	assert.InDelta(t, 1.8, second.Keyframes[0].Scale, 1e-9, "zooms out")
	assert.Equal(t, 0.0, second.Keyframes[0].Start)
	assert.Equal(t, 1.0, second.Keyframes[1].Scale)
}

func TestDirectorFlatPhoto(t *testing.T) {
	dir := t.TempDir()
	path := writePhoto(t, dir, "flat.png", 64, image.Rectangle{})

	s, err := NewDirector(640, 480, analyzer.NewEdgeDetector()).GenerateShow(context.Background(), []string{path})
	require.NoError(t, err)
	kfs := s.Photos[0].Keyframes
	require.Len(t, kfs, 2)
	assert.Equal(t, 1.0, kfs[0].Scale)
	assert.Equal(t, 1.1, kfs[1].Scale)
	assert.Zero(t, kfs[1].TranslateX)
}

func TestDirectorErrors(t *testing.T) {
	d := NewDirector(640, 480, analyzer.NewCenterDetector())

	_, err := d.GenerateShow(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidShow)

	_, err = d.GenerateShow(context.Background(), []string{filepath.Join(t.TempDir(), "missing.png")})
	assert.Error(t, err)
}

func TestCalculateZoom(t *testing.T) {
	d := NewDirector(1000, 1000, nil)

	assert.Equal(t, 1.0, d.calculateZoom(image.Rect(0, 0, 2000, 2000), 1), "never below fitted")
	assert.Equal(t, 2.0, d.calculateZoom(image.Rect(0, 0, 10, 10), 1), "clamped")
	assert.InDelta(t, 1.5, d.calculateZoom(image.Rect(0, 0, 600, 300), 1), 1e-9)
	assert.Equal(t, 1.0, d.calculateZoom(image.Rectangle{}, 1))
}
