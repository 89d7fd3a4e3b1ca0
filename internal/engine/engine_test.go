package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/photoshow/internal/config"
	"github.com/ivlev/photoshow/internal/effects"
	"github.com/ivlev/photoshow/internal/keyframe"
	"github.com/ivlev/photoshow/internal/motion"
	"github.com/ivlev/photoshow/internal/progress"
	"github.com/ivlev/photoshow/internal/scene"
	"github.com/ivlev/photoshow/internal/show"
	"github.com/ivlev/photoshow/internal/source"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), 128, 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Width, cfg.Height = 64, 48
	cfg.FPS = 10
	cfg.HighQuality = false
	cfg.Workers = 2
	return cfg
}

func compile(t *testing.T, cfg *config.Config, s *show.Show) (*scene.Timeline, *Stats, error) {
	t.Helper()
	tl := scene.NewTimeline(cfg.Stage())
	st, err := NewCompiler(cfg, nil, nil).Compile(context.Background(), s, tl, nil)
	return tl, st, err
}

func actions(tl *scene.Timeline, frame int) []scene.Action {
	var out []scene.Action
	for _, op := range tl.Ops(frame) {
		if op.Kind == scene.OpAction {
			out = append(out, *op.Action)
		}
	}
	return out
}

func freed(tl *scene.Timeline, frame int) []string {
	var out []string
	for _, op := range tl.Ops(frame) {
		if op.Kind == scene.OpFree {
			out = append(out, op.Bitmap.Path)
		}
	}
	return out
}

func TestCompileSchedulesPhotos(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 64, 48)
	b := writePNG(t, dir, "b.png", 32, 32)

	cfg := testConfig()
	cfg.EventHandler = "onEvent"
	s := &show.Show{Photos: []show.Photo{
		{Image: a, BeginTransition: "Fade", BeginDuration: 1, EffectDuration: 2, EndTransition: "Fade", EndDuration: 1, EventArg: "first"},
		{Image: b, BeginTransition: "WipeLeft", BeginDuration: 0.5, EffectDuration: 1, EventArg: "second"},
	}}

	tl, st, err := compile(t, cfg, s)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Photos)
	assert.Equal(t, 50, st.Frames)
	assert.Zero(t, st.HighQuality)

	// first photo: begin 0..10, effect 10..30, end 30..40
	first, ok := tl.Find(0, 101)
	require.True(t, ok)
	assert.Equal(t, "effect1", first.Name)
	clip, ok := first.Def.(*scene.Clip)
	require.True(t, ok)
	photo, ok := clip.Timeline.Find(0, 1)
	require.True(t, ok)
	assert.Equal(t, a, photo.Def.(*scene.Shape).Bitmap.Path)
	assert.Equal(t, []scene.Action{{Stop: true}}, actions(clip.Timeline, 39))

	_, ok = tl.Find(39, 101)
	assert.True(t, ok)
	_, ok = tl.Find(40, 101)
	assert.False(t, ok)

	// the second begin is padded to end with the first photo's end
	_, ok = tl.Find(34, 103)
	assert.False(t, ok)
	second, ok := tl.Find(35, 103)
	require.True(t, ok, "next photo is layered above")
	assert.Equal(t, "effect2", second.Name)
	_, ok = tl.Find(50, 103)
	assert.False(t, ok)

	assert.Equal(t, []scene.Action{
		{Handler: "onEvent", Event: "showBegin", Arg: "2"},
		{Handler: "onEvent", Event: "photo0", Arg: "first"},
	}, actions(tl, 0))
	assert.Equal(t, []scene.Action{{Handler: "onEvent", Event: "photo1", Arg: "second"}}, actions(tl, 35))
	assert.Equal(t, []scene.Action{{Handler: "onEvent", Event: "showEnd"}}, actions(tl, 50))

	assert.Equal(t, []string{a}, freed(tl, 40))
	assert.Equal(t, []string{b}, freed(tl, 50))
}

func TestCompileWithoutHandlerEmitsNoEvents(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 64, 48)

	tl, _, err := compile(t, testConfig(), &show.Show{Photos: []show.Photo{{Image: a, EffectDuration: 1}}})
	require.NoError(t, err)
	assert.Zero(t, tl.Count(scene.OpAction))
}

func TestCompileEndLayerTop(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 64, 48)

	s := &show.Show{Photos: []show.Photo{
		{Image: a, EffectDuration: 1, EndLayer: "top"},
		{Image: a, EffectDuration: 1},
	}}
	tl, st, err := compile(t, testConfig(), s)
	require.NoError(t, err)
	assert.Equal(t, 20, st.Frames)

	_, ok := tl.Find(10, 99)
	assert.True(t, ok, "next photo goes below")
	assert.Equal(t, 1, tl.Count(scene.OpFree), "shared bitmap is freed once")
	assert.Equal(t, []string{a}, freed(tl, 20))
}

func TestCompileSkipsEmptyPhotos(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 64, 48)

	cfg := testConfig()
	cfg.EventHandler = "h"
	s := &show.Show{Photos: []show.Photo{
		{Image: a, EffectDuration: 1},
		{Image: a},
		{Image: a, EffectDuration: 1},
	}}
	tl, st, err := compile(t, cfg, s)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Photos)
	assert.Equal(t, 1, st.Skipped)

	assert.Equal(t, "photo1", actions(tl, 10)[0].Event)
	_, ok := tl.Find(10, 103)
	assert.True(t, ok, "the skipped photo takes no slot")
}

func zoomShow(image string) *show.Show {
	return &show.Show{Photos: []show.Photo{{
		Image:          image,
		Effect:         "PanZoom",
		EffectDuration: 1,
		Keyframes:      []keyframe.Keyframe{{Start: 0, Scale: 1}, {Start: 1, Scale: 2}},
	}}}
}

func newLazyCompiler(t *testing.T, cfg *config.Config) (*Compiler, *source.LazyStore) {
	t.Helper()
	store, err := source.NewLazyStore(t.TempDir())
	require.NoError(t, err)
	c := NewCompiler(cfg, nil, nil)
	c.Store = store
	return c, store
}

func TestCompileHighQuality(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 64, 48)

	cfg := testConfig()
	cfg.HighQuality = true
	s := zoomShow(a)
	c, store := newLazyCompiler(t, cfg)

	tl := scene.NewTimeline(cfg.Stage())
	st, err := c.Compile(context.Background(), s, tl, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, st.HighQuality)

	inst, ok := tl.Find(0, 101)
	require.True(t, ok)
	clip := inst.Def.(*scene.Clip)
	frame, ok := clip.Timeline.Find(0, 1)
	require.True(t, ok)
	shape := frame.Def.(*scene.Shape)
	require.NotNil(t, shape.Bitmap)
	assert.Equal(t, 64, shape.Bitmap.Width)
	assert.Equal(t, 48, shape.Bitmap.Height)
	assert.FileExists(t, shape.Bitmap.Path)

	// earlier frames are freed inside the clip, the last one by the show
	assert.NotZero(t, clip.Timeline.Count(scene.OpFree))
	assert.Equal(t, 1, tl.Count(scene.OpFree))
	assert.Equal(t, clip.Timeline.Count(scene.OpFree)+1, store.Len())

	// a show can turn high quality off
	off := false
	s.HighQuality = &off
	_, st, err = compile(t, Merge(cfg, s), s)
	require.NoError(t, err)
	assert.Zero(t, st.HighQuality)
}

func TestCompileHighQualityKeepsNoFramesInMemory(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 64, 48)

	cfg := testConfig()
	cfg.HighQuality = true
	c, _ := newLazyCompiler(t, cfg)

	tl := scene.NewTimeline(cfg.Stage())
	st, err := c.Compile(context.Background(), zoomShow(a), tl, nil)
	require.NoError(t, err)
	require.Equal(t, 1, st.HighQuality)

	inst, ok := tl.Find(0, 101)
	require.True(t, ok)
	clip := inst.Def.(*scene.Clip).Timeline

	frames := 0
	for f := 0; f < clip.Len(); f++ {
		for _, op := range clip.Ops(f) {
			if op.Kind != scene.OpPlace {
				continue
			}
			shape, ok := op.Instance.Def.(*scene.Shape)
			if !ok || shape.Bitmap == nil {
				continue
			}
			frames++
			assert.Nil(t, shape.Bitmap.Image, "frame %d holds pixels in memory", f)
		}
	}
	assert.Greater(t, frames, 1)
}

func TestCompileHighQualityNeedsStore(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 64, 48)

	cfg := testConfig()
	cfg.HighQuality = true
	_, st, err := compile(t, cfg, zoomShow(a))
	require.NoError(t, err)
	assert.Zero(t, st.HighQuality)
}

func TestHighQualityFor(t *testing.T) {
	zoom := motion.Path{HighQuality: true}
	decoded := &source.Photo{}

	tests := []struct {
		name  string
		hq    bool
		store bool
		ref   source.Ref
		path  motion.Path
		photo *source.Photo
		want  bool
	}{
		{"raster", true, true, source.Ref{}, zoom, decoded, true},
		{"vector", true, true, source.Ref{Vector: true}, zoom, decoded, false},
		{"no store", true, false, source.Ref{}, zoom, decoded, false},
		{"disabled", false, true, source.Ref{}, zoom, decoded, false},
		{"translation only", true, true, source.Ref{}, motion.Path{}, decoded, false},
		{"missing photo", true, true, source.Ref{}, zoom, &source.Photo{Err: os.ErrNotExist}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.HighQuality = tt.hq
			c := NewCompiler(cfg, nil, nil)
			if tt.store {
				store, err := source.NewLazyStore(t.TempDir())
				require.NoError(t, err)
				c.Store = store
			}
			sc := &scheduler{Compiler: c}
			assert.Equal(t, tt.want, sc.highQualityFor(plan{ref: tt.ref}, tt.path, tt.photo))
		})
	}
}

func TestCompileMissingPhotoUsesPlaceholder(t *testing.T) {
	s := &show.Show{Photos: []show.Photo{{Image: filepath.Join(t.TempDir(), "gone.jpg"), EffectDuration: 1}}}
	tl, st, err := compile(t, testConfig(), s)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ResourceErrors)

	inst, ok := tl.Find(0, 101)
	require.True(t, ok)
	content, ok := inst.Def.(*scene.Clip).Timeline.Find(0, 1)
	require.True(t, ok)
	assert.Equal(t, "error", content.Def.DefName())
	assert.Zero(t, tl.Count(scene.OpFree))
}

func TestCompileFailsFastOnConfigErrors(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 64, 48)

	tests := []struct {
		name   string
		photo  show.Photo
		target error
	}{
		{"begin", show.Photo{BeginTransition: "Teleport"}, effects.ErrUnknownTransition},
		{"end", show.Photo{EndTransition: "Vanish"}, effects.ErrUnknownTransition},
		{"effect", show.Photo{Effect: "Sparkle"}, effects.ErrUnknownEffect},
		{"direction", show.Photo{Effect: "Panorama", Direction: "sideways"}, effects.ErrUnknownEffect},
		{"keyframes", show.Photo{Effect: "PanZoom", Keyframes: []keyframe.Keyframe{{Start: 0.5, Scale: 1}}}, keyframe.ErrInvalidKeyframes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := tt.photo
			bad.Image = a
			bad.EffectDuration = 1
			s := &show.Show{Photos: []show.Photo{{Image: a, EffectDuration: 1}, bad}}

			tl, _, err := compile(t, testConfig(), s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), err.Error())
			var ce *effects.ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, 2, ce.Photo)
			assert.Zero(t, tl.Len(), "nothing is written")
		})
	}
}

func TestCompileMissingLibraryShape(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 64, 48)

	cfg := testConfig()
	tl := scene.NewTimeline(cfg.Stage())
	c := NewCompiler(cfg, &scene.Library{}, nil)
	_, err := c.Compile(context.Background(), &show.Show{Photos: []show.Photo{{Image: a, BeginTransition: "Star", EffectDuration: 1}}}, tl, nil)
	assert.ErrorIs(t, err, scene.ErrMissingContent)
}

func TestCompileCanceled(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 64, 48)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := testConfig()
	tl := scene.NewTimeline(cfg.Stage())
	_, err := NewCompiler(cfg, nil, nil).Compile(ctx, &show.Show{Photos: []show.Photo{{Image: a, EffectDuration: 1}}}, tl, nil)
	assert.ErrorIs(t, err, progress.ErrCanceled)
}

func TestCompileCanceledDuringHighQuality(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 64, 48)

	cfg := testConfig()
	cfg.HighQuality = true
	c, store := newLazyCompiler(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var last float64
	listener := func(f float64) {
		last = f
		if f >= 0.3 {
			cancel()
		}
	}

	tl := scene.NewTimeline(cfg.Stage())
	_, err := c.Compile(ctx, zoomShow(a), tl, listener)
	assert.ErrorIs(t, err, progress.ErrCanceled)
	assert.Less(t, last, 1.0, "stopped before the photo was done")
	assert.Zero(t, store.Len(), "frames of the abandoned photo are released")

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompileProgress(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 64, 48)

	var seen []float64
	cfg := testConfig()
	tl := scene.NewTimeline(cfg.Stage())
	s := &show.Show{Photos: []show.Photo{{Image: a, EffectDuration: 1}, {Image: a, EffectDuration: 1}}}
	_, err := NewCompiler(cfg, nil, nil).Compile(context.Background(), s, tl, func(f float64) { seen = append(seen, f) })
	require.NoError(t, err)

	require.NotEmpty(t, seen)
	assert.InDelta(t, 1.0, seen[len(seen)-1], 1e-9)
	assert.IsNonDecreasing(t, seen)
}

func TestMerge(t *testing.T) {
	cfg := testConfig()
	hq := true
	s := &show.Show{Stage: show.Stage{Width: 320}, FPS: 25, HighQuality: &hq, EventHandler: "ev"}

	got := Merge(cfg, s)
	assert.Equal(t, 320, got.Width)
	assert.Equal(t, 48, got.Height)
	assert.Equal(t, 25.0, got.FPS)
	assert.True(t, got.HighQuality)
	assert.Equal(t, "ev", got.EventHandler)
	assert.Equal(t, 64, cfg.Width, "the original is untouched")
}
