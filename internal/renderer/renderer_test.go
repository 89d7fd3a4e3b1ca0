package renderer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/photoshow/internal/geom"
	"github.com/ivlev/photoshow/internal/progress"
	"github.com/ivlev/photoshow/internal/scene"
)

type memStore struct {
	stored   []*scene.Bitmap
	released map[int64]bool
	fail     bool
}

func newMemStore() *memStore {
	return &memStore{released: make(map[int64]bool)}
}

func (s *memStore) Store(img *image.RGBA) (*scene.Bitmap, error) {
	if s.fail {
		return nil, errors.New("disk full")
	}
	b := scene.NewBitmap(img, "")
	s.stored = append(s.stored, b)
	return b, nil
}

func (s *memStore) Release(b *scene.Bitmap) error {
	s.released[b.ID] = true
	return nil
}

func pattern(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), uint8(x + y), 255})
		}
	}
	return img
}

type fixture struct {
	tl      *scene.Timeline
	store   *memStore
	content *scene.Instance
	hq      *HighQuality
	cancel  context.CancelFunc
	rep     *progress.Reporter
}

func newFixture(photo *image.RGBA, stageW, stageH int) *fixture {
	stage := geom.Centered(float64(stageW*scene.TwipsPerPixel), float64(stageH*scene.TwipsPerPixel))
	tl := scene.NewTimeline(stage)
	content := tl.Place(0, 1, scene.Instance{Def: &scene.Shape{Name: "photo"}})
	ctx, cancel := context.WithCancel(context.Background())
	rep := progress.New(ctx, nil)
	store := newMemStore()
	hq := NewHighQuality(HighQualityOptions{
		Sink:        tl,
		Depth:       1,
		Initial:     content,
		Photo:       photo,
		StageWidth:  stageW,
		StageHeight: stageH,
		Store:       store,
		Progress:    rep,
		Start:       0,
		Total:       10,
		ErrorShape:  scene.DefaultLibrary().ErrorShape(stage),
	})
	return &fixture{tl: tl, store: store, content: content, hq: hq, cancel: cancel, rep: rep}
}

func TestStandardClaimsOnce(t *testing.T) {
	tl := scene.NewTimeline(geom.Rect{W: 100, H: 100})
	content := tl.Place(0, 3, scene.Instance{Def: &scene.Shape{Name: "photo"}})
	s := NewStandard(tl, 3, content)

	got, err := s.CreateInitial(0, geom.Translation(1, 2), nil)
	require.NoError(t, err)
	assert.Same(t, content, got)
	assert.Equal(t, geom.Translation(1, 2), content.Matrix)

	got, err = s.CreateInitial(5, geom.Translation(9, 9), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, geom.Translation(1, 2), content.Matrix, "second claim is ignored")

	inst, err := s.Create(6, geom.Translation(3, 3), nil)
	require.NoError(t, err)
	assert.Equal(t, geom.Translation(3, 3), inst.Matrix)
	assert.Equal(t, 1, tl.Count(scene.OpModify))
	assert.False(t, s.Morph())
}

func TestHighQualityIdentityIsCenteredCrop(t *testing.T) {
	photo := pattern(800, 600)
	f := newFixture(photo, 640, 480)

	inst, err := f.hq.CreateInitial(0, geom.Identity(), nil)
	require.NoError(t, err)
	require.Same(t, f.content, inst)

	shape, ok := inst.Def.(*scene.Shape)
	require.True(t, ok)
	require.NotNil(t, shape.Bitmap)
	frame := shape.Bitmap.Image
	require.Equal(t, image.Rect(0, 0, 640, 480), frame.Bounds())

	want := photo.SubImage(image.Rect(80, 60, 720, 540)).(*image.RGBA)
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			if !assert.Equal(t, want.RGBAAt(80+x, 60+y), frame.RGBAAt(x, y)) {
				return
			}
		}
	}

	// the bitmap covers the stage exactly
	assert.Equal(t, geom.Translation(-6400, -4800), inst.Matrix)
	assert.Equal(t, geom.Rect{W: 12800, H: 9600}, shape.Box)
}

func TestHighQualitySmallPhotoIsCentered(t *testing.T) {
	photo := pattern(100, 100)
	f := newFixture(photo, 200, 100)

	inst, err := f.hq.CreateInitial(0, geom.Identity(), nil)
	require.NoError(t, err)
	frame := inst.Def.(*scene.Shape).Bitmap.Image

	assert.Equal(t, color.RGBA{}, frame.RGBAAt(10, 10), "letterbox stays transparent")
	assert.Equal(t, photo.RGBAAt(0, 0), frame.RGBAAt(50, 0))
	assert.Equal(t, photo.RGBAAt(99, 99), frame.RGBAAt(149, 99))
}

func TestHighQualityOffStageFrameIsEmpty(t *testing.T) {
	f := newFixture(pattern(64, 48), 64, 48)

	_, err := f.hq.CreateInitial(0, geom.Identity(), nil)
	require.NoError(t, err)
	first := f.hq.Last()
	require.NotNil(t, first)

	inst, err := f.hq.Create(1, geom.Translation(500, 0), nil)
	require.NoError(t, err)
	assert.Nil(t, inst)
	assert.Nil(t, f.hq.Last())

	_, ok := f.tl.Find(1, 1)
	assert.False(t, ok, "the previous frame is removed")
	assert.Equal(t, 1, f.tl.Count(scene.OpFree))
	assert.Len(t, f.store.stored, 1, "nothing is rasterized off stage")

	// coming back on stage places a fresh bitmap without another remove
	_, err = f.hq.Create(2, geom.Identity(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.tl.Count(scene.OpRemove))
	_, ok = f.tl.Find(2, 1)
	assert.True(t, ok)
}

func TestHighQualityDegenerateTransform(t *testing.T) {
	f := newFixture(pattern(64, 48), 64, 48)

	inst, err := f.hq.CreateInitial(0, geom.Scaling(0, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, "empty", inst.Def.DefName())
	assert.Empty(t, f.store.stored)
}

func TestHighQualitySwapsBitmaps(t *testing.T) {
	f := newFixture(pattern(64, 48), 32, 24)

	_, err := f.hq.CreateInitial(0, geom.Identity(), nil)
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		_, err := f.hq.Create(i, geom.Identity().Scale(1+0.1*float64(i), 1+0.1*float64(i)), nil)
		require.NoError(t, err)
	}

	require.Len(t, f.store.stored, 4)
	for frame := 1; frame <= 3; frame++ {
		ops := f.tl.Ops(frame)
		require.Len(t, ops, 3, "free, remove and place on frame %d", frame)
		assert.Equal(t, scene.OpFree, ops[0].Kind)
		assert.Equal(t, f.store.stored[frame-1], ops[0].Bitmap)
		assert.Equal(t, scene.OpRemove, ops[1].Kind)
		assert.Equal(t, scene.OpPlace, ops[2].Kind)
	}
	assert.Same(t, f.store.stored[3], f.hq.Last())
	assert.InDelta(t, 0.3, f.rep.Value(), 1e-9)
}

func TestHighQualityCancelReleasesLiveBitmap(t *testing.T) {
	f := newFixture(pattern(64, 48), 64, 48)

	_, err := f.hq.CreateInitial(0, geom.Identity(), nil)
	require.NoError(t, err)
	_, err = f.hq.Create(1, geom.Translation(1, 0), nil)
	require.NoError(t, err)
	live := f.hq.Last()
	require.NotNil(t, live)

	f.cancel()
	_, err = f.hq.Create(2, geom.Translation(2, 0), nil)
	assert.True(t, errors.Is(err, progress.ErrCanceled))
	assert.Empty(t, f.tl.Ops(2), "no partial frame")
	assert.True(t, f.store.released[live.ID])
	assert.Nil(t, f.hq.Last())
	assert.Len(t, f.store.stored, 2)

	// the superseded frame belongs to the abandoned path too
	assert.True(t, f.store.released[f.store.stored[0].ID])
	assert.Len(t, f.store.released, 2)
}

func TestHighQualityOddSizeOffsets(t *testing.T) {
	narrow := newFixture(pattern(63, 47), 64, 48)
	assert.Equal(t, 0.5, narrow.hq.padX)
	assert.Equal(t, 0.5, narrow.hq.padY)
	assert.Zero(t, narrow.hq.cropX)
	assert.Zero(t, narrow.hq.cropY)

	wide := newFixture(pattern(67, 48), 64, 48)
	assert.Equal(t, 1, wide.hq.cropX, "crop origin truncates")
	assert.Zero(t, wide.hq.padX)
	assert.Zero(t, wide.hq.padY)
}

func TestHighQualityStoreFailureUsesPlaceholder(t *testing.T) {
	f := newFixture(pattern(64, 48), 64, 48)
	f.store.fail = true

	inst, err := f.hq.CreateInitial(0, geom.Identity(), nil)
	require.NoError(t, err)
	assert.Equal(t, "error", inst.Def.DefName())
	assert.Equal(t, geom.Identity(), inst.Matrix)

	inst, err = f.hq.Create(1, geom.Identity(), nil)
	require.NoError(t, err)
	assert.Equal(t, "error", inst.Def.DefName())
	assert.Zero(t, f.tl.Count(scene.OpFree))
}
