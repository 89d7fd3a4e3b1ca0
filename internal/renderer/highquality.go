package renderer

import (
	"errors"
	"image"
	"log/slog"

	"github.com/ivlev/photoshow/internal/geom"
	"github.com/ivlev/photoshow/internal/progress"
	"github.com/ivlev/photoshow/internal/scene"
	"github.com/ivlev/photoshow/internal/source"
	"github.com/ivlev/photoshow/internal/system"
)

// HighQualityOptions configures a HighQuality builder. Transforms handed
// to it are in pixels around the photo's center.
type HighQualityOptions struct {
	Sink    scene.Sink
	Depth   int
	Initial *scene.Instance
	Photo   *image.RGBA
	// Stage size in pixels.
	StageWidth  int
	StageHeight int
	Store       scene.BitmapStore
	Progress    *progress.Reporter
	// Start and Total frames of the whole path, for progress.
	Start int
	Total int
	// ErrorShape replaces frames whose bitmap could not be stored.
	ErrorShape *scene.Shape
	Logger     *slog.Logger
}

// HighQuality rasterizes the photo through the tween transform on every
// frame, keeps only the part on stage, and swaps the previous frame's
// bitmap out.
type HighQuality struct {
	HighQualityOptions

	// cropX and cropY are where the stage starts inside a photo larger
	// than it; padX and padY center a smaller photo on the stage.
	cropX, cropY int
	padX, padY   float64
	stageAtx     geom.Affine
	state        claimState

	// live is the bitmap currently on the display list, owned until the
	// next frame replaces it.
	live *scene.Bitmap
	// retired bitmaps were replaced by a later frame and freed in the
	// sink. They are released only if the path is abandoned.
	retired []*scene.Bitmap
	placed  bool
	failed  bool
}

type frameShape struct {
	shape  *scene.Shape
	matrix geom.Affine
	bitmap *scene.Bitmap
}

func NewHighQuality(o HighQualityOptions) *HighQuality {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Total <= 0 {
		o.Total = 1
	}
	b := o.Photo.Bounds()
	offX := float64(b.Dx()-o.StageWidth) / 2
	offY := float64(b.Dy()-o.StageHeight) / 2
	return &HighQuality{
		HighQualityOptions: o,
		cropX:              max(int(offX), 0),
		cropY:              max(int(offY), 0),
		padX:               max(-offX, 0),
		padY:               max(-offY, 0),
		stageAtx: geom.Translation(
			-float64(o.StageWidth*scene.TwipsPerPixel)/2,
			-float64(o.StageHeight*scene.TwipsPerPixel)/2,
		),
	}
}

func (h *HighQuality) Morph() bool { return false }

func (h *HighQuality) CreateInitial(frame int, m geom.Affine, c *geom.ColorTransform) (*scene.Instance, error) {
	if h.state == claimed {
		return nil, nil
	}
	fs, err := h.render(m)
	if err != nil {
		return nil, err
	}
	h.state = claimed

	if fs == nil {
		h.Initial.Def = scene.EmptyShape()
		h.Initial.Matrix = h.stageAtx
	} else {
		h.Initial.Def = fs.shape
		h.Initial.Matrix = fs.matrix
		h.live = fs.bitmap
	}
	if c != nil {
		h.Initial.Color = c
	}
	h.placed = true
	h.report(frame)
	return h.Initial, nil
}

func (h *HighQuality) Create(frame int, m geom.Affine, c *geom.ColorTransform) (*scene.Instance, error) {
	fs, err := h.render(m)
	if err != nil {
		return nil, err
	}

	// the new frame is ready, retire the old one
	if h.live != nil {
		h.Sink.Free(frame, h.live)
		h.retired = append(h.retired, h.live)
		h.live = nil
	}
	if h.placed {
		h.Sink.Remove(frame, h.Depth)
		h.placed = false
	}
	if fs == nil {
		h.report(frame)
		return nil, nil
	}

	inst := h.Sink.Place(frame, h.Depth, scene.Instance{Def: fs.shape, Matrix: fs.matrix, Color: c})
	h.placed = true
	h.live = fs.bitmap
	h.report(frame)
	return inst, nil
}

// Last returns the bitmap shown on the last emitted frame.
func (h *HighQuality) Last() *scene.Bitmap {
	return h.live
}

// Close releases every bitmap the path stored. It is called when the
// path is abandoned.
func (h *HighQuality) Close() error {
	var errs []error
	for _, b := range h.retired {
		errs = append(errs, h.Store.Release(b))
	}
	h.retired = nil
	if h.live != nil {
		errs = append(errs, h.Store.Release(h.live))
		h.live = nil
	}
	return errors.Join(errs...)
}

func (h *HighQuality) report(frame int) {
	if h.Progress != nil {
		h.Progress.Update(float64(frame-h.Start) / float64(h.Total))
	}
}

// render produces the stage-sized bitmap for one frame, or nil when
// nothing of the photo is visible.
func (h *HighQuality) render(m geom.Affine) (*frameShape, error) {
	if h.Progress != nil {
		if err := h.Progress.Check(); err != nil {
			h.Close()
			return nil, err
		}
	}

	b := h.Photo.Bounds()
	w, ht := float64(b.Dx()), float64(b.Dy())
	atx := geom.Translation(h.padX, h.padY).
		Translate(w/2, ht/2).
		Concat(m).
		Translate(-w/2, -ht/2)

	if _, ok := atx.Invert(); !ok {
		h.Logger.Debug("degenerate frame transform", "matrix", atx)
		return nil, nil
	}

	vx, vy := float64(h.cropX), float64(h.cropY)
	visible := geom.Rect{X: vx, Y: vy, W: float64(h.StageWidth), H: float64(h.StageHeight)}
	if !source.TransformedBounds(b.Dx(), b.Dy(), atx).Intersects(visible) {
		return nil, nil
	}

	dst := system.GetClearImage(image.Rect(0, 0, h.StageWidth, h.StageHeight))
	source.Transform(dst, h.Photo, atx.PreConcat(geom.Translation(-vx, -vy)))

	bmp, err := h.Store.Store(dst)
	if err != nil {
		system.PutImage(dst)
		if !h.failed {
			h.Logger.Warn("frame bitmap unavailable, using placeholder", "err", err)
			h.failed = true
		}
		if h.ErrorShape == nil {
			return nil, nil
		}
		return &frameShape{shape: h.ErrorShape, matrix: geom.Identity()}, nil
	}
	return &frameShape{
		shape:  scene.BitmapShape("frame", bmp, 0, 0),
		matrix: h.stageAtx,
		bitmap: bmp,
	}, nil
}
