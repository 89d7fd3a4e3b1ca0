// Package engine schedules a show's photos onto a timeline: it resolves
// every transition and effect, lays the photos out in time and depth,
// and decides how each motion path is rendered.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/ivlev/photoshow/internal/config"
	"github.com/ivlev/photoshow/internal/effects"
	"github.com/ivlev/photoshow/internal/geom"
	"github.com/ivlev/photoshow/internal/keyframe"
	"github.com/ivlev/photoshow/internal/motion"
	"github.com/ivlev/photoshow/internal/progress"
	"github.com/ivlev/photoshow/internal/renderer"
	"github.com/ivlev/photoshow/internal/scene"
	"github.com/ivlev/photoshow/internal/show"
	"github.com/ivlev/photoshow/internal/source"
)

// Stats summarizes a compilation.
type Stats struct {
	Photos         int
	Skipped        int
	HighQuality    int
	ResourceErrors int
	Frames         int
	DepthGrowths   int
}

// Compiler turns shows into timelines. Cache and Store may be shared
// between compilations.
type Compiler struct {
	Config  *config.Config
	Library *scene.Library
	Cache   *source.Cache
	// Store receives high-quality frames. Without one every photo is
	// compiled in standard quality.
	Store  scene.BitmapStore
	Logger *slog.Logger
}

func NewCompiler(cfg *config.Config, lib *scene.Library, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if lib == nil {
		lib = scene.DefaultLibrary()
	}
	return &Compiler{
		Config:  cfg,
		Library: lib,
		Cache:   source.NewCache(cfg.Width, cfg.Height, logger),
		Logger:  logger,
	}
}

// Merge returns cfg with the settings s overrides.
func Merge(cfg *config.Config, s *show.Show) *config.Config {
	out := *cfg
	if s.Stage.Width > 0 {
		out.Width = s.Stage.Width
	}
	if s.Stage.Height > 0 {
		out.Height = s.Stage.Height
	}
	if s.FPS > 0 {
		out.FPS = s.FPS
	}
	if s.HighQuality != nil {
		out.HighQuality = *s.HighQuality
	}
	if s.EventHandler != "" {
		out.EventHandler = s.EventHandler
	}
	return &out
}

// plan is a photo whose names have been resolved.
type plan struct {
	photo  show.Photo
	index  int
	ref    source.Ref
	effect effects.Effect
	scale  float64

	begin, effectFrames, end int
}

// Compile writes s into sink. Configuration errors are reported before
// anything is written; a canceled ctx yields progress.ErrCanceled and
// the sink must be discarded.
func (c *Compiler) Compile(ctx context.Context, s *show.Show, sink scene.Sink, listener progress.Listener) (*Stats, error) {
	if err := c.Config.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	catalog := effects.NewCatalog(sink, c.Library, geom.Identity())
	plans, err := c.prepare(s, catalog)
	if err != nil {
		return nil, err
	}

	rep := progress.New(ctx, listener)
	refs := make([]source.Ref, len(plans))
	for i, p := range plans {
		refs[i] = p.ref
	}
	if err := c.Cache.Prefetch(ctx, refs, c.Config.Workers); err != nil {
		if rep.Canceled() {
			return nil, progress.ErrCanceled
		}
		return nil, err
	}

	st := &Stats{}
	sc := &scheduler{
		Compiler: c,
		sink:     sink,
		catalog:  catalog,
		rep:      rep,
		alloc:    NewAllocator(sink, c.Config.BaseDepth, c.Config.ReserveChunk),
		release:  make(map[*scene.Bitmap]int),
		stats:    st,
	}
	if err := sc.run(plans); err != nil {
		return nil, err
	}
	st.DepthGrowths = sc.alloc.Grown()
	return st, nil
}

// prepare resolves every name in the show and fails on the first one
// that is unknown.
func (c *Compiler) prepare(s *show.Show, catalog *effects.Catalog) ([]plan, error) {
	plans := make([]plan, len(s.Photos))
	for i, p := range s.Photos {
		begin, err := effects.LookupBegin(p.Begin())
		if err == nil {
			err = catalog.Check(begin)
		}
		if err != nil {
			return nil, atPhoto(err, i)
		}

		end, err := effects.LookupEnd(p.End())
		if err == nil {
			err = catalog.Check(end)
		}
		if err != nil {
			return nil, atPhoto(err, i)
		}

		eff, err := effects.LookupEffect(p.EffectName())
		if err != nil {
			return nil, atPhoto(err, i)
		}
		if v, ok := eff.(effects.Validator); ok {
			if err := v.Validate(effects.Params{Keyframes: p.Keyframes, Direction: p.Direction}); err != nil {
				return nil, atPhoto(&effects.ConfigError{Kind: "effect", Name: p.EffectName(), Err: err}, i)
			}
		}

		plans[i] = plan{
			photo:        p,
			index:        i,
			ref:          source.Ref{Path: p.Image, Crop: p.Crop, Scale: p.Scale, Vector: p.Flash},
			effect:       eff,
			scale:        source.ParseScale(p.Scale),
			begin:        c.Config.Frames(p.BeginDuration),
			effectFrames: c.Config.Frames(p.EffectDuration),
			end:          c.Config.Frames(p.EndDuration),
		}
	}
	return plans, nil
}

// atPhoto attaches the 1-based photo number to a configuration error.
func atPhoto(err error, i int) error {
	var ce *effects.ConfigError
	if errors.As(err, &ce) && ce.Photo == 0 {
		ce.Photo = i + 1
	}
	return err
}

// scheduler is the sequential state of one compilation.
type scheduler struct {
	*Compiler
	sink    scene.Sink
	catalog *effects.Catalog
	rep     *progress.Reporter
	alloc   *Allocator
	// release maps each bitmap to the frame after which nothing shows it.
	release map[*scene.Bitmap]int
	stats   *Stats

	frame   int
	prevEnd int
	shown   int
	nameID  int
}

func (sc *scheduler) run(plans []plan) error {
	handler := sc.Config.EventHandler
	if handler != "" {
		sc.sink.Action(0, scene.Action{Handler: handler, Event: "showBegin", Arg: strconv.Itoa(len(plans))})
	}

	portion := 1 / float64(len(plans))
	for _, p := range plans {
		if err := sc.rep.Check(); err != nil {
			return err
		}
		sc.rep.Push(portion)
		err := sc.photo(p)
		sc.rep.Pop()
		if err != nil {
			return err
		}
	}
	sc.frame += sc.prevEnd

	bitmaps := make([]*scene.Bitmap, 0, len(sc.release))
	for b := range sc.release {
		bitmaps = append(bitmaps, b)
	}
	sort.Slice(bitmaps, func(i, j int) bool { return bitmaps[i].ID < bitmaps[j].ID })
	for _, b := range bitmaps {
		sc.sink.Free(sc.release[b], b)
	}

	if handler != "" {
		sc.sink.Action(sc.frame, scene.Action{Handler: handler, Event: "showEnd"})
	}
	sc.stats.Frames = sc.frame
	return nil
}

func (sc *scheduler) photo(p plan) error {
	// the begin transition finishes no earlier than the previous end
	if p.begin < sc.prevEnd {
		sc.frame += sc.prevEnd - p.begin
	}
	sc.prevEnd = p.end

	total := p.begin + p.effectFrames + p.end
	if total == 0 {
		sc.Logger.Debug("photo has no duration, skipped", "photo", p.index+1)
		sc.stats.Skipped++
		return nil
	}

	slot := sc.alloc.Slot()
	clip, last, err := sc.effectClip(p, total)
	if err != nil {
		return err
	}

	sc.nameID = (sc.nameID + 1) % 3
	inst, err := sc.catalog.ApplyBegin(p.photo.Begin(), sc.frame, p.begin, slot, clip)
	if err != nil {
		return atPhoto(err, p.index)
	}
	inst.Name = fmt.Sprintf("effect%d", sc.nameID)

	if handler := sc.Config.EventHandler; handler != "" {
		sc.sink.Action(sc.frame, scene.Action{
			Handler: handler,
			Event:   fmt.Sprintf("photo%d", sc.shown),
			Arg:     p.photo.EventArg,
		})
	}
	sc.shown++

	sc.frame += p.begin + p.effectFrames
	if err := sc.catalog.ApplyEnd(p.photo.End(), sc.frame, p.end, slot); err != nil {
		return atPhoto(err, p.index)
	}
	if last != nil && sc.release[last] < sc.frame+p.end {
		sc.release[last] = sc.frame + p.end
	}

	sc.alloc.Advance(p.photo.NextAbove())
	sc.stats.Photos++
	sc.Logger.Info("photo compiled",
		"photo", p.index+1,
		"begin", p.photo.Begin(),
		"effect", effects.Describe(p.photo.EffectName(), effects.Params{Keyframes: p.photo.Keyframes, Direction: p.photo.Direction}),
		"end", p.photo.End(),
		"frames", total,
		"depth", slot.Content,
	)
	return nil
}

// effectClip builds the photo's nested clip with its motion path. It
// returns the bitmap the clip shows last, which must outlive the end
// transition.
func (sc *scheduler) effectClip(p plan, total int) (*scene.Clip, *scene.Bitmap, error) {
	stage := sc.sink.Stage()
	stageSize := keyframe.Size{W: float64(sc.Config.Width), H: float64(sc.Config.Height)}

	ph := sc.Cache.Get(p.ref)
	var (
		shape *scene.Shape
		size  keyframe.Size
	)
	if ph.Err != nil {
		sc.Logger.Warn("photo replaced by placeholder", "photo", p.index+1, "path", p.ref.Path, "err", ph.Err)
		sc.stats.ResourceErrors++
		shape = sc.Library.ErrorShape(stage)
		size = keyframe.Size{W: stageSize.W / p.scale, H: stageSize.H / p.scale}
	} else {
		shape = scene.CenteredBitmapShape("photo", ph.Bitmap)
		b := ph.Image.Bounds()
		size = keyframe.Size{W: float64(b.Dx()) / p.scale, H: float64(b.Dy()) / p.scale}
	}

	kfs, err := p.effect.Keyframes(effects.Params{
		Keyframes:  p.photo.Keyframes,
		Direction:  p.photo.Direction,
		Photo:      size,
		Stage:      stageSize,
		ImageScale: p.scale,
	})
	if err != nil {
		return nil, nil, atPhoto(&effects.ConfigError{Kind: "effect", Name: p.photo.EffectName(), Err: err}, p.index)
	}
	path := motion.Resolve(kfs, total)

	if sc.highQualityFor(p, path, ph) {
		tl, last, err := sc.highQuality(p, path, ph, shape, total)
		if err == nil {
			sc.stats.HighQuality++
			return &scene.Clip{Name: "effect", Timeline: tl}, last, nil
		}
		if errors.Is(err, progress.ErrCanceled) {
			return nil, nil, err
		}
		sc.Logger.Warn("high quality failed, using standard", "photo", p.index+1, "err", err)
	}

	tl := scene.NewTimeline(stage)
	content := tl.Place(0, 1, scene.Instance{Def: shape})
	if err := motion.Run(renderer.NewStandard(tl, 1, content), 0, path, geom.Identity(), scene.TwipsPerPixel); err != nil {
		return nil, nil, err
	}
	tl.Action(total-1, scene.Action{Stop: true})
	return &scene.Clip{Name: "effect", Timeline: tl}, shape.Bitmap, nil
}

// highQualityFor reports whether the photo is rasterized per frame. Frames
// only go through a store that keeps pixels out of memory, and vector
// content keeps its own resolution.
func (sc *scheduler) highQualityFor(p plan, path motion.Path, ph *source.Photo) bool {
	return sc.Config.HighQuality && sc.Store != nil &&
		path.HighQuality && !p.ref.Vector && ph.Err == nil
}

func (sc *scheduler) highQuality(p plan, path motion.Path, ph *source.Photo, shape *scene.Shape, total int) (*scene.Timeline, *scene.Bitmap, error) {
	stage := sc.sink.Stage()

	tl := scene.NewTimeline(stage)
	content := tl.Place(0, 1, scene.Instance{Def: shape})
	hq := renderer.NewHighQuality(renderer.HighQualityOptions{
		Sink:        tl,
		Depth:       1,
		Initial:     content,
		Photo:       ph.Image,
		StageWidth:  sc.Config.Width,
		StageHeight: sc.Config.Height,
		Store:       sc.Store,
		Progress:    sc.rep,
		Start:       0,
		Total:       total,
		ErrorShape:  sc.Library.ErrorShape(stage),
		Logger:      sc.Logger.With("photo", p.index+1),
	})
	if err := motion.Run(hq, 0, path, geom.Identity(), 1); err != nil {
		hq.Close()
		return nil, nil, err
	}
	tl.Action(total-1, scene.Action{Stop: true})
	return tl, hq.Last(), nil
}
