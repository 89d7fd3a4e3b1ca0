package source

import (
	"context"
	"image"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/photoshow/internal/scene"
)

// Photo is a decoded photo. Err is set when the file could not be used;
// the caller substitutes placeholder content.
type Photo struct {
	Image  *image.RGBA
	Bitmap *scene.Bitmap
	Err    error
}

type cacheEntry struct {
	once  sync.Once
	photo Photo
}

// Cache decodes every distinct photo once and shares its bitmap between
// the slides that reuse it.
type Cache struct {
	stageW, stageH int
	logger         *slog.Logger

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func NewCache(stageW, stageH int, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		stageW:  stageW,
		stageH:  stageH,
		logger:  logger,
		entries: make(map[string]*cacheEntry),
	}
}

func (c *Cache) entry(key string) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	return e
}

// Get returns the photo for ref, decoding it on first use.
func (c *Cache) Get(ref Ref) *Photo {
	e := c.entry(ref.Key())
	e.once.Do(func() {
		img, err := Load(ref, c.stageW, c.stageH)
		if err != nil {
			c.logger.Warn("photo unavailable", "path", ref.Path, "err", err)
			e.photo.Err = err
			return
		}
		e.photo.Image = img
		e.photo.Bitmap = scene.NewBitmap(img, ref.Path)
	})
	return &e.photo
}

// Len returns the number of distinct photos seen.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Prefetch decodes refs on up to workers goroutines. Decode failures are
// kept in the cache; only cancellation is returned.
func (c *Cache) Prefetch(ctx context.Context, refs []Ref, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, ref := range refs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c.Get(ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
