package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/photoshow/internal/geom"
	"github.com/ivlev/photoshow/internal/scene"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	ShowPath     string
	OutputPath   string
	Width        int
	Height       int
	FPS          float64
	HighQuality  bool
	LazyDir      string // Where high-quality frames are written; empty uses the system temp dir
	Workers      int
	ReserveChunk int // Depth layers reserved at a time
	BaseDepth    int
	LibraryPath  string
	EventHandler string
	ShowStats    bool
	BuildVersion string
}

// Default returns the settings used when no flag overrides them.
func Default() *Config {
	return &Config{
		Width:        1280,
		Height:       720,
		FPS:          30,
		HighQuality:  true,
		Workers:      4,
		ReserveChunk: 200,
		BaseDepth:    1,
	}
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: размер кадра %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.FPS <= 0 || math.IsInf(c.FPS, 0) || math.IsNaN(c.FPS) {
		return fmt.Errorf("%w: FPS %g", ErrInvalidConfig, c.FPS)
	}
	if c.ReserveChunk < 4 {
		return fmt.Errorf("%w: резерв слоев %d меньше 4", ErrInvalidConfig, c.ReserveChunk)
	}
	if c.BaseDepth < 1 {
		return fmt.Errorf("%w: начальная глубина %d", ErrInvalidConfig, c.BaseDepth)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: потоков %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// Frames converts seconds to whole frames, rounding down.
func (c *Config) Frames(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Floor(seconds*c.FPS + 1e-9))
}

// Stage is the visible rectangle in twips, centered on the origin.
func (c *Config) Stage() geom.Rect {
	return geom.Centered(float64(c.Width*scene.TwipsPerPixel), float64(c.Height*scene.TwipsPerPixel))
}
