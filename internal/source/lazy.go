package source

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/ivlev/photoshow/internal/scene"
	"github.com/ivlev/photoshow/internal/system"
)

// LazyStore keeps rasterized frames as PNG files in a private temp
// directory instead of in memory. The consumer of the timeline reads them
// back when it needs the pixels.
type LazyStore struct {
	dir string
	enc png.Encoder

	mu   sync.Mutex
	live map[int64]string
}

func NewLazyStore(parent string) (*LazyStore, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return nil, err
		}
	}
	dir, err := os.MkdirTemp(parent, "photoshow_")
	if err != nil {
		return nil, fmt.Errorf("lazy store: %w", err)
	}
	return &LazyStore{
		dir:  dir,
		enc:  png.Encoder{CompressionLevel: png.BestSpeed},
		live: make(map[int64]string),
	}, nil
}

func (s *LazyStore) Dir() string {
	return s.dir
}

// Store encodes img to disk and returns its buffer to the frame pool.
func (s *LazyStore) Store(img *image.RGBA) (*scene.Bitmap, error) {
	b := scene.NewBitmap(nil, "")
	b.Width, b.Height = img.Rect.Dx(), img.Rect.Dy()
	b.Path = filepath.Join(s.dir, fmt.Sprintf("frame_%06d.png", b.ID))

	f, err := os.Create(b.Path)
	if err != nil {
		return nil, err
	}
	err = s.enc.Encode(f, img)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(b.Path)
		return nil, fmt.Errorf("encode %s: %w", b.Path, err)
	}
	system.PutImage(img)

	s.mu.Lock()
	s.live[b.ID] = b.Path
	s.mu.Unlock()
	return b, nil
}

func (s *LazyStore) Release(b *scene.Bitmap) error {
	s.mu.Lock()
	path, ok := s.live[b.ID]
	delete(s.live, b.ID)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return os.Remove(path)
}

// Len returns the number of frames on disk.
func (s *LazyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Cleanup deletes every stored frame. Call it when the timeline is
// discarded.
func (s *LazyStore) Cleanup() error {
	s.mu.Lock()
	s.live = make(map[int64]string)
	s.mu.Unlock()
	return os.RemoveAll(s.dir)
}
