package system

import (
	"image"
	"sync"
)

// ImagePool переиспользует кадровые буферы *image.RGBA одного размера,
// чтобы покадровая растеризация не нагружала GC.
type ImagePool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = NewImagePool()

func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Rectangle]*sync.Pool)}
}

// GetImage возвращает буфер из общего пула. Содержимое не очищено.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// GetClearImage возвращает буфер из общего пула, залитый прозрачным.
func GetClearImage(rect image.Rectangle) *image.RGBA {
	img := globalPool.Get(rect)
	clear(img.Pix)
	return img
}

// PutImage возвращает буфер в общий пул.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

// Get returns a buffer with exactly rect as its bounds.
func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	p.mu.RLock()
	pool := p.pools[rect]
	p.mu.RUnlock()

	if pool == nil {
		p.mu.Lock()
		if pool = p.pools[rect]; pool == nil {
			pool = &sync.Pool{New: func() any { return image.NewRGBA(rect) }}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}
	return pool.Get().(*image.RGBA)
}

// Put accepts only buffers whose bounds the pool has handed out before.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool := p.pools[img.Rect]
	p.mu.RUnlock()
	if pool != nil {
		pool.Put(img)
	}
}
