package engine

import "github.com/ivlev/photoshow/internal/scene"

// Allocator hands out depth slots from a range reserved in the sink.
// Photos layered above the previous one take the slot above it, photos
// layered below take the slot below. When the range runs out it grows by
// a whole chunk, which retags everything already scheduled past the grow
// point.
type Allocator struct {
	sink  scene.Sink
	chunk int

	// reserved depths are [min, max)
	min, max int
	cur      int
	grown    int
}

func NewAllocator(sink scene.Sink, base, chunk int) *Allocator {
	sink.ReserveLayers(base, chunk)
	cur := base + chunk/2
	cur -= cur % 2
	return &Allocator{sink: sink, chunk: chunk, min: base, max: base + chunk, cur: cur}
}

// Slot returns the depths of the current photo.
func (a *Allocator) Slot() scene.Slot {
	return scene.Slot{Mask: a.cur, Content: a.cur + 1}
}

// Advance moves to the next photo's slot.
func (a *Allocator) Advance(above bool) {
	if above {
		if a.cur+3 >= a.max {
			a.Grow(true)
		}
		a.cur += 2
		return
	}
	if a.cur-2 < a.min {
		a.Grow(false)
	}
	a.cur -= 2
}

// Grow reserves another chunk at the top or the bottom of the range.
// Growing at the bottom shifts every placed depth up by a chunk.
func (a *Allocator) Grow(above bool) {
	if above {
		a.sink.ReserveLayers(a.max, a.chunk)
	} else {
		a.sink.ReserveLayers(a.min, a.chunk)
		a.cur += a.chunk
	}
	a.max += a.chunk
	a.grown++
}

// Range returns the reserved depths as [min, max).
func (a *Allocator) Range() (int, int) {
	return a.min, a.max
}

// Grown returns how many times the range was extended.
func (a *Allocator) Grown() int {
	return a.grown
}
