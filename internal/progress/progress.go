// Package progress reports nested fractional progress and carries the
// cancellation signal of a compilation.
package progress

import (
	"context"
	"errors"
	"sync"
)

// ErrCanceled unwinds a compilation the caller asked to stop. The partial
// output must be discarded.
var ErrCanceled = errors.New("compilation canceled")

// Listener receives the overall fraction in 0..1. It is called
// synchronously and must not block.
type Listener func(fraction float64)

type span struct {
	base, size float64
}

// Reporter maps progress of nested tasks onto the overall 0..1 range.
// Each Push narrows the range to a portion of the current one.
type Reporter struct {
	ctx      context.Context
	listener Listener

	mu    sync.Mutex
	stack []span
	value float64
}

func New(ctx context.Context, l Listener) *Reporter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Reporter{
		ctx:      ctx,
		listener: l,
		stack:    []span{{base: 0, size: 1}},
	}
}

// Push starts a subtask owning portion of the current task's remaining
// range.
func (r *Reporter) Push(portion float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	top := r.stack[len(r.stack)-1]
	r.stack = append(r.stack, span{base: r.value, size: top.size * portion})
}

// Pop completes the current subtask.
func (r *Reporter) Pop() {
	r.mu.Lock()
	if len(r.stack) == 1 {
		r.mu.Unlock()
		return
	}
	top := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	v := r.set(top.base + top.size)
	r.mu.Unlock()
	r.notify(v)
}

// Update reports fraction of the current subtask.
func (r *Reporter) Update(fraction float64) {
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	r.mu.Lock()
	top := r.stack[len(r.stack)-1]
	v := r.set(top.base + fraction*top.size)
	r.mu.Unlock()
	r.notify(v)
}

// set keeps the value monotonic.
func (r *Reporter) set(v float64) float64 {
	if v > r.value {
		r.value = v
	}
	return r.value
}

func (r *Reporter) notify(v float64) {
	if r.listener != nil {
		r.listener(v)
	}
}

// Value returns the overall fraction reached so far.
func (r *Reporter) Value() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

func (r *Reporter) Canceled() bool {
	return r.ctx.Err() != nil
}

// Check returns ErrCanceled once the context is done.
func (r *Reporter) Check() error {
	if r.Canceled() {
		return ErrCanceled
	}
	return nil
}
