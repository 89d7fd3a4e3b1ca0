package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortions(t *testing.T) {
	var seen []float64
	r := New(context.Background(), func(f float64) { seen = append(seen, f) })

	// two photos, each half of the show
	r.Push(0.5)
	r.Update(0.5)
	assert.InDelta(t, 0.25, r.Value(), 1e-9)
	r.Pop()
	assert.InDelta(t, 0.5, r.Value(), 1e-9)

	r.Push(0.5)
	r.Push(0.5)
	r.Update(1)
	assert.InDelta(t, 0.75, r.Value(), 1e-9)
	r.Pop()
	r.Pop()
	assert.InDelta(t, 1, r.Value(), 1e-9)

	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1], "progress must not go backwards")
	}
}

func TestUpdateClampsAndStaysMonotonic(t *testing.T) {
	r := New(context.Background(), nil)
	r.Update(0.8)
	r.Update(0.2)
	assert.InDelta(t, 0.8, r.Value(), 1e-9)
	r.Update(7)
	assert.InDelta(t, 1, r.Value(), 1e-9)
	r.Pop() // root cannot be popped
	assert.InDelta(t, 1, r.Value(), 1e-9)
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(ctx, nil)
	assert.False(t, r.Canceled())
	assert.NoError(t, r.Check())

	cancel()
	assert.True(t, r.Canceled())
	assert.True(t, errors.Is(r.Check(), ErrCanceled))
}
