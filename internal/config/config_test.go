package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero width", func(c *Config) { c.Width = 0 }, true},
		{"zero fps", func(c *Config) { c.FPS = 0 }, true},
		{"tiny chunk", func(c *Config) { c.ReserveChunk = 2 }, true},
		{"depth zero", func(c *Config) { c.BaseDepth = 0 }, true},
		{"no workers", func(c *Config) { c.Workers = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			err := c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFrames(t *testing.T) {
	c := Default()
	c.FPS = 12
	assert.Equal(t, 12, c.Frames(1))
	assert.Equal(t, 6, c.Frames(0.5))
	assert.Equal(t, 3, c.Frames(0.3), "rounded down")
	assert.Zero(t, c.Frames(0))
	assert.Zero(t, c.Frames(-1))

	c.FPS = 29.97
	assert.Equal(t, 29, c.Frames(1))
}

func TestStage(t *testing.T) {
	c := Default()
	c.Width, c.Height = 640, 480
	r := c.Stage()
	assert.Equal(t, -6400.0, r.X)
	assert.Equal(t, -4800.0, r.Y)
	assert.Equal(t, 12800.0, r.W)
	assert.Equal(t, 9600.0, r.H)
}
