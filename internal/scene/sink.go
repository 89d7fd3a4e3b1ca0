package scene

import "github.com/ivlev/photoshow/internal/geom"

// Instance is a placed reference to a Def. The fields describe the state
// that takes effect on the frame of the op carrying it.
type Instance struct {
	Def       Def
	Matrix    geom.Affine
	Color     *geom.ColorTransform
	Ratio     int
	ClipDepth int
	Name      string
}

// Slot is the pair of depths owned by one photo: the mask draws directly
// below the content it clips.
type Slot struct {
	Mask    int
	Content int
}

// Action is a frame script: either a stop or an event call into the
// show's handler.
type Action struct {
	Stop    bool   `yaml:"stop,omitempty"`
	Handler string `yaml:"handler,omitempty"`
	Event   string `yaml:"event,omitempty"`
	Arg     string `yaml:"arg,omitempty"`
}

// Sink receives the compiled timeline.
type Sink interface {
	// Place puts a new instance at depth. The returned pointer may be
	// adjusted until the compilation finishes.
	Place(frame, depth int, inst Instance) *Instance
	// Modify moves the instance at depth and optionally recolors it.
	Modify(frame, depth int, m geom.Affine, c *geom.ColorTransform) *Instance
	Remove(frame, depth int)
	Free(frame int, b *Bitmap)
	Action(frame int, a Action)
	// ReserveLayers shifts every depth >= depth up by n, leaving
	// [depth, depth+n) free.
	ReserveLayers(depth, n int)
	Stage() geom.Rect
}
