package scene

import (
	"github.com/ivlev/photoshow/internal/geom"
)

type OpKind int

const (
	OpPlace OpKind = iota
	OpModify
	OpRemove
	OpFree
	OpAction
)

func (k OpKind) String() string {
	switch k {
	case OpPlace:
		return "place"
	case OpModify:
		return "modify"
	case OpRemove:
		return "remove"
	case OpFree:
		return "free"
	case OpAction:
		return "action"
	}
	return "unknown"
}

// Op is one scheduled change on a frame.
type Op struct {
	Kind     OpKind
	Depth    int
	Instance *Instance
	Bitmap   *Bitmap
	Action   *Action
}

// Timeline is an in-memory Sink: a list of frames, each holding the ops
// that take effect on it in issue order.
type Timeline struct {
	stage  geom.Rect
	frames [][]*Op
}

func NewTimeline(stage geom.Rect) *Timeline {
	return &Timeline{stage: stage}
}

func (t *Timeline) Stage() geom.Rect {
	return t.stage
}

// Len returns the number of frames that carry at least one op, counting
// from frame 0.
func (t *Timeline) Len() int {
	return len(t.frames)
}

// Ops returns the ops of a frame.
func (t *Timeline) Ops(frame int) []*Op {
	if frame < 0 || frame >= len(t.frames) {
		return nil
	}
	return t.frames[frame]
}

func (t *Timeline) add(frame int, op *Op) {
	if frame < 0 {
		frame = 0
	}
	for len(t.frames) <= frame {
		t.frames = append(t.frames, nil)
	}
	t.frames[frame] = append(t.frames[frame], op)
}

func (t *Timeline) Place(frame, depth int, inst Instance) *Instance {
	op := &Op{Kind: OpPlace, Depth: depth, Instance: &inst}
	t.add(frame, op)
	return op.Instance
}

func (t *Timeline) Modify(frame, depth int, m geom.Affine, c *geom.ColorTransform) *Instance {
	op := &Op{Kind: OpModify, Depth: depth, Instance: &Instance{Matrix: m, Color: c, Ratio: NoRatio}}
	t.add(frame, op)
	return op.Instance
}

func (t *Timeline) Remove(frame, depth int) {
	t.add(frame, &Op{Kind: OpRemove, Depth: depth})
}

func (t *Timeline) Free(frame int, b *Bitmap) {
	t.add(frame, &Op{Kind: OpFree, Bitmap: b})
}

func (t *Timeline) Action(frame int, a Action) {
	t.add(frame, &Op{Kind: OpAction, Action: &a})
}

func (t *Timeline) ReserveLayers(depth, n int) {
	for _, ops := range t.frames {
		for _, op := range ops {
			switch op.Kind {
			case OpPlace, OpModify, OpRemove:
				if op.Depth >= depth {
					op.Depth += n
				}
			}
			if op.Instance != nil && op.Instance.ClipDepth > 0 && op.Instance.ClipDepth >= depth {
				op.Instance.ClipDepth += n
			}
		}
	}
}

// State replays the timeline up to and including frame and returns the
// display list keyed by depth.
func (t *Timeline) State(frame int) map[int]Instance {
	state := make(map[int]Instance)
	for f := 0; f <= frame && f < len(t.frames); f++ {
		for _, op := range t.frames[f] {
			switch op.Kind {
			case OpPlace:
				state[op.Depth] = *op.Instance
			case OpModify:
				cur, ok := state[op.Depth]
				if !ok {
					continue
				}
				cur.Matrix = op.Instance.Matrix
				if op.Instance.Color != nil {
					cur.Color = op.Instance.Color
				}
				if op.Instance.Ratio != NoRatio {
					cur.Ratio = op.Instance.Ratio
				}
				state[op.Depth] = cur
			case OpRemove:
				delete(state, op.Depth)
			}
		}
	}
	return state
}

// Find returns the instance shown at depth on frame.
func (t *Timeline) Find(frame, depth int) (Instance, bool) {
	inst, ok := t.State(frame)[depth]
	return inst, ok
}

// Count returns how many ops of kind the timeline holds.
func (t *Timeline) Count(kind OpKind) int {
	n := 0
	for _, ops := range t.frames {
		for _, op := range ops {
			if op.Kind == kind {
				n++
			}
		}
	}
	return n
}
