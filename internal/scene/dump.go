package scene

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/photoshow/internal/geom"
)

type timelineDoc struct {
	Stage  geom.Rect  `yaml:"stage"`
	Frames []frameDoc `yaml:"frames"`
}

type frameDoc struct {
	Frame int     `yaml:"frame"`
	Ops   []opDoc `yaml:"ops"`
}

type opDoc struct {
	Op        string               `yaml:"op"`
	Depth     int                  `yaml:"depth,omitempty"`
	Def       string               `yaml:"def,omitempty"`
	Name      string               `yaml:"name,omitempty"`
	Matrix    []float64            `yaml:"matrix,omitempty,flow"`
	Color     *geom.ColorTransform `yaml:"color,omitempty,flow"`
	Ratio     *int                 `yaml:"ratio,omitempty"`
	ClipDepth int                  `yaml:"clip_depth,omitempty"`
	Bitmap    string               `yaml:"bitmap,omitempty"`
	Action    *Action              `yaml:"action,omitempty,flow"`
	Clip      *timelineDoc         `yaml:"clip,omitempty"`
}

func (t *Timeline) doc() *timelineDoc {
	d := &timelineDoc{Stage: t.stage}
	for f, ops := range t.frames {
		if len(ops) == 0 {
			continue
		}
		fd := frameDoc{Frame: f}
		for _, op := range ops {
			fd.Ops = append(fd.Ops, opToDoc(op))
		}
		d.Frames = append(d.Frames, fd)
	}
	return d
}

func opToDoc(op *Op) opDoc {
	od := opDoc{Op: op.Kind.String()}
	switch op.Kind {
	case OpPlace, OpModify, OpRemove:
		od.Depth = op.Depth
	case OpFree:
		od.Bitmap = bitmapRef(op.Bitmap)
	case OpAction:
		od.Action = op.Action
	}
	if inst := op.Instance; inst != nil {
		m := inst.Matrix
		od.Matrix = []float64{m.A, m.B, m.C, m.D, m.E, m.F}
		od.Color = inst.Color
		od.ClipDepth = inst.ClipDepth
		od.Name = inst.Name
		if _, morph := inst.Def.(*Morph); morph || (op.Kind == OpModify && inst.Ratio != NoRatio) {
			r := inst.Ratio
			od.Ratio = &r
		}
		if inst.Def != nil {
			od.Def = inst.Def.DefName()
			switch def := inst.Def.(type) {
			case *Clip:
				od.Clip = def.Timeline.doc()
			case *Shape:
				if def.Bitmap != nil {
					od.Bitmap = bitmapRef(def.Bitmap)
				}
			}
		}
	}
	return od
}

func bitmapRef(b *Bitmap) string {
	if b.Path != "" {
		return b.Path
	}
	return fmt.Sprintf("#%d", b.ID)
}

// WriteYAML dumps the timeline, nested clips included.
func (t *Timeline) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t.doc()); err != nil {
		return err
	}
	return enc.Close()
}
