package layout

import (
	"github.com/ByLCY/cartotext/style"
	"honnef.co/go/curve"
)

// Recorder is a Sink that keeps every draw call as a Shape so a page can be
// rendered later by any backend.
type Recorder struct {
	Shapes []Shape
}

var _ Sink = (*Recorder)(nil)

func (r *Recorder) FillPath(p curve.BezPath, c style.Color) {
	if len(p) == 0 || c.IsTransparent() {
		return
	}
	r.Shapes = append(r.Shapes, Shape{Kind: ShapeFill, Path: p, Color: c})
}

func (r *Recorder) StrokePath(p curve.BezPath, c style.Color, width float64) {
	if len(p) == 0 || c.IsTransparent() || width <= 0 {
		return
	}
	r.Shapes = append(r.Shapes, Shape{Kind: ShapeStroke, Path: p, Color: c, Width: width})
}

func (r *Recorder) StrokeRect(rect curve.Rect, c style.Color, width float64) {
	r.StrokePath(rect.Path(0.1), c, width)
}

// FillRect is a convenience for backgrounds and shadows.
func (r *Recorder) FillRect(rect curve.Rect, c style.Color) {
	r.FillPath(rect.Path(0.1), c)
}

// Reset drops the recorded shapes but keeps the backing array.
func (r *Recorder) Reset() { r.Shapes = r.Shapes[:0] }
