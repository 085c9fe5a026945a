package layout

import (
	"log/slog"

	"github.com/ByLCY/cartotext/style"
	"github.com/ByLCY/cartotext/symbology"
	"golang.org/x/text/unicode/norm"
	"honnef.co/go/curve"
)

const (
	borderWidth = 1.0
	haloWidth   = 2.0
)

// PlacedLabel records where a label ended up on the page.
type PlacedLabel struct {
	FID      int         `json:"fid"`
	Category string      `json:"category,omitempty"`
	Text     string      `json:"text"`
	Anchor   curve.Point `json:"anchor"`
	Bounds   curve.Rect  `json:"bounds"`
	Hidden   bool        `json:"hidden,omitempty"` // 因避让被隐藏
	Skipped  int         `json:"skipped,omitempty"`
}

type labelShape struct {
	frame  curve.BezPath // 背景框（含边距），已旋转
	bounds curve.Rect
	glyphs []GlyphPlacement
	skip   int
}

// DrawLabel 在 anchor 处按符号器绘制一个标注，angle 为顺时针角度。
// 绘制顺序：阴影、背景、边框、光晕、文字。
func DrawLabel(ts Typesetter, text string, anchor curve.Point, angle float64, s *symbology.LabelSymbolizer, sink Sink) PlacedLabel {
	placed := PlacedLabel{Text: text, Anchor: anchor, Bounds: pointRect(anchor)}
	shape, ok := placeLabel(ts, text, anchor, angle, s)
	if !ok {
		return placed
	}
	placed.Bounds = shape.bounds
	placed.Skipped = shape.skip
	paintLabel(shape, s, sink)
	return placed
}

// DrawLabels 依次绘制 labels。开启避让的标注若与已绘制的标注重叠则被隐藏。
func DrawLabels(ts Typesetter, labels []symbology.Label, sink Sink) []PlacedLabel {
	out := make([]PlacedLabel, 0, len(labels))
	var taken []curve.Rect
	for _, l := range labels {
		if l.Category == nil || l.Category.Symbolizer == nil {
			continue
		}
		s := l.Category.Symbolizer
		placed := PlacedLabel{FID: l.FID, Category: l.Category.Name, Text: l.Text, Anchor: l.Anchor, Bounds: pointRect(l.Anchor)}
		shape, ok := placeLabel(ts, l.Text, l.Anchor, l.Angle, s)
		if !ok {
			out = append(out, placed)
			continue
		}
		placed.Bounds = shape.bounds
		placed.Skipped = shape.skip
		if s.PreventCollisions && collides(shape.bounds, taken) {
			placed.Hidden = true
			Logger().Debug("layout: 标注与已有标注重叠，已隐藏", slog.Int("fid", l.FID), slog.String("text", l.Text))
			out = append(out, placed)
			continue
		}
		taken = append(taken, shape.bounds)
		paintLabel(shape, s, sink)
		out = append(out, placed)
	}
	return out
}

func placeLabel(ts Typesetter, text string, anchor curve.Point, angle float64, s *symbology.LabelSymbolizer) (labelShape, bool) {
	text = norm.NFC.String(text)
	if text == "" || ts == nil || s == nil {
		return labelShape{}, false
	}
	surface, err := ts.Surface(s.Font())
	if err != nil {
		Logger().Warn("layout: 无法创建测量表面", slog.String("font", s.Font().String()), slog.Any("error", err))
		return labelShape{}, false
	}
	defer surface.Close()

	w, h, err := surface.Measure(text)
	if err != nil {
		Logger().Debug("layout: 测量标注失败", slog.String("text", text), slog.Any("error", err))
		return labelShape{}, false
	}
	origin := curve.Pt(
		anchor.X+side(s.Orientation.Horizontal())*w+s.OffsetX,
		anchor.Y+side(s.Orientation.Vertical())*h+s.OffsetY,
	)
	box := curve.NewRectFromOrigin(origin, curve.Sz(w, h))
	frame := curve.Rect{
		X0: box.X0 - s.Margin.Left,
		Y0: box.Y0 - s.Margin.Top,
		X1: box.X1 + s.Margin.Right,
		Y1: box.Y1 + s.Margin.Bottom,
	}

	rot := curve.Identity
	if angle != 0 {
		rot = curve.RotateAbout(Radians(angle), anchor)
	}
	glyphs, skipped := placeLines(surface, text, box, style.ContentAlignmentOf(style.Near, s.Alignment), 0)
	for i := range glyphs {
		g := &glyphs[i]
		g.Anchor = g.Anchor.Transform(rot)
		g.Angle = Radians(angle)
		if len(g.Outline) > 0 {
			g.Outline = g.Outline.Transform(rot)
			g.Bounds = g.Outline.BoundingBox()
		}
	}
	return labelShape{
		frame:  frame.Path(0.1).Transform(rot),
		bounds: rot.TransformRectBoundingBox(frame),
		glyphs: glyphs,
		skip:   skipped,
	}, true
}

// side returns where the box starts relative to the anchor, as a fraction of
// its size: Near puts the box before the anchor, Far after it.
func side(a style.StringAlignment) float64 {
	switch a {
	case style.Near:
		return -1
	case style.Center:
		return -0.5
	default:
		return 0
	}
}

func paintLabel(l labelShape, s *symbology.LabelSymbolizer, sink Sink) {
	if sink == nil {
		return
	}
	if s.DropShadowEnabled {
		shift := curve.Translate(s.DropShadowPixelOffset)
		if s.BackColorEnabled {
			sink.FillPath(l.frame.Transform(shift), s.DropShadowColor)
		} else {
			for _, g := range l.glyphs {
				if len(g.Outline) > 0 {
					sink.FillPath(g.Outline.Transform(shift), s.DropShadowColor)
				}
			}
		}
	}
	if s.BackColorEnabled {
		sink.FillPath(l.frame, s.BackColor)
	}
	if s.BorderVisible {
		sink.StrokePath(l.frame, s.BorderColor, borderWidth)
	}
	if s.HaloEnabled {
		for _, g := range l.glyphs {
			if len(g.Outline) > 0 {
				sink.StrokePath(g.Outline, s.HaloColor, haloWidth)
			}
		}
	}
	fillGlyphs(sink, l.glyphs, s.FontColor)
}

func collides(r curve.Rect, taken []curve.Rect) bool {
	for _, t := range taken {
		if r.X0 < t.X1 && t.X0 < r.X1 && r.Y0 < t.Y1 && t.Y0 < r.Y1 {
			return true
		}
	}
	return false
}
