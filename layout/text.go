package layout

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ByLCY/cartotext/style"
	"golang.org/x/text/unicode/norm"
	"honnef.co/go/curve"
)

// TextSpec 描述一次排版请求。Radius 为 0 时按直线排版并以 Rotation 旋转，
// 否则沿半径为 Radius 的圆弧排版，文字中心落在 StartAngle 方向上。
type TextSpec struct {
	Text       string         `json:"text"`
	Font       style.FontSpec `json:"font"`
	Rotation   float64        `json:"rotation"`   // degrees, straight text only
	Radius     float64        `json:"radius"`     // points
	StartAngle float64        `json:"startAngle"` // degrees, 90 = north
	AutoSize   bool           `json:"autoSize"`
}

// Curved reports whether the text is bent onto a circle.
func (s TextSpec) Curved() bool { return s.Radius > 0 }

// GlyphPlacement is one positioned character. Outline and Bounds are in
// layout coordinates; both are empty when the glyph could not be built.
type GlyphPlacement struct {
	Index   int           `json:"index"`
	Rune    rune          `json:"rune"`
	Anchor  curve.Point   `json:"anchor"`
	Angle   float64       `json:"angle"` // radians, clockwise
	Advance float64       `json:"advance"`
	Bounds  curve.Rect    `json:"bounds"`
	Outline curve.BezPath `json:"-"`
}

// LayoutResult is the outcome of a layout pass.
type LayoutResult struct {
	Bounds curve.Rect       `json:"bounds"`
	Glyphs []GlyphPlacement `json:"glyphs,omitempty"`
	// ArcLength is the sum of the per-character advances; Fraction is
	// ArcLength over Circumference. Both stay zero for straight text.
	ArcLength     float64 `json:"arcLength,omitempty"`
	Circumference float64 `json:"circumference,omitempty"`
	Fraction      float64 `json:"fraction,omitempty"`
	Skipped       int     `json:"skipped,omitempty"`
}

// Layout computes the bounding rectangle of spec placed at center.
//
// For straight text center is the top-left offset of the unrotated text box;
// for curved text it is the centre of the circle. The call never fails:
// characters whose outline cannot be built are logged and left out.
func Layout(ts Typesetter, spec TextSpec, center curve.Point) LayoutResult {
	res := LayoutResult{Bounds: pointRect(center)}
	text := norm.NFC.String(spec.Text)
	if text == "" || ts == nil {
		return res
	}
	surface, err := ts.Surface(spec.Font)
	if err != nil {
		Logger().Warn("layout: 无法创建测量表面", slog.String("font", spec.Font.String()), slog.Any("error", err))
		return res
	}
	defer surface.Close()

	if spec.Curved() {
		return layoutArc(surface, []rune(text), center, spec.Radius, ArcAngle(spec.StartAngle))
	}
	return layoutStraight(surface, text, center, spec.Rotation)
}

// Draw lays spec out like Layout and emits one filled outline per glyph.
func Draw(ts Typesetter, spec TextSpec, center curve.Point, fill style.Color, sink Sink) LayoutResult {
	res := LayoutResult{Bounds: pointRect(center)}
	text := norm.NFC.String(spec.Text)
	if text == "" || ts == nil || sink == nil {
		return res
	}
	surface, err := ts.Surface(spec.Font)
	if err != nil {
		Logger().Warn("layout: 无法创建测量表面", slog.String("font", spec.Font.String()), slog.Any("error", err))
		return res
	}
	defer surface.Close()

	if spec.Curved() {
		res = layoutArc(surface, []rune(text), center, spec.Radius, ArcAngle(spec.StartAngle))
	} else {
		res = layoutStraight(surface, text, center, spec.Rotation)
		w, h, _ := surface.Measure(text)
		box := curve.NewRectFromOrigin(center, curve.Sz(w, h))
		res.Glyphs, res.Skipped = placeLines(surface, text, box, style.TopLeft, spec.Rotation)
	}
	fillGlyphs(sink, res.Glyphs, fill)
	return res
}

func fillGlyphs(sink Sink, glyphs []GlyphPlacement, fill style.Color) {
	for _, g := range glyphs {
		if len(g.Outline) == 0 {
			continue
		}
		sink.FillPath(g.Outline, fill)
	}
}

// layoutStraight measures the whole string once and returns the axis-aligned
// bounds of the measured box rotated about its own centre.
func layoutStraight(s Surface, text string, origin curve.Point, rotationDeg float64) LayoutResult {
	res := LayoutResult{Bounds: pointRect(origin)}
	w, h, err := s.Measure(text)
	if err != nil {
		Logger().Debug("layout: 测量文本失败", slog.String("text", text), slog.Any("error", err))
		return res
	}
	rect := curve.NewRectFromOrigin(origin, curve.Sz(w, h))
	res.Bounds = rotatedBounds(rect, rotationDeg)
	return res
}

func rotatedBounds(rect curve.Rect, rotationDeg float64) curve.Rect {
	if rotationDeg == 0 {
		return rect
	}
	return curve.RotateAbout(Radians(rotationDeg), rect.Center()).TransformRectBoundingBox(rect)
}

// layoutArc places runes clockwise along a circle of the given radius so that
// the first and last anchors sit symmetrically around theta.
func layoutArc(s Surface, runes []rune, center curve.Point, radius, theta float64) LayoutResult {
	res := LayoutResult{Bounds: pointRect(center)}
	if len(runes) == 0 {
		return res
	}
	widths := advances(s, runes)
	var total float64
	for _, w := range widths {
		total += w
	}
	circumference := 2 * math.Pi * radius
	res.ArcLength = total
	res.Circumference = circumference
	res.Fraction = total / circumference

	last := len(runes) - 1
	// 按首末锚点之间的弧长居中，而不是整段弧长，首末字形才关于 theta 对称。
	span := total - (widths[0]+widths[last])/2
	current := theta - math.Pi*span/circumference

	union := curve.Rect{}
	haveUnion := false
	res.Glyphs = make([]GlyphPlacement, 0, len(runes))
	for i, r := range runes {
		sin, cos := math.Sincos(current)
		g := GlyphPlacement{
			Index:   i,
			Rune:    r,
			Anchor:  curve.Pt(center.X+radius*sin, center.Y-radius*cos),
			Angle:   current,
			Advance: widths[i],
		}
		outline, err := glyphOutline(s, r)
		if err != nil {
			res.Skipped++
			Logger().Debug("layout: 字形构建失败，已跳过", slog.Int("index", i), slog.String("rune", string(r)), slog.Any("error", err))
		} else if len(outline) > 0 {
			local := outline.BoundingBox()
			// 先把字形基线中点移到原点，再旋转，最后平移到锚点。
			aff := curve.Translate(curve.Vec(g.Anchor.X, g.Anchor.Y)).
				PreRotate(current).
				PreTranslate(curve.Vec(-(local.X0+local.X1)/2, 0))
			g.Outline = outline.Transform(aff)
			g.Bounds = g.Outline.BoundingBox()
			if g.Bounds.Width() != 0 && g.Bounds.Height() != 0 {
				if haveUnion {
					union = union.Union(g.Bounds)
				} else {
					union = g.Bounds
					haveUnion = true
				}
			}
		}
		res.Glyphs = append(res.Glyphs, g)

		if i != last {
			gap := (widths[i] + widths[i+1]) / 2
			current += gap / circumference * 2 * math.Pi
		}
	}
	if haveUnion {
		res.Bounds = union
	}
	return res
}

// advances measures every character on its own; the space advance is
// measured once and reused.
func advances(s Surface, runes []rune) []float64 {
	space, err := s.Advance(' ')
	if err != nil {
		Logger().Debug("layout: 测量空格宽度失败", slog.Any("error", err))
		space = 0
	}
	out := make([]float64, len(runes))
	for i, r := range runes {
		if r == ' ' {
			out[i] = space
			continue
		}
		w, err := s.Advance(r)
		if err != nil {
			Logger().Debug("layout: 测量字符宽度失败", slog.String("rune", string(r)), slog.Any("error", err))
			continue
		}
		out[i] = w
	}
	return out
}

// glyphOutline isolates the outline service: a panic while building one
// glyph is turned into an error for that glyph only.
func glyphOutline(s Surface, r rune) (p curve.BezPath, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p, err = nil, fmt.Errorf("layout: 构建字形 %q 时发生异常: %v", r, rec)
		}
	}()
	return s.Outline(r)
}

// placeLines lays text out line by line inside box following align, then
// rotates every glyph about the box centre.
func placeLines(s Surface, text string, box curve.Rect, align style.ContentAlignment, rotationDeg float64) ([]GlyphPlacement, int) {
	metrics, err := s.Metrics()
	if err != nil {
		Logger().Debug("layout: 读取字体度量失败", slog.Any("error", err))
		return nil, 0
	}
	lines := splitLines(text)
	blockHeight := float64(len(lines)) * metrics.LineHeight
	top := box.Y0 + align.Vertical().Offset(box.Height(), blockHeight)
	rot := curve.Identity
	if rotationDeg != 0 {
		rot = curve.RotateAbout(Radians(rotationDeg), box.Center())
	}
	space, _ := s.Advance(' ')

	var (
		glyphs  []GlyphPlacement
		skipped int
		index   int
	)
	for li, line := range lines {
		runes := []rune(line)
		widths := make([]float64, len(runes))
		var lineWidth float64
		for i, r := range runes {
			if r == ' ' {
				widths[i] = space
			} else if w, err := s.Advance(r); err == nil {
				widths[i] = w
			}
			lineWidth += widths[i]
		}
		x := box.X0 + align.Horizontal().Offset(box.Width(), lineWidth)
		baseline := top + metrics.Ascent + float64(li)*metrics.LineHeight
		for i, r := range runes {
			pen := curve.Pt(x, baseline)
			g := GlyphPlacement{
				Index:   index,
				Rune:    r,
				Anchor:  pen.Transform(rot),
				Angle:   Radians(rotationDeg),
				Advance: widths[i],
			}
			outline, err := glyphOutline(s, r)
			if err != nil {
				skipped++
				Logger().Debug("layout: 字形构建失败，已跳过", slog.Int("index", index), slog.String("rune", string(r)), slog.Any("error", err))
			} else if len(outline) > 0 {
				g.Outline = outline.Transform(rot.Mul(curve.Translate(curve.Vec(pen.X, pen.Y))))
				g.Bounds = g.Outline.BoundingBox()
			}
			glyphs = append(glyphs, g)
			x += widths[i]
			index++
		}
	}
	return glyphs, skipped
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r", ""), "\n")
}

func pointRect(p curve.Point) curve.Rect {
	return curve.Rect{X0: p.X, Y0: p.Y, X1: p.X, Y1: p.Y}
}
