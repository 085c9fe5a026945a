package fonts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ByLCY/cartotext/layout"
	"github.com/ByLCY/cartotext/style"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"honnef.co/go/curve"
)

var errClosed = errors.New("fonts: surface already closed")

// surface 持有独立的 sfnt.Buffer，只供一次排版调用使用。
type surface struct {
	font    *sfnt.Font
	spec    style.FontSpec
	ppem    fixed.Int26_6
	buf     sfnt.Buffer
	metrics *layout.FontMetrics
	closed  bool
}

func newSurface(f *sfnt.Font, spec style.FontSpec) *surface {
	return &surface{font: f, spec: spec, ppem: fixed.Int26_6(spec.Size * 64)}
}

func toFloat(x fixed.Int26_6) float64 { return float64(x) / 64 }

func (s *surface) Metrics() (layout.FontMetrics, error) {
	if s.closed {
		return layout.FontMetrics{}, errClosed
	}
	if s.metrics != nil {
		return *s.metrics, nil
	}
	m, err := s.font.Metrics(&s.buf, s.ppem, font.HintingNone)
	if err != nil {
		return layout.FontMetrics{}, fmt.Errorf("fonts: 读取 %s 度量失败: %w", s.spec, err)
	}
	fm := layout.FontMetrics{
		Ascent:     toFloat(m.Ascent),
		Descent:    toFloat(m.Descent),
		LineHeight: toFloat(m.Height),
	}
	if fm.LineHeight <= 0 {
		fm.LineHeight = fm.Ascent + fm.Descent
	}
	s.metrics = &fm
	return fm, nil
}

func (s *surface) glyph(r rune) (sfnt.GlyphIndex, error) {
	if s.closed {
		return 0, errClosed
	}
	idx, err := s.font.GlyphIndex(&s.buf, r)
	if err != nil {
		return 0, fmt.Errorf("fonts: 查找字符 %q 失败: %w", r, err)
	}
	return idx, nil
}

// Advance 返回字符的步进宽度；缺失的字符按 .notdef 计算。
func (s *surface) Advance(r rune) (float64, error) {
	idx, err := s.glyph(r)
	if err != nil {
		return 0, err
	}
	adv, err := s.font.GlyphAdvance(&s.buf, idx, s.ppem, font.HintingNone)
	if err != nil {
		return 0, fmt.Errorf("fonts: 读取字符 %q 步进失败: %w", r, err)
	}
	return toFloat(adv), nil
}

func (s *surface) Measure(text string) (float64, float64, error) {
	m, err := s.Metrics()
	if err != nil {
		return 0, 0, err
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r", ""), "\n")
	var widest float64
	for _, line := range lines {
		var w float64
		for _, r := range line {
			adv, err := s.Advance(r)
			if err != nil {
				return 0, 0, err
			}
			w += adv
		}
		widest = max(widest, w)
	}
	return widest, float64(len(lines)) * m.LineHeight, nil
}

// Outline 返回 y 轴向下、基线位于 y=0 的字形轮廓。下划线和删除线作为矩形附加在轮廓后。
func (s *surface) Outline(r rune) (curve.BezPath, error) {
	idx, err := s.glyph(r)
	if err != nil {
		return nil, err
	}
	if idx == 0 && r != 0 {
		return nil, fmt.Errorf("fonts: %s 中没有字符 %q", s.spec.Family, r)
	}
	segs, err := s.font.LoadGlyph(&s.buf, idx, s.ppem, nil)
	if err != nil {
		return nil, fmt.Errorf("fonts: 加载字形 %q 失败: %w", r, err)
	}
	path := segmentsPath(segs)
	if s.spec.Style&(style.Underline|style.Strikeout) != 0 {
		adv, err := s.Advance(r)
		if err != nil {
			return nil, err
		}
		thickness := s.spec.Size / 16
		if s.spec.Style&style.Underline != 0 {
			path = appendRect(path, curve.NewRectFromPoints(curve.Pt(0, s.spec.Size/10), curve.Pt(adv, s.spec.Size/10+thickness)))
		}
		if s.spec.Style&style.Strikeout != 0 {
			y := -s.spec.Size / 4
			path = appendRect(path, curve.NewRectFromPoints(curve.Pt(0, y-thickness/2), curve.Pt(adv, y+thickness/2)))
		}
	}
	return path, nil
}

func (s *surface) Close() error {
	s.closed = true
	return nil
}

func pt(p fixed.Point26_6) curve.Point { return curve.Pt(toFloat(p.X), toFloat(p.Y)) }

func segmentsPath(segs sfnt.Segments) curve.BezPath {
	var path curve.BezPath
	open := false
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				path.ClosePath()
			}
			path.MoveTo(pt(seg.Args[0]))
			open = true
		case sfnt.SegmentOpLineTo:
			path.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			path.QuadTo(pt(seg.Args[0]), pt(seg.Args[1]))
		case sfnt.SegmentOpCubeTo:
			path.CubicTo(pt(seg.Args[0]), pt(seg.Args[1]), pt(seg.Args[2]))
		}
	}
	if open {
		path.ClosePath()
	}
	return path
}

func appendRect(path curve.BezPath, r curve.Rect) curve.BezPath {
	path.MoveTo(curve.Pt(r.X0, r.Y0))
	path.LineTo(curve.Pt(r.X1, r.Y0))
	path.LineTo(curve.Pt(r.X1, r.Y1))
	path.LineTo(curve.Pt(r.X0, r.Y1))
	path.ClosePath()
	return path
}
