package layout

import (
	"github.com/ByLCY/cartotext/style"
	"honnef.co/go/curve"
)

// BuildOptions 配置布局阶段所需的依赖，例如排版后端。
type BuildOptions struct {
	Typesetter Typesetter
	// Fonts 为空时忽略字体资源中的 src，只使用已注册的字体。
	Fonts FontLoader
	// BaseDir 用于解析文档中的相对路径（字体文件、标注数据）。
	BaseDir string
	Debug   DebugOptions
}

// FontLoader registers the font files named by resources and reports the
// face actually used for a request. *fonts.Registry implements it.
type FontLoader interface {
	RegisterFile(family string, st style.FontStyle, src string) error
	Fallback(spec style.FontSpec) style.FontSpec
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	ShowBounds bool // 为每个文本元素额外描一个外接矩形
}

// Typesetter opens measurement surfaces. Font substitution happens before
// this point: font is expected to name an available face.
type Typesetter interface {
	Surface(font style.FontSpec) (Surface, error)
}

// FontMetrics are line metrics in points.
type FontMetrics struct {
	Ascent     float64 `json:"ascent"`
	Descent    float64 `json:"descent"`
	LineHeight float64 `json:"lineHeight"`
}

// Surface is a measurement context owned by a single layout or draw call and
// closed when the call returns. Outlines are y-down with the baseline at y=0.
type Surface interface {
	Metrics() (FontMetrics, error)
	// Advance returns the advance width of one character.
	Advance(r rune) (float64, error)
	// Measure returns the widest line and the total height of s.
	Measure(s string) (width, height float64, err error)
	Outline(r rune) (curve.BezPath, error)
	Close() error
}

// Sink receives the draw calls of a layout: glyph outlines and decoration.
type Sink interface {
	FillPath(p curve.BezPath, c style.Color)
	StrokePath(p curve.BezPath, c style.Color, width float64)
	StrokeRect(r curve.Rect, c style.Color, width float64)
}
