package layout

import (
	"github.com/ByLCY/cartotext/style"
	"github.com/ByLCY/cartotext/symbology"
	"honnef.co/go/curve"
)

// 该文件定义布局结果与资源描述，供布局计算、渲染与调试 JSON 共用。

// Result 保存布局后的页面与资源信息。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`

	// Layers 保存 labels 段落构建出的标注图层，按名称索引。
	Layers map[string]*symbology.LabelLayer `json:"-"`
}

// ResourceSet 记录解析出的字体与颜色定义。
type ResourceSet struct {
	Fonts  map[string]FontResource `json:"fonts"`
	Colors map[string]style.Color  `json:"colors"`
}

// FontResource 描述字体资源，src 可以是文件路径或 builtin:* 形式。
type FontResource struct {
	Name      string          `json:"name"`
	Src       string          `json:"src"`
	Spec      style.FontSpec  `json:"spec"`
	IsBuiltin bool            `json:"isBuiltin"`
	Fallback  *style.FontSpec `json:"fallback,omitempty"` // 请求的样式不可用时实际使用的字体
}

// Effective returns the font the resource is drawn with.
func (f FontResource) Effective() style.FontSpec {
	if f.Fallback != nil {
		return *f.Fallback
	}
	return f.Spec
}

// Page 记录页面尺寸（mm）与最终可以直接渲染的图形。
// Shapes 的坐标单位为 pt，原点在页面左上角。
type Page struct {
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
	Shapes   []Shape         `json:"shapes"`
	Elements []ElementRecord `json:"elements,omitempty"`
	Labels   []PlacedLabel   `json:"labels,omitempty"`
}

// ShapeKind 区分填充与描边。
type ShapeKind string

const (
	ShapeFill   ShapeKind = "fill"
	ShapeStroke ShapeKind = "stroke"
)

// Shape 是一次记录下来的绘制调用。
type Shape struct {
	Kind  ShapeKind     `json:"kind"`
	Path  curve.BezPath `json:"-"`
	Color style.Color   `json:"color"`
	Width float64       `json:"width,omitempty"` // 描边宽度（pt）
}

// ElementRecord 汇总页面上一个元素的排版结果，主要用于调试输出。
type ElementRecord struct {
	Kind   string       `json:"kind"` // text | label | frame
	Name   string       `json:"name"`
	Text   string       `json:"text,omitempty"`
	Bounds curve.Rect   `json:"bounds"`
	Layout LayoutResult `json:"layout"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
