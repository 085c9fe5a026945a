package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/svg"
	"honnef.co/go/curve"

	"github.com/ByLCY/cartotext/layout"
	"github.com/ByLCY/cartotext/renderer"
)

// Format 是输出文件的类型。
type Format string

const (
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "pdf" or "svg" in any case.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatPDF, FormatSVG:
		return f, nil
	case "":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("不支持的输出格式：%s", value)
}

// Renderer draws recorded page shapes via github.com/tdewolff/canvas.
type Renderer struct {
	format Format
	page   int
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	Format Format
	// Page 是 SVG 输出的页码（从 0 开始）；一个 SVG 文件只容纳一页。
	Page int
}

// NewRenderer creates a PDF renderer.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer for the given format.
func NewRendererWithOptions(opts Options) *Renderer {
	if opts.Format == "" {
		opts.Format = FormatPDF
	}
	return &Renderer{format: opts.Format, page: opts.Page}
}

// Extension returns ".pdf" or ".svg".
func (r *Renderer) Extension() string { return "." + string(r.format) }

// Render renders the result into a PDF or SVG byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	var err error
	switch r.format {
	case FormatPDF:
		err = r.renderPDF(&buf, result)
	case FormatSVG:
		err = r.renderSVG(&buf, result)
	default:
		err = fmt.Errorf("不支持的输出格式：%s", r.format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderPDF(w io.Writer, result *layout.Result) error {
	writer := pdf.New(w, result.Pages[0].Width, result.Pages[0].Height, nil)
	applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		drawPage(page).RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return nil
}

func (r *Renderer) renderSVG(w io.Writer, result *layout.Result) error {
	if r.page < 0 || r.page >= len(result.Pages) {
		return fmt.Errorf("页码 %d 超出范围（共 %d 页）", r.page, len(result.Pages))
	}
	page := result.Pages[r.page]
	writer := svg.New(w, page.Width, page.Height, nil)
	drawPage(page).RenderTo(writer)
	if err := writer.Close(); err != nil {
		return fmt.Errorf("写入 SVG 失败: %w", err)
	}
	return nil
}

func applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawPage 按记录顺序重放页面上的绘制调用。canvas 以 mm 为单位。
func drawPage(page layout.Page) *canvas.Canvas {
	c := canvas.New(page.Width, page.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	for _, sh := range page.Shapes {
		drawShape(ctx, sh)
	}
	return c
}

var transparent = color.RGBA{0, 0, 0, 0}

func drawShape(ctx *canvas.Context, sh layout.Shape) {
	if len(sh.Path) == 0 {
		return
	}
	switch sh.Kind {
	case layout.ShapeFill:
		ctx.SetFillColor(sh.Color.NRGBA())
		ctx.SetStrokeColor(transparent)
	case layout.ShapeStroke:
		ctx.SetFillColor(transparent)
		ctx.SetStrokeColor(sh.Color.NRGBA())
		ctx.SetStrokeWidth(toMm(sh.Width))
	default:
		return
	}
	ctx.DrawPath(0, 0, toPath(sh.Path))
}

// toPath 把以 pt 为单位的贝塞尔路径换算为 mm。
func toPath(bp curve.BezPath) *canvas.Path {
	p := &canvas.Path{}
	for _, el := range bp {
		switch el.Kind {
		case curve.MoveToKind:
			p.MoveTo(toMm(el.P0.X), toMm(el.P0.Y))
		case curve.LineToKind:
			p.LineTo(toMm(el.P0.X), toMm(el.P0.Y))
		case curve.QuadToKind:
			p.QuadTo(toMm(el.P0.X), toMm(el.P0.Y), toMm(el.P1.X), toMm(el.P1.Y))
		case curve.CubicToKind:
			p.CubeTo(toMm(el.P0.X), toMm(el.P0.Y), toMm(el.P1.X), toMm(el.P1.Y), toMm(el.P2.X), toMm(el.P2.Y))
		case curve.ClosePathKind:
			p.Close()
		}
	}
	return p
}

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
