package layout

import (
	"github.com/ByLCY/cartotext/style"
	"honnef.co/go/curve"
)

// TextElement 是页面上的一个文本框，可以直排（可旋转）或沿圆弧排版。
// 修改影响尺寸的属性时会自动调用 UpdateSize，然后触发 OnInvalidate。
type TextElement struct {
	Name      string                 `json:"name"`
	Text      string                 `json:"text"`
	Font      style.FontSpec         `json:"font"`
	Color     style.Color            `json:"color"`
	Alignment style.ContentAlignment `json:"alignment"`
	// Angle 为直排文本的旋转角度（度，顺时针）。
	Angle      float64    `json:"angle"`
	Radius     float64    `json:"radius"`
	StartAngle float64    `json:"startAngle"`
	AutoSize   bool       `json:"autoSize"`
	Visible    bool       `json:"visible"`
	// Location 是未旋转文本框的左上角。直排自动尺寸时 Rect 是旋转后的外接矩形，
	// 其原点不再等于 Location。
	Location curve.Point `json:"location"`
	Rect     curve.Rect  `json:"rect"`
	// ClipPadding 是绘制直排文本时附加到矩形宽度上的字符，其宽度防止末尾字符被截断。
	ClipPadding string `json:"clipPadding"`

	OnInvalidate func() `json:"-"`

	ts Typesetter
}

// NewTextElement returns an element with the defaults of a fresh text box.
func NewTextElement(ts Typesetter) *TextElement {
	e := &TextElement{
		Name:        "Text Box",
		Text:        "Text Box",
		Font:        style.DefaultFont,
		Color:       style.Black,
		Alignment:   style.TopLeft,
		StartAngle:  90,
		AutoSize:    true,
		Visible:     true,
		ClipPadding: "0",
		ts:          ts,
	}
	e.UpdateSize()
	return e
}

// SetTypesetter swaps the measurement backend and refreshes the size.
func (e *TextElement) SetTypesetter(ts Typesetter) {
	e.ts = ts
	e.changed()
}

func (e *TextElement) SetText(text string) {
	e.Text = text
	e.changed()
}

func (e *TextElement) SetFont(font style.FontSpec) {
	e.Font = font
	e.changed()
}

func (e *TextElement) SetAngle(deg float64) {
	e.Angle = deg
	e.changed()
}

func (e *TextElement) SetRadius(radius float64) {
	e.Radius = radius
	e.changed()
}

func (e *TextElement) SetStartAngle(deg float64) {
	e.StartAngle = deg
	e.changed()
}

func (e *TextElement) SetAutoSize(on bool) {
	e.AutoSize = on
	e.changed()
}

// SetColor and SetAlignment only affect drawing.
func (e *TextElement) SetColor(c style.Color) {
	e.Color = c
	e.invalidate()
}

func (e *TextElement) SetAlignment(a style.ContentAlignment) {
	e.Alignment = a
	e.invalidate()
}

// SetLocation moves the element without resizing it.
func (e *TextElement) SetLocation(p curve.Point) {
	e.Location = p
	e.Rect = e.Rect.WithOrigin(p)
	e.changed()
}

// SetRect sets position and size; with AutoSize on the size is recomputed.
func (e *TextElement) SetRect(r curve.Rect) {
	e.Location = r.Origin()
	e.Rect = r
	e.changed()
}

// Spec returns the layout request described by the element.
func (e *TextElement) Spec() TextSpec {
	return TextSpec{
		Text:       e.Text,
		Font:       e.Font,
		Rotation:   e.Angle,
		Radius:     e.Radius,
		StartAngle: e.StartAngle,
		AutoSize:   e.AutoSize,
	}
}

func (e *TextElement) changed() {
	e.UpdateSize()
	e.invalidate()
}

func (e *TextElement) invalidate() {
	if e.OnInvalidate != nil {
		e.OnInvalidate()
	}
}

// UpdateSize 在 AutoSize 打开时按文本重新计算矩形。
// 直排：测量整段文本，以 Location 为左上角，绕矩形中心旋转后取外接矩形。
// 弧形：以测量尺寸推出圆心，取弧形排版的外接尺寸，位置保持不变。
func (e *TextElement) UpdateSize() {
	if !e.AutoSize || e.ts == nil {
		return
	}
	loc := e.Location
	if !e.Spec().Curved() {
		e.Rect = Layout(e.ts, e.Spec(), loc).Bounds
		return
	}
	bounds := Layout(e.ts, e.Spec(), e.circleCenter()).Bounds
	e.Rect = curve.NewRectFromOrigin(loc, bounds.Size())
}

// circleCenter derives the centre of the text circle from the element
// location: the straight text centre moved down by radius plus half height.
func (e *TextElement) circleCenter() curve.Point {
	w, h := e.measure(e.Text)
	loc := e.Location
	return curve.Pt(loc.X+w/2, loc.Y+h/2+e.Radius+h/2)
}

func (e *TextElement) measure(s string) (float64, float64) {
	if e.ts == nil || s == "" {
		return 0, 0
	}
	surface, err := e.ts.Surface(e.Font)
	if err != nil {
		return 0, 0
	}
	defer surface.Close()
	w, h, err := surface.Measure(s)
	if err != nil {
		return 0, 0
	}
	return w, h
}

// Draw 将元素绘制到 sink，返回实际排版结果。不可见元素不产生任何绘制调用。
func (e *TextElement) Draw(sink Sink) LayoutResult {
	if !e.Visible || sink == nil || e.ts == nil {
		return LayoutResult{Bounds: e.Rect}
	}
	if e.Spec().Curved() {
		return e.drawCurved(sink)
	}
	surface, err := e.ts.Surface(e.Font)
	if err != nil {
		Logger().Warn("layout: 无法创建测量表面", "font", e.Font.String(), "error", err)
		return LayoutResult{Bounds: e.Rect}
	}
	defer surface.Close()

	box := e.Rect
	// 自动尺寸下矩形已是旋转后的外接矩形，需要还原出未旋转的文本框。
	if e.AutoSize && e.Angle != 0 {
		if w, h, err := surface.Measure(e.Text); err == nil {
			box = curve.NewRectFromCenter(e.Rect.Center(), curve.Sz(w/2, h/2))
		}
	}
	if e.ClipPadding != "" {
		if pad, _, err := surface.Measure(e.ClipPadding); err == nil {
			box.X1 += pad
		}
	}
	glyphs, skipped := placeLines(surface, e.Text, box, e.Alignment, e.Angle)
	fillGlyphs(sink, glyphs, e.Color)
	return LayoutResult{Bounds: e.Rect, Glyphs: glyphs, Skipped: skipped}
}

func (e *TextElement) drawCurved(sink Sink) LayoutResult {
	res := Layout(e.ts, e.Spec(), e.circleCenter())
	// 把弧形文字整体平移到元素矩形内。
	shift := e.Rect.Origin().Sub(res.Bounds.Origin())
	move := curve.Translate(shift)
	for i := range res.Glyphs {
		g := &res.Glyphs[i]
		g.Anchor = g.Anchor.Translate(shift)
		if len(g.Outline) > 0 {
			g.Outline = g.Outline.Transform(move)
			g.Bounds = g.Bounds.Translate(shift)
		}
	}
	res.Bounds = res.Bounds.Translate(shift)
	fillGlyphs(sink, res.Glyphs, e.Color)
	return res
}
