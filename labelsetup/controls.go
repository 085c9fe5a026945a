package labelsetup

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ByLCY/cartotext/style"
	"github.com/ByLCY/cartotext/symbology"
	"honnef.co/go/curve"
)

// MoveUp 提高当前分类的优先级（在列表中上移）。
func (s *Setup) MoveUp() bool {
	if s.layer == nil {
		return false
	}
	return s.layer.Symbology.Promote(s.active)
}

// MoveDown 降低当前分类的优先级。
func (s *Setup) MoveDown() bool {
	if s.layer == nil {
		return false
	}
	return s.layer.Symbology.Demote(s.active)
}

// AddCategory 新建分类并命名为 name（为空时保留自动生成的名称）。
// 名称无效时撤销新建并返回错误。
func (s *Setup) AddCategory(name string) (*symbology.LabelCategory, error) {
	if s.layer == nil {
		return nil, fmt.Errorf("labelsetup: 没有可编辑的图层")
	}
	scheme := s.layer.Symbology
	c := scheme.AddCategory()
	if strings.TrimSpace(name) != "" {
		if err := scheme.Rename(c, name); err != nil {
			scheme.Categories = scheme.Categories[:len(scheme.Categories)-1]
			return nil, err
		}
	}
	s.SelectCategory(c)
	return c, nil
}

// RemoveActive 删除当前分类并选中列表第一项。方案中至少保留一个分类。
func (s *Setup) RemoveActive() error {
	if s.layer == nil {
		return symbology.ErrNoCategory
	}
	if err := s.layer.Symbology.Remove(s.active); err != nil {
		return err
	}
	s.Select(0)
	return nil
}

// RenameActive renames the active category; names stay unique.
func (s *Setup) RenameActive(name string) error {
	if s.layer == nil {
		return symbology.ErrNoCategory
	}
	return s.layer.Symbology.Rename(s.active, name)
}

// FontStyles 返回所选字体族可用的样式。
func (s *Setup) FontStyles() []style.FontStyle {
	if s.fonts == nil {
		return nil
	}
	return s.fonts.Styles(s.font.Family)
}

// SelectedFont returns the font chosen in the controls.
func (s *Setup) SelectedFont() style.FontSpec { return s.font }

// SetFontFamily 选择字体族；当前样式不可用时改用常规体或第一个可用样式。
func (s *Setup) SetFontFamily(family string) {
	s.font.Family = family
	styles := s.FontStyles()
	if !slices.Contains(styles, s.font.Style) {
		switch {
		case slices.Contains(styles, style.Regular):
			s.font.Style = style.Regular
		case len(styles) > 0:
			s.font.Style = styles[0]
		}
	}
	s.updatePreview()
}

// SetFontStyle selects a style and refreshes the preview.
func (s *Setup) SetFontStyle(st style.FontStyle) {
	s.font.Style = st
	s.updatePreview()
}

// SetFontSize selects a size in points and refreshes the preview.
func (s *Setup) SetFontSize(size float64) {
	s.font.Size = size
	s.updatePreview()
}

// SetFontColor stores the font colour and refreshes the preview.
func (s *Setup) SetFontColor(c style.Color) {
	s.active.Symbolizer.FontColor = c
	s.updatePreview()
}

// Preview returns the current preview.
func (s *Setup) Preview() Preview { return s.preview }

// updatePreview 校验字体选择；可用时写入符号器，否则显示 Unsupported!。
func (s *Setup) updatePreview() {
	symb := s.active.Symbolizer
	if s.font.Size <= 0 || s.fonts == nil || !s.fonts.Available(s.font.Family, s.font.Style) {
		s.preview = Preview{
			Text:    UnsupportedText,
			Tooltip: UnsupportedTooltip,
			Font:    style.FontSpec{Family: style.DefaultFont.Family, Size: 20, Style: style.Bold},
			Fore:    style.Black,
		}
		return
	}
	back := style.Transparent
	if symb.BackColorEnabled {
		back = symb.BackColor
	}
	s.preview = Preview{
		Text:      PreviewText,
		Tooltip:   PreviewTooltip,
		Font:      s.font,
		Fore:      symb.FontColor,
		Back:      back,
		Supported: true,
	}
	symb.SetFont(s.font)
}

// SetBackColorEnabled toggles the label background.
func (s *Setup) SetBackColorEnabled(on bool) {
	s.active.Symbolizer.BackColorEnabled = on
	s.updatePreview()
}

// SetBackColor 修改背景色，同时启用背景。
func (s *Setup) SetBackColor(c style.Color) {
	s.active.Symbolizer.BackColor = c
	s.active.Symbolizer.BackColorEnabled = true
	s.updatePreview()
}

// SetBorderVisible toggles the label border.
func (s *Setup) SetBorderVisible(on bool) { s.active.Symbolizer.BorderVisible = on }

// SetBorderColor 修改边框颜色，同时显示边框。
func (s *Setup) SetBorderColor(c style.Color) {
	s.active.Symbolizer.BorderColor = c
	s.active.Symbolizer.BorderVisible = true
	s.updatePreview()
}

func (s *Setup) SetPrioritizeLowValues(on bool) { s.active.Symbolizer.PrioritizeLowValues = on }

func (s *Setup) SetPriorityField(name string) { s.active.Symbolizer.PriorityField = name }

func (s *Setup) SetPreventCollisions(on bool) { s.active.Symbolizer.PreventCollisions = on }

// SetAngleMode 选择旋转方式，三个选项互斥。
func (s *Setup) SetAngleMode(m AngleMode) {
	symb := s.active.Symbolizer
	symb.UseAngle = m == CommonAngle
	symb.UseLabelAngleField = m == FieldAngle
	symb.UseLineOrientation = m == LineAngle
}

// AngleMode returns the selected rotation option.
func (s *Setup) AngleMode() AngleMode {
	symb := s.active.Symbolizer
	switch {
	case symb.UseAngle:
		return CommonAngle
	case symb.UseLabelAngleField:
		return FieldAngle
	case symb.UseLineOrientation:
		return LineAngle
	}
	return NoAngle
}

func (s *Setup) SetAngle(deg float64) { s.active.Symbolizer.Angle = deg }

func (s *Setup) SetLabelAngleField(name string) { s.active.Symbolizer.LabelAngleField = name }

func (s *Setup) SetLineOrientation(o symbology.LineOrientation) {
	s.active.Symbolizer.LineOrientation = o
}

func (s *Setup) SetFollowLineGeometry(on bool) { s.active.Symbolizer.FollowLineGeometry = on }

func (s *Setup) SetFloatingFormat(format string) { s.active.Symbolizer.FloatingFormat = format }

func (s *Setup) SetDropShadowEnabled(on bool) { s.active.Symbolizer.DropShadowEnabled = on }

// SetDropShadowColor 修改阴影颜色，透明度保持滑块的取值。
func (s *Setup) SetDropShadowColor(c style.Color) {
	s.active.Symbolizer.DropShadowColor = c.WithOpacity(s.shadowOpacity)
}

// SetDropShadowOpacity 设置阴影不透明度（0..1）。
func (s *Setup) SetDropShadowOpacity(opacity float64) {
	s.shadowOpacity = min(max(opacity, 0), 1)
	symb := s.active.Symbolizer
	symb.DropShadowColor = symb.DropShadowColor.WithOpacity(s.shadowOpacity)
}

// SetDropShadowOffset sets the shadow offset in points.
func (s *Setup) SetDropShadowOffset(x, y float64) {
	s.active.Symbolizer.DropShadowPixelOffset = curve.Vec(x, y)
}

func (s *Setup) SetHaloEnabled(on bool) { s.active.Symbolizer.HaloEnabled = on }

func (s *Setup) SetHaloColor(c style.Color) { s.active.Symbolizer.HaloColor = c }

// SetOffset moves the label away from its anchor, in points.
func (s *Setup) SetOffset(x, y float64) {
	s.active.Symbolizer.OffsetX = x
	s.active.Symbolizer.OffsetY = y
}

// SetOrientation sets where the label sits relative to its anchor.
func (s *Setup) SetOrientation(a style.ContentAlignment) { s.active.Symbolizer.Orientation = a }

// SetAlignment sets the alignment of multi-line labels.
func (s *Setup) SetAlignment(a style.StringAlignment) { s.active.Symbolizer.Alignment = a }

// SetPlacementMethod 按图层几何类型解析放置方法名称。
func (s *Setup) SetPlacementMethod(name string) error {
	symb := s.active.Symbolizer
	if s.isLine {
		m, ok := symbology.ParseLinePlacementMethod(name)
		if !ok {
			return fmt.Errorf("labelsetup: 未知的线标注方法 %q", name)
		}
		symb.LineLabelPlacementMethod = m
		return nil
	}
	m, ok := symbology.ParsePlacementMethod(name)
	if !ok {
		return fmt.Errorf("labelsetup: 未知的标注方法 %q", name)
	}
	symb.LabelPlacementMethod = m
	return nil
}

func (s *Setup) SetPartsLabelingMethod(m symbology.PartLabelingMethod) {
	s.active.Symbolizer.PartsLabelingMethod = m
}

// SetFilterExpression 保存成员过滤表达式；无法编译时仍然保存，并返回错误供界面提示。
func (s *Setup) SetFilterExpression(expr string) error {
	s.active.FilterExpression = expr
	return s.ValidateFilter()
}

// SetMargin sets the space between the text and its background frame.
func (s *Setup) SetMargin(m symbology.Margins) { s.active.Symbolizer.Margin = m }

// SetMask 设置分类的遮罩选项。
func (s *Setup) SetMask(use bool, layers []string, margin symbology.Margins) {
	s.active.UseMask = use
	s.active.MaskedLayers = slices.Clone(layers)
	s.active.MaskMargin = margin
}
