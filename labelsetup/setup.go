// Package labelsetup 是标注设置对话框的视图模型：它持有图层的工作副本，
// 把每个控件的操作映射到当前分类的符号器上，并在应用时写回原图层。
package labelsetup

import (
	"slices"

	"github.com/ByLCY/cartotext/binding"
	"github.com/ByLCY/cartotext/filter"
	"github.com/ByLCY/cartotext/style"
	"github.com/ByLCY/cartotext/symbology"
)

// FontCatalog reports which font families and styles exist.
// *fonts.Registry implements it.
type FontCatalog interface {
	Available(family string, st style.FontStyle) bool
	Styles(family string) []style.FontStyle
}

// Tab 是对话框的页签。
type Tab int

const (
	TabGeneral Tab = iota
	TabMembers
	TabExpression
	TabBasic
	TabAdvanced
)

var helpTexts = map[Tab]string{
	TabMembers:    "Use the filter expression to choose the features that belong to the selected category. An empty expression selects every feature.",
	TabExpression: "Build the label text from field values. Field names in square brackets, e.g. [NAME], are replaced by the value of each feature.",
	TabBasic:      "Choose the font, colours, background, border, priority and rotation of the labels in the selected category.",
	TabAdvanced:   "Set the shadow, halo, offset, position relative to the feature, alignment and placement method of the labels.",
}

// HelpText returns the help shown for tab; ok is false when the help line is hidden.
func HelpText(tab Tab) (text string, ok bool) {
	text, ok = helpTexts[tab]
	return text, ok
}

const (
	PreviewText        = "Preview"
	PreviewTooltip     = "This shows a preview of the font"
	UnsupportedText    = "Unsupported!"
	UnsupportedTooltip = "The specified combination of font family, style, or size is unsupported"
)

// Preview 描述预览标签的显示内容。
type Preview struct {
	Text      string         `json:"text"`
	Tooltip   string         `json:"tooltip"`
	Font      style.FontSpec `json:"font"`
	Fore      style.Color    `json:"fore"`
	Back      style.Color    `json:"back"`
	Supported bool           `json:"supported"`
}

// AngleMode 对应三个互斥的旋转选项。
type AngleMode int

const (
	NoAngle AngleMode = iota
	CommonAngle
	FieldAngle
	LineAngle
)

// Controls 汇总依赖当前状态的控件可用性与可见性。
type Controls struct {
	AngleEnabled           bool `json:"angleEnabled"`
	AngleFieldEnabled      bool `json:"angleFieldEnabled"`
	LineOrientationEnabled bool `json:"lineOrientationEnabled"`
	FollowLineEnabled      bool `json:"followLineEnabled"`
	LineControlsVisible    bool `json:"lineControlsVisible"`
	ShadowOptionsEnabled   bool `json:"shadowOptionsEnabled"`
	HaloColorEnabled       bool `json:"haloColorEnabled"`
}

// Setup 是一个标注设置会话。
type Setup struct {
	original *symbology.LabelLayer
	layer    *symbology.LabelLayer
	active   *symbology.LabelCategory
	fonts    FontCatalog
	editor   *binding.Editor

	tab           Tab
	font          style.FontSpec // 控件中的字体选择，预览通过后才写入符号器
	preview       Preview
	shadowOpacity float64
	isLine        bool
	closed        bool

	changes   chan struct{}
	onApplied []func(*symbology.LabelLayer)
}

// New 打开一个会话，编辑 layer 的副本。layer 可以为 nil。
func New(layer *symbology.LabelLayer, catalog FontCatalog) *Setup {
	s := &Setup{
		fonts:   catalog,
		editor:  binding.NewEditor(nil),
		changes: make(chan struct{}, 1),
	}
	s.SetLayer(layer)
	return s
}

// SetLayer 切换编辑的图层并重置全部控件。
func (s *Setup) SetLayer(layer *symbology.LabelLayer) {
	s.original = layer
	s.layer = nil
	if layer != nil {
		s.layer = layer.Clone()
	}
	s.updateLayer()
}

func (s *Setup) updateLayer() {
	s.isLine = false
	s.editor.SetSource(nil)
	if s.layer != nil && s.layer.FeatureLayer != nil {
		s.isLine = s.layer.FeatureLayer.IsLine()
		if t := s.layer.FeatureLayer.Table; t != nil {
			s.editor.SetSource(t)
		}
	}
	s.Select(0)
}

// Layer returns the working copy.
func (s *Setup) Layer() *symbology.LabelLayer { return s.layer }

// Categories 按显示顺序返回分类：优先级最高的在最上面。
func (s *Setup) Categories() []*symbology.LabelCategory {
	if s.layer == nil {
		return nil
	}
	out := slices.Clone(s.layer.Symbology.Categories)
	slices.Reverse(out)
	return out
}

// Select 选中显示列表中的第 i 项。越界时使用一个不属于方案的占位分类。
func (s *Setup) Select(i int) {
	cats := s.Categories()
	if i >= 0 && i < len(cats) {
		s.active = cats[i]
	} else {
		s.active = symbology.NewLabelCategory("")
	}
	s.updateControls()
}

// SelectCategory selects c if it belongs to the scheme.
func (s *Setup) SelectCategory(c *symbology.LabelCategory) {
	s.Select(slices.Index(s.Categories(), c))
}

// Active returns the category the controls edit.
func (s *Setup) Active() *symbology.LabelCategory { return s.active }

// SelectedIndex returns the display index of the active category, or -1.
func (s *Setup) SelectedIndex() int { return slices.Index(s.Categories(), s.active) }

func (s *Setup) updateControls() {
	symb := s.active.Symbolizer
	s.font = symb.Font()
	s.shadowOpacity = float64(symb.DropShadowColor.A) / 255
	s.editor.SetExpression(s.active.Expression)
	s.updatePreview()
}

// SelectTab 切换页签并返回帮助文本。
func (s *Setup) SelectTab(tab Tab) (string, bool) {
	s.tab = tab
	return HelpText(tab)
}

// Help returns the help line of the current tab.
func (s *Setup) Help() (string, bool) { return HelpText(s.tab) }

// Editor returns the label expression editor of the active category.
func (s *Setup) Editor() *binding.Editor { return s.editor }

// Controls returns the enabled and visible state of the dependent controls.
func (s *Setup) Controls() Controls {
	symb := s.active.Symbolizer
	return Controls{
		AngleEnabled:           symb.UseAngle,
		AngleFieldEnabled:      symb.UseLabelAngleField,
		LineOrientationEnabled: symb.UseLineOrientation,
		FollowLineEnabled:      symb.UseLineOrientation,
		LineControlsVisible:    s.isLine,
		ShadowOptionsEnabled:   symb.DropShadowEnabled,
		HaloColorEnabled:       symb.HaloEnabled,
	}
}

// IsLineLayer reports whether line-only controls apply.
func (s *Setup) IsLineLayer() bool { return s.isLine }

func (s *Setup) columns() []string {
	if s.layer == nil || s.layer.FeatureLayer == nil || s.layer.FeatureLayer.Table == nil {
		return nil
	}
	return s.layer.FeatureLayer.Table.FieldNames()
}

// PriorityFields 返回优先级字段列表，第一项总是 FID。
func (s *Setup) PriorityFields() []string {
	out := []string{symbology.FIDField}
	for _, c := range s.columns() {
		if c != symbology.FIDField {
			out = append(out, c)
		}
	}
	return out
}

// AngleFields returns the columns that can hold a label angle.
func (s *Setup) AngleFields() []string { return s.columns() }

// PlacementMethods 返回当前几何类型可用的放置方法名称。
func (s *Setup) PlacementMethods() []string {
	var out []string
	if s.isLine {
		for _, m := range symbology.LinePlacementMethods {
			out = append(out, m.String())
		}
		return out
	}
	for _, m := range symbology.PlacementMethods {
		out = append(out, m.String())
	}
	return out
}

// PlacementMethod returns the selected placement method name.
func (s *Setup) PlacementMethod() string {
	if s.isLine {
		return s.active.Symbolizer.LineLabelPlacementMethod.String()
	}
	return s.active.Symbolizer.LabelPlacementMethod.String()
}

// Apply 把工作副本写回原图层并重新生成标注，然后通知监听者。
func (s *Setup) Apply() error {
	s.active.Expression = s.editor.Expression()
	for _, fn := range s.onApplied {
		fn(s.layer)
	}
	var err error
	if s.original != nil {
		s.original.CopyProperties(s.layer)
		err = s.original.CreateLabels()
	}
	select {
	case s.changes <- struct{}{}:
	default:
	}
	return err
}

// OK applies the changes and closes the session.
func (s *Setup) OK() error {
	err := s.Apply()
	s.closed = true
	return err
}

// Cancel closes the session without touching the original layer.
func (s *Setup) Cancel() { s.closed = true }

// Closed reports whether OK or Cancel was called.
func (s *Setup) Closed() bool { return s.closed }

// Changes 在每次应用后收到一个通知；未读取的通知会合并。
func (s *Setup) Changes() <-chan struct{} { return s.changes }

// OnChangesApplied registers fn to run on every Apply, before the original
// layer is updated.
func (s *Setup) OnChangesApplied(fn func(*symbology.LabelLayer)) {
	s.onApplied = append(s.onApplied, fn)
}

// ValidateFilter compiles the active category's filter expression.
func (s *Setup) ValidateFilter() error {
	_, err := filter.Compile(s.active.FilterExpression)
	return err
}
