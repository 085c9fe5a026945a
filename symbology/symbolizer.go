// Package symbology 定义标注图层的符号化模型：符号器、分类、方案，以及从
// 要素属性生成标注文本的逻辑。
package symbology

import (
	"fmt"
	"strings"

	"github.com/ByLCY/cartotext/style"
	"honnef.co/go/curve"
)

// LabelPlacementMethod 决定面要素标注点的取法。
type LabelPlacementMethod int

const (
	Centroid LabelPlacementMethod = iota
	InteriorPoint
)

var placementNames = []string{"Centroid", "InteriorPoint"}

func (m LabelPlacementMethod) String() string { return enumName(placementNames, int(m)) }

// LineLabelPlacementMethod 决定线要素在哪一段上放置标注。
type LineLabelPlacementMethod int

const (
	FirstSegment LineLabelPlacementMethod = iota
	LastSegment
	MiddleSegment
	LongestSegment
)

var linePlacementNames = []string{"FirstSegment", "LastSegment", "MiddleSegment", "LongestSegment"}

func (m LineLabelPlacementMethod) String() string { return enumName(linePlacementNames, int(m)) }

// PartLabelingMethod 决定多部件要素标注全部部件还是最大部件。
type PartLabelingMethod int

const (
	LabelAllParts PartLabelingMethod = iota
	LabelLargestPart
)

var partNames = []string{"LabelAllParts", "LabelLargestPart"}

func (m PartLabelingMethod) String() string { return enumName(partNames, int(m)) }

// LineOrientation 是标注相对线段的方向。
type LineOrientation int

const (
	Parallel LineOrientation = iota
	Perpendicular
)

var orientationNames = []string{"Parallel", "Perpendicular"}

func (o LineOrientation) String() string { return enumName(orientationNames, int(o)) }

// PlacementMethods, LinePlacementMethods, PartMethods and LineOrientations
// list every value of their enum in declaration order.
var (
	PlacementMethods     = []LabelPlacementMethod{Centroid, InteriorPoint}
	LinePlacementMethods = []LineLabelPlacementMethod{FirstSegment, LastSegment, MiddleSegment, LongestSegment}
	PartMethods          = []PartLabelingMethod{LabelAllParts, LabelLargestPart}
	LineOrientations     = []LineOrientation{Parallel, Perpendicular}
)

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("%d", i)
	}
	return names[i]
}

// parseEnum matches value case-insensitively against names.
func parseEnum(names []string, value string) (int, bool) {
	for i, n := range names {
		if strings.EqualFold(n, strings.TrimSpace(value)) {
			return i, true
		}
	}
	return 0, false
}

// ParsePlacementMethod parses a LabelPlacementMethod name.
func ParsePlacementMethod(value string) (LabelPlacementMethod, bool) {
	i, ok := parseEnum(placementNames, value)
	return LabelPlacementMethod(i), ok
}

// ParseLinePlacementMethod parses a LineLabelPlacementMethod name.
func ParseLinePlacementMethod(value string) (LineLabelPlacementMethod, bool) {
	i, ok := parseEnum(linePlacementNames, value)
	return LineLabelPlacementMethod(i), ok
}

// ParsePartMethod parses a PartLabelingMethod name.
func ParsePartMethod(value string) (PartLabelingMethod, bool) {
	i, ok := parseEnum(partNames, value)
	return PartLabelingMethod(i), ok
}

// ParseLineOrientation parses a LineOrientation name.
func ParseLineOrientation(value string) (LineOrientation, bool) {
	i, ok := parseEnum(orientationNames, value)
	return LineOrientation(i), ok
}

// Margins 以 pt 为单位。
type Margins struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// LabelSymbolizer 汇总一个标注分类的全部外观属性。
type LabelSymbolizer struct {
	FontFamily string          `json:"fontFamily"`
	FontSize   float64         `json:"fontSize"`
	FontStyle  style.FontStyle `json:"fontStyle"`
	FontColor  style.Color     `json:"fontColor"`

	BackColor        style.Color `json:"backColor"`
	BackColorEnabled bool        `json:"backColorEnabled"`
	BorderColor      style.Color `json:"borderColor"`
	BorderVisible    bool        `json:"borderVisible"`

	HaloEnabled bool        `json:"haloEnabled"`
	HaloColor   style.Color `json:"haloColor"`

	DropShadowEnabled     bool        `json:"dropShadowEnabled"`
	DropShadowColor       style.Color `json:"dropShadowColor"`
	DropShadowPixelOffset curve.Vec2  `json:"dropShadowPixelOffset"`

	OffsetX     float64                `json:"offsetX"`
	OffsetY     float64                `json:"offsetY"`
	Orientation style.ContentAlignment `json:"orientation"` // 标注框相对标注点的位置
	Alignment   style.StringAlignment  `json:"alignment"`   // 多行文本的对齐

	LabelPlacementMethod     LabelPlacementMethod     `json:"labelPlacementMethod"`
	LineLabelPlacementMethod LineLabelPlacementMethod `json:"lineLabelPlacementMethod"`
	PartsLabelingMethod      PartLabelingMethod       `json:"partsLabelingMethod"`

	UseAngle           bool            `json:"useAngle"`
	Angle              float64         `json:"angle"`
	UseLabelAngleField bool            `json:"useLabelAngleField"`
	LabelAngleField    string          `json:"labelAngleField"`
	UseLineOrientation bool            `json:"useLineOrientation"`
	LineOrientation    LineOrientation `json:"lineOrientation"`
	FollowLineGeometry bool            `json:"followLineGeometry"`

	FloatingFormat      string `json:"floatingFormat"`
	PriorityField       string `json:"priorityField"`
	PrioritizeLowValues bool   `json:"prioritizeLowValues"`
	PreventCollisions   bool   `json:"preventCollisions"`

	Margin Margins `json:"margin"`
}

// NewLabelSymbolizer returns a symbolizer with the default appearance.
func NewLabelSymbolizer() *LabelSymbolizer {
	return &LabelSymbolizer{
		FontFamily:               style.DefaultFont.Family,
		FontSize:                 style.DefaultFont.Size,
		FontColor:                style.Black,
		BackColor:                style.RGB(0xfa, 0xeb, 0xd7),
		BorderColor:              style.Black,
		HaloColor:                style.White,
		DropShadowColor:          style.Black.WithOpacity(0.5),
		DropShadowPixelOffset:    curve.Vec(2, 2),
		Orientation:              style.MiddleCenter,
		Alignment:                style.Center,
		LabelPlacementMethod:     Centroid,
		LineLabelPlacementMethod: LongestSegment,
		PartsLabelingMethod:      LabelLargestPart,
		LineOrientation:          Parallel,
		PriorityField:            FIDField,
		PreventCollisions:        true,
	}
}

// Font returns the font the labels are drawn with.
func (s *LabelSymbolizer) Font() style.FontSpec {
	return style.FontSpec{Family: s.FontFamily, Size: s.FontSize, Style: s.FontStyle}
}

// SetFont copies family, size and style from f.
func (s *LabelSymbolizer) SetFont(f style.FontSpec) {
	s.FontFamily = f.Family
	s.FontSize = f.Size
	s.FontStyle = f.Style
}

// Clone returns an independent copy.
func (s *LabelSymbolizer) Clone() *LabelSymbolizer {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
