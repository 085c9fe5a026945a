package style

import "strings"

// StringAlignment positions text along one axis of its layout box.
type StringAlignment int

const (
	Near StringAlignment = iota
	Center
	Far
)

func (a StringAlignment) String() string {
	switch a {
	case Center:
		return "Center"
	case Far:
		return "Far"
	default:
		return "Near"
	}
}

// Offset returns where content of size inner starts inside a container of size outer.
func (a StringAlignment) Offset(outer, inner float64) float64 {
	switch a {
	case Center:
		return (outer - inner) / 2
	case Far:
		return outer - inner
	default:
		return 0
	}
}

// ParseStringAlignment 接受 near/left/top、center/middle、far/right/bottom。
func ParseStringAlignment(value string) StringAlignment {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "center", "centre", "middle":
		return Center
	case "far", "right", "bottom", "end":
		return Far
	default:
		return Near
	}
}

// ContentAlignment combines a vertical and a horizontal alignment.
type ContentAlignment int

const (
	TopLeft ContentAlignment = iota
	TopCenter
	TopRight
	MiddleLeft
	MiddleCenter
	MiddleRight
	BottomLeft
	BottomCenter
	BottomRight
)

var contentAlignmentNames = [...]string{
	"TopLeft", "TopCenter", "TopRight",
	"MiddleLeft", "MiddleCenter", "MiddleRight",
	"BottomLeft", "BottomCenter", "BottomRight",
}

func (a ContentAlignment) String() string {
	if a < TopLeft || a > BottomRight {
		return "TopLeft"
	}
	return contentAlignmentNames[a]
}

// Horizontal returns the column of the alignment.
func (a ContentAlignment) Horizontal() StringAlignment {
	if a < TopLeft || a > BottomRight {
		return Near
	}
	return StringAlignment(int(a) % 3)
}

// Vertical returns the row of the alignment.
func (a ContentAlignment) Vertical() StringAlignment {
	if a < TopLeft || a > BottomRight {
		return Near
	}
	return StringAlignment(int(a) / 3)
}

// ContentAlignmentOf composes a ContentAlignment from its two axes.
func ContentAlignmentOf(vertical, horizontal StringAlignment) ContentAlignment {
	return ContentAlignment(int(vertical)*3 + int(horizontal))
}

// ParseContentAlignment 解析 "middle-center"、"TopLeft"、"bottom right" 等写法，
// 单个词只作用于对应轴，另一轴取居中。
func ParseContentAlignment(value string) ContentAlignment {
	v := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(value))
	for i, name := range contentAlignmentNames {
		if strings.ToLower(name) == v {
			return ContentAlignment(i)
		}
	}
	switch v {
	case "center", "centre", "middle":
		return MiddleCenter
	case "left":
		return MiddleLeft
	case "right":
		return MiddleRight
	case "top":
		return TopCenter
	case "bottom":
		return BottomCenter
	}
	return TopLeft
}
