package style

import (
	"fmt"
	"strings"
)

// FontStyle is a bit set; the values follow the usual desktop convention so
// that every combination 0..15 is a distinct style.
type FontStyle int

const (
	Regular   FontStyle = 0
	Bold      FontStyle = 1
	Italic    FontStyle = 2
	Underline FontStyle = 4
	Strikeout FontStyle = 8
)

// Base strips the decorations that do not need their own face.
func (s FontStyle) Base() FontStyle { return s & (Bold | Italic) }

func (s FontStyle) String() string {
	if s == Regular {
		return "Regular"
	}
	var parts []string
	for _, f := range []struct {
		bit  FontStyle
		name string
	}{{Bold, "Bold"}, {Italic, "Italic"}, {Underline, "Underline"}, {Strikeout, "Strikeout"}} {
		if s&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, ", ")
}

// ParseFontStyle 接受 "bold italic"、"Bold, Italic"、"BI" 等写法。
func ParseFontStyle(value string) FontStyle {
	s := strings.ToLower(value)
	var st FontStyle
	if strings.Contains(s, "bold") {
		st |= Bold
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		st |= Italic
	}
	if strings.Contains(s, "underline") {
		st |= Underline
	}
	if strings.Contains(s, "strike") {
		st |= Strikeout
	}
	if st == Regular && strings.ToUpper(value) == value {
		if strings.Contains(value, "B") {
			st |= Bold
		}
		if strings.Contains(value, "I") {
			st |= Italic
		}
	}
	return st
}

// FontSpec describes a font request; Size is in points.
type FontSpec struct {
	Family string    `json:"family"`
	Size   float64   `json:"size"`
	Style  FontStyle `json:"style"`
}

func (f FontSpec) String() string {
	return fmt.Sprintf("%s %gpt %s", f.Family, f.Size, f.Style)
}

// DefaultFont is the font new text elements and symbolizers start with.
var DefaultFont = FontSpec{Family: "Go", Size: 10, Style: Regular}
