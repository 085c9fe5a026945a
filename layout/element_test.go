package layout

import (
	"math"
	"testing"

	"github.com/ByLCY/cartotext/style"
	"honnef.co/go/curve"
)

func TestNewTextElementDefaults(t *testing.T) {
	e := NewTextElement(&stubTypesetter{})
	if e.Name != "Text Box" || e.Text != "Text Box" || e.StartAngle != 90 || !e.AutoSize || !e.Visible {
		t.Fatalf("unexpected defaults: %+v", e)
	}
	if e.Alignment != style.TopLeft || e.ClipPadding != "0" || e.Font != style.DefaultFont {
		t.Fatalf("unexpected defaults: %+v", e)
	}
	want := curve.Rect{X1: 80, Y1: stubLineHeight}
	if !nearRect(e.Rect, want) {
		t.Fatalf("rect = %+v, want %+v", e.Rect, want)
	}
}

func TestTextElementSettersInvalidate(t *testing.T) {
	e := NewTextElement(&stubTypesetter{})
	calls := 0
	e.OnInvalidate = func() { calls++ }

	e.SetText("abc")
	e.SetFont(style.FontSpec{Family: "Go", Size: 12, Style: style.Bold})
	e.SetAngle(15)
	e.SetRadius(0)
	e.SetStartAngle(45)
	e.SetAutoSize(true)
	e.SetColor(style.RGB(1, 2, 3))
	e.SetAlignment(style.BottomRight)
	if calls != 8 {
		t.Fatalf("invalidate called %d times, want 8", calls)
	}
}

func TestTextElementRotatedAutoSize(t *testing.T) {
	e := NewTextElement(&stubTypesetter{})
	e.SetAngle(90)
	want := curve.Rect{X0: 34, Y0: -34, X1: 46, Y1: 46}
	if !nearRect(e.Rect, want) {
		t.Fatalf("rect = %+v, want %+v", e.Rect, want)
	}
}

func TestTextElementRepeatedRotationKeepsPlace(t *testing.T) {
	e := NewTextElement(&stubTypesetter{})
	start := e.Rect
	e.SetAngle(30)
	first := e.Rect
	for i := 0; i < 3; i++ {
		e.SetAngle(30)
		if !nearRect(e.Rect, first) {
			t.Fatalf("rotation %d moved the element to %+v, want %+v", i+2, e.Rect, first)
		}
	}
	if e.Location != (curve.Point{}) {
		t.Fatalf("location drifted to %v", e.Location)
	}
	e.SetAngle(0)
	if !nearRect(e.Rect, start) {
		t.Fatalf("unrotated rect = %+v, want %+v", e.Rect, start)
	}
}

func TestTextElementCurvedAutoSizeKeepsLocation(t *testing.T) {
	ts := &stubTypesetter{}
	e := NewTextElement(ts)
	e.SetLocation(curve.Pt(20, 30))
	e.SetRadius(50)

	if !near(e.Rect.X0, 20) || !near(e.Rect.Y0, 30) {
		t.Fatalf("location moved to %v", e.Rect.Origin())
	}
	center := curve.Pt(20+40, 30+stubLineHeight/2+50+stubLineHeight/2)
	bounds := Layout(ts, e.Spec(), center).Bounds
	if !near(e.Rect.Width(), bounds.Width()) || !near(e.Rect.Height(), bounds.Height()) {
		t.Fatalf("size %v, want %v", e.Rect.Size(), bounds.Size())
	}
}

func TestTextElementManualSizeUntouched(t *testing.T) {
	e := NewTextElement(&stubTypesetter{})
	e.SetAutoSize(false)
	r := curve.Rect{X0: 1, Y0: 2, X1: 300, Y1: 200}
	e.SetRect(r)
	e.SetText("something much longer than before")
	if e.Rect != r {
		t.Fatalf("rect changed to %+v", e.Rect)
	}
}

func TestTextElementDrawAlignment(t *testing.T) {
	e := NewTextElement(&stubTypesetter{})
	e.SetAutoSize(false)
	e.SetRect(curve.Rect{X1: 100, Y1: 40})
	e.SetText("ab")
	e.SetAlignment(style.MiddleCenter)

	rec := &Recorder{}
	e.Draw(rec)
	if len(rec.Shapes) != 2 {
		t.Fatalf("shapes = %d", len(rec.Shapes))
	}
	// 宽度 100 加上 "0" 的 10，居中放置 20 宽的文本。
	got := rec.Shapes[0].Path.BoundingBox()
	if !near(got.X0, 45) || !near(got.Y0, 14) {
		t.Fatalf("first glyph at %v", got.Origin())
	}

	e.ClipPadding = ""
	rec.Reset()
	e.Draw(rec)
	if got := rec.Shapes[0].Path.BoundingBox(); !near(got.X0, 40) {
		t.Fatalf("without padding first glyph at %v", got.Origin())
	}
}

func TestTextElementDrawRotatedKeepsPadding(t *testing.T) {
	e := NewTextElement(&stubTypesetter{})
	e.SetText("ab")
	e.SetAngle(90)

	padded := e.Draw(&Recorder{})
	e.ClipPadding = ""
	plain := e.Draw(&Recorder{})
	if len(padded.Glyphs) != 2 || len(plain.Glyphs) != 2 {
		t.Fatalf("glyphs = %d / %d", len(padded.Glyphs), len(plain.Glyphs))
	}
	// 填充使旋转中心右移 5，第一个字形的锚点随之移动 5√2。
	if d := padded.Glyphs[0].Anchor.Distance(plain.Glyphs[0].Anchor); !near(d, 5*math.Sqrt2) {
		t.Fatalf("padding shifted the anchor by %v", d)
	}
}

func TestTextElementDrawHidden(t *testing.T) {
	e := NewTextElement(&stubTypesetter{})
	e.Visible = false
	rec := &Recorder{}
	e.Draw(rec)
	if len(rec.Shapes) != 0 {
		t.Fatalf("hidden element drew %d shapes", len(rec.Shapes))
	}
}

func TestTextElementDrawCurvedInsideRect(t *testing.T) {
	e := NewTextElement(&stubTypesetter{})
	e.SetLocation(curve.Pt(10, 10))
	e.SetRadius(40)
	rec := &Recorder{}
	res := e.Draw(rec)
	if len(rec.Shapes) != 7 { // "Text Box" 去掉空格
		t.Fatalf("shapes = %d", len(rec.Shapes))
	}
	if !nearRect(res.Bounds, e.Rect) {
		t.Fatalf("drawn bounds %+v, element rect %+v", res.Bounds, e.Rect)
	}
}
