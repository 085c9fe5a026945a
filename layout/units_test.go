package layout

import (
	"math"
	"testing"
)

func TestParseLength(t *testing.T) {
	cases := []struct {
		in   string
		want Length
		pt   float64
	}{
		{"12", Length{12, UnitNone}, 12},
		{"10mm", Length{10, UnitMM}, 10 * MmToPt},
		{"1.5cm", Length{1.5, UnitCM}, 15 * MmToPt},
		{"1in", Length{1, UnitIN}, 72},
		{" 9PT ", Length{9, UnitPT}, 9},
		{"96px", Length{96, UnitPX}, 72},
		{"-4mm", Length{-4, UnitMM}, -4 * MmToPt},
	}
	for _, c := range cases {
		got, ok := ParseLength(c.in)
		if !ok {
			t.Fatalf("ParseLength(%q) failed", c.in)
		}
		if got != c.want {
			t.Fatalf("ParseLength(%q) = %+v, want %+v", c.in, got, c.want)
		}
		if math.Abs(got.ToPT()-c.pt) > 1e-9 {
			t.Fatalf("%q ToPT = %g, want %g", c.in, got.ToPT(), c.pt)
		}
	}
	for _, bad := range []string{"", "mm", "abc", "1.2.3pt"} {
		if _, ok := ParseLength(bad); ok {
			t.Fatalf("ParseLength(%q) should fail", bad)
		}
	}
}

func TestLengthToMM(t *testing.T) {
	if got := (Length{2, UnitCM}).ToMM(); got != 20 {
		t.Fatalf("2cm = %gmm", got)
	}
	if got := (Length{72, UnitPT}).ToMM(); math.Abs(got-25.4) > 0.01 {
		t.Fatalf("72pt = %gmm", got)
	}
}

func TestParseAngle(t *testing.T) {
	for in, want := range map[string]float64{"30": 30, "45deg": 45, "-90": -90} {
		got, ok := ParseAngle(in)
		if !ok || got != want {
			t.Fatalf("ParseAngle(%q) = %g, %v", in, got, ok)
		}
	}
	got, ok := ParseAngle("3.141592653589793rad")
	if !ok || math.Abs(got-180) > 1e-9 {
		t.Fatalf("pi rad = %g", got)
	}
}
